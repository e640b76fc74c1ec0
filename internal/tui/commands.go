package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// next performs the current step's forward transition.
func (m Model) next() tea.Cmd {
	wiz, ctx := m.wiz, m.ctx
	from := m.step
	return func() tea.Msg {
		return transitionDoneMsg{from: from, err: wiz.Next(ctx)}
	}
}

// upload sends the selected spreadsheets.
func (m Model) upload() tea.Cmd {
	wiz, ctx := m.wiz, m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: actionUpload, err: wiz.Upload(ctx)}
	}
}

// simulate runs the preview calculation.
func (m Model) simulate() tea.Cmd {
	wiz, ctx := m.wiz, m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: actionSimulate, err: wiz.Simulate(ctx)}
	}
}

// export saves the fully calculated spreadsheet into the export directory.
func (m Model) export() tea.Cmd {
	wiz, ctx, dir := m.wiz, m.ctx, m.config.ExportDir
	return func() tea.Msg {
		path, err := wiz.ExportFile(ctx, dir)
		return actionDoneMsg{action: actionExport, path: path, err: err}
	}
}
