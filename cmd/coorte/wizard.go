package main

import (
	"fmt"
	"os"

	"github.com/Veraticus/coorte/internal/cli"
	"github.com/Veraticus/coorte/internal/tui"
	"github.com/Veraticus/coorte/internal/tui/themes"
	"github.com/Veraticus/coorte/internal/wizard"
	"github.com/spf13/cobra"
)

func wizardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Create a project with the interactive wizard",
		Long: `Walk through the four steps of a new analysis project:

  1. Dados básicos   name, Unimed code and description
  2. Upload          beneficiary and claims spreadsheets
  3. Mapeamento      columns for each concept, seeded from the backend's suggestions
  4. Configuração    reference date and join keys, preview, export and submit

Use --plain on terminals without full-screen support.`,
		RunE: runWizard,
	}

	cmd.Flags().Bool("plain", false, "use line-based prompts instead of the full-screen interface")
	cmd.Flags().String("export-dir", ".", "directory where exported spreadsheets are saved")
	cmd.Flags().String("theme", "dark", "color theme (dark, light)")
	cmd.Flags().Bool("help-keys", false, "show every key binding")

	return cmd
}

func runWizard(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	plain, _ := cmd.Flags().GetBool("plain")
	exportDir, _ := cmd.Flags().GetString("export-dir")
	themeName, _ := cmd.Flags().GetString("theme")
	showKeys, _ := cmd.Flags().GetBool("help-keys")
	if !plain && !stdinIsTerminal() {
		plain = true
	}

	gw, err := newGateway(cmd)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	var dashboard string
	if plain {
		prompter := cli.NewCLIPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), exportDir)
		wiz := wizard.New(gw,
			wizard.WithNotifier(prompter),
			wizard.WithNavigator(prompter),
			wizard.WithRecorder(store),
			wizard.WithRound(round()),
		)

		handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), wiz.ProjectID)
		runCtx, stop := handler.HandleInterrupts(ctx)
		dashboard, err = prompter.Run(runCtx, wiz)
		stop()
		if handler.WasInterrupted() {
			return nil
		}
	} else {
		dashboard, err = tui.Run(ctx, gw,
			tui.WithTheme(themes.ByName(themeName)),
			tui.WithRecorder(store),
			tui.WithRound(round()),
			tui.WithExportDir(exportDir),
			tui.WithHelp(showKeys),
		)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dashboard == "" {
		printLn(out, cli.FormatInfo("Assistente encerrado sem enviar a análise."))
		return nil
	}
	printLn(out, cli.FormatSuccess("Análise enviada. Painel: "+dashboard))
	return nil
}

// stdinIsTerminal reports whether stdin looks interactive.
func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
