package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/Veraticus/coorte/internal/model"
	"github.com/Veraticus/coorte/internal/wizard"
)

// ErrInputClosed is returned when the input ends before the wizard finishes.
var ErrInputClosed = errors.New("input terminated")

// previewLimit is how many preview rows the line-based wizard prints.
const previewLimit = 10

// Prompter drives the project wizard over plain line-based input, for
// terminals where the full-screen interface is unavailable. It implements
// wizard.Notifier and wizard.Navigator.
type Prompter struct {
	writer    io.Writer
	reader    *NonBlockingReader
	exportDir string
	dashboard string
	mu        sync.Mutex
}

// Ensure Prompter implements the wizard interfaces.
var (
	_ wizard.Notifier  = (*Prompter)(nil)
	_ wizard.Navigator = (*Prompter)(nil)
)

// NewCLIPrompter creates a new CLI prompter with the given reader and writer.
// Exported spreadsheets are saved into exportDir.
func NewCLIPrompter(reader io.Reader, writer io.Writer, exportDir string) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	if exportDir == "" {
		exportDir = "."
	}

	return &Prompter{
		reader:    NewNonBlockingReader(reader),
		writer:    writer,
		exportDir: exportDir,
	}
}

// Notify implements wizard.Notifier.
func (p *Prompter) Notify(level wizard.Level, message string) {
	NewNotifier(p.writer).Notify(level, message)
}

// Navigate implements wizard.Navigator.
func (p *Prompter) Navigate(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dashboard = path
}

// Dashboard returns where the wizard navigated to after submission.
func (p *Prompter) Dashboard() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dashboard
}

// Run walks wiz through every step until the analysis is submitted. It
// returns the dashboard path of the submitted project.
func (p *Prompter) Run(ctx context.Context, wiz *wizard.Orchestrator) (string, error) {
	p.println(FormatTitle("Novo projeto"))

	for p.Dashboard() == "" {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		step := wiz.Step()
		p.println("")
		p.println(SubtitleStyle.Render(fmt.Sprintf("Etapa %d de %d · %s", int(step), len(wizard.Steps), step)))

		var err error
		switch step {
		case wizard.StepBasicInfo:
			err = p.basicInfo(ctx, wiz)
		case wizard.StepUpload:
			err = p.uploadStep(ctx, wiz)
		case wizard.StepMapping:
			err = p.mappingStep(ctx, wiz)
		default:
			err = p.configurationStep(ctx, wiz)
		}
		if err != nil {
			return "", err
		}
	}
	return p.Dashboard(), nil
}

func (p *Prompter) basicInfo(ctx context.Context, wiz *wizard.Orchestrator) error {
	info := wiz.Snapshot().Info

	name, err := p.promptValue(ctx, "Nome do projeto", info.Name)
	if err != nil {
		return err
	}
	unimed, err := p.promptValue(ctx, "Unimed", info.Unimed)
	if err != nil {
		return err
	}
	description, err := p.promptValue(ctx, "Descrição", info.Description)
	if err != nil {
		return err
	}
	wiz.SetName(name)
	wiz.SetUnimed(unimed)
	wiz.SetDescription(description)

	return p.advance(ctx, wiz)
}

func (p *Prompter) uploadStep(ctx context.Context, wiz *wizard.Orchestrator) error {
	snap := wiz.Snapshot()

	benef, err := p.promptFile(ctx, "Planilha de beneficiários", snap.Info.Benef)
	if err != nil {
		return err
	}
	wiz.SetBenefFile(benef)
	ficha, err := p.promptFile(ctx, "Ficha financeira", snap.Info.Ficha)
	if err != nil {
		return err
	}
	wiz.SetFichaFile(ficha)

	if !wiz.Snapshot().Uploaded {
		if err := wiz.Upload(ctx); err != nil {
			return p.retryable(ctx, err)
		}
	}
	if summary := wiz.Snapshot().Upload; summary != nil {
		p.println(RenderUploadSummary(summary))
	}

	return p.advance(ctx, wiz)
}

func (p *Prompter) mappingStep(ctx context.Context, wiz *wizard.Orchestrator) error {
	snap := wiz.Snapshot()
	if snap.Suggestions != nil {
		p.println(RenderSuggestions(snap.Suggestions))
	}
	p.println(RenderMapping(snap.Mapping))

	edit, err := p.promptChoice(ctx, "Aceitar o mapeamento? [s]im, [e]ditar, [v]oltar", []string{"s", "e", "v"})
	if err != nil {
		return err
	}
	switch edit {
	case "v":
		return wiz.Back()
	case "e":
		if err := p.editMapping(ctx, wiz, snap); err != nil {
			return err
		}
	}

	return p.advance(ctx, wiz)
}

// editMapping prompts for every mapped concept, keeping the current value on empty input.
func (p *Prompter) editMapping(ctx context.Context, wiz *wizard.Orchestrator, snap wizard.Snapshot) error {
	p.println(SubtleStyle.Render("Enter mantém o valor atual. Identificadores aceitam várias colunas separadas por vírgula; \"-\" limpa o valor."))
	for _, c := range model.Categories {
		mapping := snap.Mapping.Get(c)
		for _, concept := range mapping.Concepts(knownConcepts(c)) {
			current := mapping[concept]
			label := fmt.Sprintf("%s · %s", c.Label(), concept)
			input, err := p.promptValue(ctx, label, current.String())
			if err != nil {
				return err
			}
			if input == current.String() {
				continue
			}
			if input == "-" {
				input = ""
			}
			if concept == model.ConceptIdentifier {
				wiz.SetMappingValue(c, concept, model.Identifier(splitList(input)...))
				continue
			}
			wiz.SetMappingValue(c, concept, model.Scalar(input))
		}
	}
	return nil
}

func (p *Prompter) configurationStep(ctx context.Context, wiz *wizard.Orchestrator) error {
	snap := wiz.Snapshot()

	date, err := p.promptDate(ctx, snap.Config.UltimaCompRef)
	if err != nil {
		return err
	}
	wiz.SetReferenceDate(date)

	benefID, err := p.promptJoinKey(ctx, "Identificador de beneficiários", snap.Config.BenefID, snap.Mapping.Benef.Identifiers())
	if err != nil {
		return err
	}
	wiz.SetBenefID(benefID)
	fichaID, err := p.promptJoinKey(ctx, "Identificador da ficha", snap.Config.FichaID, snap.Mapping.Ficha.Identifiers())
	if err != nil {
		return err
	}
	wiz.SetFichaID(fichaID)

	for {
		choice, err := p.promptChoice(ctx,
			"[p] simular cálculo, [b] buscar no preview, [x] exportar Excel, [c] concluir, [v] voltar",
			[]string{"p", "b", "x", "c", "v"})
		if err != nil {
			return err
		}

		switch choice {
		case "p":
			if err := wiz.Simulate(ctx); err == nil {
				if preview := wiz.Snapshot().Preview; preview != nil {
					p.println(RenderPreview(preview, benefID, previewLimit))
				}
			} else if ctx.Err() != nil {
				return ctx.Err()
			}
		case "b":
			if err := p.search(ctx, wiz, benefID); err != nil {
				return err
			}
		case "x":
			path, err := wiz.ExportFile(ctx, p.exportDir)
			if err == nil {
				p.println(FormatSuccess("Planilha salva em " + path))
			} else if ctx.Err() != nil {
				return ctx.Err()
			}
		case "v":
			return wiz.Back()
		default:
			return p.advance(ctx, wiz)
		}
	}
}

// search filters the stored preview with a query read from the input.
func (p *Prompter) search(ctx context.Context, wiz *wizard.Orchestrator, joinKey string) error {
	if wiz.Snapshot().Preview == nil {
		p.println(FormatWarning("Simule o cálculo antes de buscar."))
		return nil
	}
	query, err := p.promptValue(ctx, "Buscar", "")
	if err != nil {
		return err
	}
	rows := wiz.SearchPreview(query)
	p.println(SubtleStyle.Render(fmt.Sprintf("%d linha(s) encontrada(s)", len(rows))))
	p.println(RenderRows(rows, []string{joinKey}, previewLimit))
	return nil
}

// advance performs the forward transition. Validation failures and backend
// errors were already reported by the wizard; the step is simply asked again.
func (p *Prompter) advance(ctx context.Context, wiz *wizard.Orchestrator) error {
	if err := wiz.Next(ctx); err != nil {
		return p.retryable(ctx, err)
	}
	return nil
}

// retryable lets the run loop repeat the current step unless the run was canceled.
func (p *Prompter) retryable(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	slog.Debug("Step will be repeated", "error", err)
	return nil
}

// promptValue reads one value; empty input keeps current.
func (p *Prompter) promptValue(ctx context.Context, prompt, current string) (string, error) {
	label := prompt
	if current != "" {
		label = fmt.Sprintf("%s [%s]", prompt, current)
	}
	if _, err := fmt.Fprint(p.writer, FormatPrompt(label)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	input, err := p.reader.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", ErrInputClosed
		}
		return "", err
	}
	if input == "" {
		return current, nil
	}
	return input, nil
}

func (p *Prompter) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		input, err := p.promptValue(ctx, prompt, "")
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(input)
		if slices.Contains(validChoices, choice) {
			return choice, nil
		}

		p.println(FormatError("Opção inválida. Tente novamente."))
	}
}

func (p *Prompter) promptFile(ctx context.Context, prompt string, current model.SourceFile) (model.SourceFile, error) {
	for {
		path, err := p.promptValue(ctx, prompt, current.Path)
		if err != nil {
			return model.SourceFile{}, err
		}
		if path == current.Path && current.IsSet() {
			return current, nil
		}

		f, err := model.OpenSourceFile(path)
		if err == nil {
			return f, nil
		}
		p.println(FormatError(err.Error()))
	}
}

func (p *Prompter) promptDate(ctx context.Context, current model.Date) (model.Date, error) {
	for {
		input, err := p.promptValue(ctx, "Data de referência (AAAA-MM-DD)", current.String())
		if err != nil {
			return model.Date{}, err
		}

		var d model.Date
		if err := d.UnmarshalText([]byte(input)); err == nil {
			return d, nil
		}
		p.println(FormatError("Data inválida, use AAAA-MM-DD."))
	}
}

// promptJoinKey asks for one of the identifier candidates.
func (p *Prompter) promptJoinKey(ctx context.Context, prompt, current string, candidates []string) (string, error) {
	p.println(SubtleStyle.Render("Candidatos: " + strings.Join(candidates, ", ")))
	for {
		input, err := p.promptValue(ctx, prompt, current)
		if err != nil {
			return "", err
		}
		if slices.Contains(candidates, input) {
			return input, nil
		}
		p.println(FormatError("Escolha um dos candidatos."))
	}
}

func (p *Prompter) println(s string) {
	if _, err := fmt.Fprintln(p.writer, s); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}

// splitList splits a comma separated list, dropping blanks.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
