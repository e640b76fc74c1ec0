package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/coorte/internal/cli"
	"github.com/Veraticus/coorte/internal/common"
	"github.com/Veraticus/coorte/internal/gateway"
	"github.com/Veraticus/coorte/internal/model"
	"github.com/Veraticus/coorte/internal/wizard"
	"github.com/spf13/cobra"
)

// newOptions are the values the wizard would otherwise ask for.
type newOptions struct {
	name        string
	unimed      string
	description string
	benef       string
	ficha       string
	refDate     string
	benefID     string
	fichaID     string
	mapping     string
	saveMapping string
	export      string
	dryRun      bool
}

func newCmd() *cobra.Command {
	var opts newOptions

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create and run a project without prompts",
		Long: `Run every wizard step from flags: create the project, upload both
spreadsheets, seed the mapping from the backend's suggestions (optionally
overlaid with a mapping file) and submit the analysis.

With --dry-run the calculation is only simulated and the preview printed.`,
		Example: `  coorte new --name "Carteira Ouro 2024" --unimed 001 \
    --benef beneficiarios.xlsx --ficha ficha.csv --ref-date 2025-11-01
  coorte new --name Piloto --benef b.csv --ficha f.csv --mapping mapping.yaml --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, err := newGateway(cmd)
			if err != nil {
				return fmt.Errorf("failed to create backend client: %w", err)
			}
			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			dashboard, err := runNewProject(cmd.Context(), gw, store, cmd.OutOrStdout(), opts)
			if err != nil {
				return err
			}
			if dashboard != "" {
				printLn(cmd.OutOrStdout(), cli.FormatSuccess("Análise enviada. Painel: "+dashboard))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "project name (required)")
	cmd.Flags().StringVar(&opts.unimed, "unimed", "", "Unimed code")
	cmd.Flags().StringVar(&opts.description, "description", "", "project description")
	cmd.Flags().StringVar(&opts.benef, "benef", "", "beneficiary spreadsheet (.csv, .xlsx, .xls)")
	cmd.Flags().StringVar(&opts.ficha, "ficha", "", "claims spreadsheet (.csv, .xlsx, .xls)")
	cmd.Flags().StringVar(&opts.refDate, "ref-date", "", "reference date YYYY-MM-DD (default today, or the mapping file's)")
	cmd.Flags().StringVar(&opts.benefID, "benef-id", "", "beneficiary join key (default first identifier)")
	cmd.Flags().StringVar(&opts.fichaID, "ficha-id", "", "claims join key (default first identifier)")
	cmd.Flags().StringVar(&opts.mapping, "mapping", "", "mapping file applied over the suggestions")
	cmd.Flags().StringVar(&opts.saveMapping, "save-mapping", "", "write the final mapping to this file")
	cmd.Flags().StringVar(&opts.export, "export", "", "also save the fully calculated spreadsheet to this path")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "simulate the calculation instead of submitting")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("benef")
	_ = cmd.MarkFlagRequired("ficha")

	return cmd
}

// runNewProject drives a wizard through every step. It returns the dashboard
// path, or "" on a dry run.
func runNewProject(ctx context.Context, gw gateway.Gateway, rec wizard.Recorder, out io.Writer, opts newOptions) (string, error) {
	var mappingFile *model.MappingFile
	if opts.mapping != "" {
		f, err := model.LoadMappingFile(opts.mapping)
		if err != nil {
			return "", err
		}
		mappingFile = f
	}
	benef, err := model.OpenSourceFile(opts.benef)
	if err != nil {
		return "", common.NewUserError("Planilha de beneficiários inválida.", err)
	}
	ficha, err := model.OpenSourceFile(opts.ficha)
	if err != nil {
		return "", common.NewUserError("Ficha financeira inválida.", err)
	}

	var dashboard string
	wizOpts := []wizard.Option{
		wizard.WithNotifier(cli.NewNotifier(out)),
		wizard.WithNavigator(wizard.NavigatorFunc(func(path string) { dashboard = path })),
		wizard.WithRound(round()),
	}
	if rec != nil {
		wizOpts = append(wizOpts, wizard.WithRecorder(rec))
	}
	wiz := wizard.New(gw, wizOpts...)

	// Dados básicos
	wiz.SetName(opts.name)
	wiz.SetUnimed(opts.unimed)
	wiz.SetDescription(opts.description)
	if err := wiz.Next(ctx); err != nil {
		return "", err
	}

	// Upload
	wiz.SetBenefFile(benef)
	wiz.SetFichaFile(ficha)
	if err := wiz.Upload(ctx); err != nil {
		return "", err
	}
	if err := wiz.Next(ctx); err != nil {
		return "", err
	}

	// Mapeamento
	if mappingFile != nil {
		wiz.ApplyMapping(mappingFile.Mapping)
	}
	if err := wiz.Next(ctx); err != nil {
		return "", err
	}

	// Configuração
	if err := applyConfig(wiz, mappingFile, opts); err != nil {
		return "", err
	}
	snap := wiz.Snapshot()
	printLn(out, cli.RenderMapping(snap.Mapping))

	if opts.saveMapping != "" {
		f := model.MappingFile{
			ProjectID:     snap.ProjectID,
			Mapping:       snap.Mapping,
			UltimaCompRef: snap.Config.UltimaCompRef,
			BenefID:       snap.Config.BenefID,
			FichaID:       snap.Config.FichaID,
		}
		if err := f.Save(opts.saveMapping); err != nil {
			return "", err
		}
		printLn(out, cli.FormatSuccess("Mapeamento salvo em "+opts.saveMapping))
	}

	if opts.export != "" {
		path, err := wiz.ExportFile(ctx, opts.export)
		if err != nil {
			return "", err
		}
		printLn(out, cli.FormatSuccess("Planilha salva em "+path))
	}

	if opts.dryRun {
		if err := wiz.Simulate(ctx); err != nil {
			return "", err
		}
		snap = wiz.Snapshot()
		printLn(out, cli.RenderPreview(snap.Preview, snap.Config.BenefID, 20))
		return "", nil
	}

	if err := wiz.Next(ctx); err != nil {
		return "", err
	}
	return dashboard, nil
}

// applyConfig sets the step 4 values: flags win over the mapping file, which
// wins over the wizard defaults.
func applyConfig(wiz *wizard.Orchestrator, f *model.MappingFile, opts newOptions) error {
	refDate, benefID, fichaID := opts.refDate, opts.benefID, opts.fichaID
	if f != nil {
		if refDate == "" && !f.UltimaCompRef.IsZero() {
			refDate = f.UltimaCompRef.String()
		}
		if benefID == "" {
			benefID = f.BenefID
		}
		if fichaID == "" {
			fichaID = f.FichaID
		}
	}

	if refDate != "" {
		d, err := model.ParseDate(refDate)
		if err != nil {
			return common.NewUserError("Data de referência inválida, use AAAA-MM-DD.", err)
		}
		wiz.SetReferenceDate(d)
	}
	if benefID != "" {
		wiz.SetBenefID(benefID)
	}
	if fichaID != "" {
		wiz.SetFichaID(fichaID)
	}

	if _, err := wiz.Request(); err != nil {
		if errors.Is(err, wizard.ErrUnknownJoinKey) {
			return common.NewUserError("O identificador escolhido não está entre os identificadores mapeados.", err)
		}
		return err
	}
	return nil
}
