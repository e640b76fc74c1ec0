package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/coorte/internal/cli"
	"github.com/Veraticus/coorte/internal/common"
	"github.com/Veraticus/coorte/internal/model"
	"github.com/Veraticus/coorte/internal/wizard"
	"github.com/spf13/cobra"
)

// analysisOptions locate the project and describe the calculation to request.
type analysisOptions struct {
	mapping string
	refDate string
	benefID string
	fichaID string
}

func (o *analysisOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.mapping, "mapping", "m", "", "mapping file (required)")
	cmd.Flags().StringVar(&o.refDate, "ref-date", "", "reference date YYYY-MM-DD (default the mapping file's)")
	cmd.Flags().StringVar(&o.benefID, "benef-id", "", "beneficiary join key (default the mapping file's)")
	cmd.Flags().StringVar(&o.fichaID, "ficha-id", "", "claims join key (default the mapping file's)")
	_ = cmd.MarkFlagRequired("mapping")
}

// request loads the mapping file and builds the join-reordered payload. The
// project id comes from args or, failing that, from the mapping file.
func (o *analysisOptions) request(args []string) (string, model.AnalysisRequest, error) {
	f, err := model.LoadMappingFile(o.mapping)
	if err != nil {
		return "", model.AnalysisRequest{}, err
	}

	projectID := f.ProjectID
	if len(args) > 0 {
		projectID = args[0]
	}
	if projectID == "" {
		return "", model.AnalysisRequest{}, common.NewUserError("Informe o projeto.", wizard.ErrNoProject)
	}

	cfg := wizard.ConfigData{UltimaCompRef: f.UltimaCompRef, BenefID: f.BenefID, FichaID: f.FichaID}
	if o.refDate != "" {
		d, err := model.ParseDate(o.refDate)
		if err != nil {
			return "", model.AnalysisRequest{}, common.NewUserError("Data de referência inválida, use AAAA-MM-DD.", err)
		}
		cfg.UltimaCompRef = d
	}
	if o.benefID != "" {
		cfg.BenefID = o.benefID
	}
	if o.fichaID != "" {
		cfg.FichaID = o.fichaID
	}

	req, err := wizard.BuildRequest(f.Mapping, cfg)
	if err != nil {
		switch {
		case errors.Is(err, wizard.ErrConfigIncomplete):
			return "", model.AnalysisRequest{}, common.NewUserError("Informe a data de referência e os identificadores.", err)
		case errors.Is(err, wizard.ErrUnknownJoinKey):
			return "", model.AnalysisRequest{}, common.NewUserError("O identificador escolhido não está entre os identificadores mapeados.", err)
		}
		return "", model.AnalysisRequest{}, err
	}
	return projectID, req, nil
}

func analysisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analysis",
		Short: "Simulate, export or run a project's calculation",
		Long: `Send a mapping file to the analysis endpoints of a project.

The join key of each spreadsheet is moved to the front of its identifier
list before the request is sent.`,
	}

	cmd.AddCommand(analysisPreviewCmd())
	cmd.AddCommand(analysisDownloadCmd())
	cmd.AddCommand(analysisRunCmd())

	return cmd
}

func analysisPreviewCmd() *cobra.Command {
	var opts analysisOptions
	cmd := &cobra.Command{
		Use:   "preview [project-id]",
		Short: "Simulate the calculation over the first rows",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("search")
			limit, _ := cmd.Flags().GetInt("limit")

			projectID, req, err := opts.request(args)
			if err != nil {
				return err
			}
			gw, err := newGateway(cmd)
			if err != nil {
				return fmt.Errorf("failed to create backend client: %w", err)
			}

			preview, err := gw.PreviewAnalysis(cmd.Context(), projectID, round(), req)
			if err != nil {
				return backendError("Erro ao processar análise.", err)
			}
			preview.Rows = model.FilterRows(preview.Rows, query)
			printLn(cmd.OutOrStdout(), cli.RenderPreview(preview, first(req.Mapping.Benef.Identifiers()), limit))
			return nil
		},
	}
	opts.register(cmd)
	cmd.Flags().String("search", "", "only show rows where any column contains this text")
	cmd.Flags().Int("limit", 20, "maximum number of rows printed")
	return cmd
}

func analysisDownloadCmd() *cobra.Command {
	var opts analysisOptions
	cmd := &cobra.Command{
		Use:   "download [project-id]",
		Short: "Save the fully calculated spreadsheet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outPath, _ := cmd.Flags().GetString("out")

			projectID, req, err := opts.request(args)
			if err != nil {
				return err
			}
			gw, err := newGateway(cmd)
			if err != nil {
				return fmt.Errorf("failed to create backend client: %w", err)
			}

			f, err := os.Create(filepath.Clean(outPath))
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outPath, err)
			}
			n, err := gw.DownloadPreview(cmd.Context(), projectID, round(), req, f)
			closeErr := f.Close()
			if err == nil {
				err = closeErr
			}
			if err != nil {
				_ = os.Remove(outPath)
				return backendError("Erro ao gerar Excel.", err)
			}

			printLn(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Download concluído! %s (%d bytes)", outPath, n)))
			return nil
		},
	}
	opts.register(cmd)
	cmd.Flags().StringP("out", "o", model.DefaultExportName, "output file")
	return cmd
}

func analysisRunCmd() *cobra.Command {
	var opts analysisOptions
	cmd := &cobra.Command{
		Use:   "run [project-id]",
		Short: "Run the full analysis",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, req, err := opts.request(args)
			if err != nil {
				return err
			}
			gw, err := newGateway(cmd)
			if err != nil {
				return fmt.Errorf("failed to create backend client: %w", err)
			}

			status, err := gw.RunAnalysis(cmd.Context(), projectID, round(), req)
			if err != nil {
				return backendError("Erro ao processar análise.", err)
			}

			out := cmd.OutOrStdout()
			printLn(out, cli.FormatSuccess("Processamento concluído! ("+status.Status+")"))
			printLn(out, cli.FormatInfo("Painel: "+wizard.DashboardPath(projectID)))
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}
