package main

import (
	"fmt"

	"github.com/Veraticus/coorte/internal/cli"
	"github.com/Veraticus/coorte/internal/common"
	"github.com/Veraticus/coorte/internal/model"
	"github.com/spf13/cobra"
)

func uploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <project-id>",
		Short: "Upload the spreadsheets of an existing project",
		Long: `Send the beneficiary and claims spreadsheets of a project's round and print
the row counts and first rows the backend read from them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			benefPath, _ := cmd.Flags().GetString("benef")
			fichaPath, _ := cmd.Flags().GetString("ficha")

			benef, err := model.OpenSourceFile(benefPath)
			if err != nil {
				return common.NewUserError("Planilha de beneficiários inválida.", err)
			}
			ficha, err := model.OpenSourceFile(fichaPath)
			if err != nil {
				return common.NewUserError("Ficha financeira inválida.", err)
			}

			gw, err := newGateway(cmd)
			if err != nil {
				return fmt.Errorf("failed to create backend client: %w", err)
			}

			summary, err := gw.Upload(cmd.Context(), args[0], round(), benef, ficha)
			if err != nil {
				return backendError("Erro ao carregar planilhas.", err)
			}

			out := cmd.OutOrStdout()
			printLn(out, cli.FormatSuccess(fmt.Sprintf("Planilhas carregadas: %d beneficiários, %d linhas de ficha.",
				summary.RowsBenef, summary.RowsFicha)))
			printLn(out, cli.RenderUploadSummary(summary))
			return nil
		},
	}

	cmd.Flags().String("benef", "", "beneficiary spreadsheet (.csv, .xlsx, .xls)")
	cmd.Flags().String("ficha", "", "claims spreadsheet (.csv, .xlsx, .xls)")
	_ = cmd.MarkFlagRequired("benef")
	_ = cmd.MarkFlagRequired("ficha")

	return cmd
}
