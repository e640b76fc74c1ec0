package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Veraticus/coorte/internal/cli"
	"github.com/Veraticus/coorte/internal/gateway"
	"github.com/Veraticus/coorte/internal/model"
	"github.com/spf13/cobra"
)

func mappingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Work with column mappings",
	}

	cmd.AddCommand(mappingSuggestCmd())

	return cmd
}

func mappingSuggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <project-id>",
		Short: "Print the mapping seeded from the backend's suggestions",
		Long: `Fetch the column suggestions for the uploaded spreadsheets and print the
mapping the wizard would start from: every identifier candidate, and the top
candidate of every other concept.

With --out the mapping is written as YAML for editing and later use with
'coorte analysis' or 'coorte new --mapping'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outPath, _ := cmd.Flags().GetString("out")

			gw, err := newGateway(cmd)
			if err != nil {
				return fmt.Errorf("failed to create backend client: %w", err)
			}
			return suggestMapping(cmd.Context(), gw, cmd.OutOrStdout(), args[0], outPath)
		},
	}

	cmd.Flags().StringP("out", "o", "", "write the seeded mapping to this YAML file")

	return cmd
}

func suggestMapping(ctx context.Context, gw gateway.Gateway, out io.Writer, projectID, outPath string) error {
	s, err := gw.Suggestions(ctx, projectID, round())
	if err != nil {
		return backendError("Erro ao buscar sugestões. Verifique se fez o upload.", err)
	}

	seeded := s.Seed()
	printLn(out, cli.RenderSuggestions(s))
	printLn(out, cli.RenderMapping(seeded))

	if outPath == "" {
		return nil
	}
	f := model.MappingFile{
		ProjectID: projectID,
		Mapping:   seeded,
		BenefID:   first(seeded.Benef.Identifiers()),
		FichaID:   first(seeded.Ficha.Identifiers()),
	}
	if err := f.Save(outPath); err != nil {
		return err
	}
	printLn(out, cli.FormatSuccess("Mapeamento salvo em "+outPath))
	return nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
