package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/coorte/internal/cli"
	"github.com/Veraticus/coorte/internal/common"
	"github.com/Veraticus/coorte/internal/gateway"
	"github.com/Veraticus/coorte/internal/model"
	"github.com/Veraticus/coorte/internal/service"
	"github.com/spf13/cobra"
)

func projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "Browse and manage analysis projects",
	}

	cmd.AddCommand(projectsListCmd())
	cmd.AddCommand(projectsShowCmd())
	cmd.AddCommand(projectsDeleteCmd())
	cmd.AddCommand(projectsHistoryCmd())
	cmd.AddCommand(projectsViewCmd())

	return cmd
}

func projectsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the projects of the backend",
		Long: `List every project known to the backend, as a table or as cards.

The layout defaults to the saved preference (see 'coorte projects view').`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			view, _ := cmd.Flags().GetString("view")

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			gw, err := newGateway(cmd)
			if err != nil {
				return fmt.Errorf("failed to create backend client: %w", err)
			}

			return listProjects(ctx, gw, store, cmd.OutOrStdout(), model.ViewMode(view))
		},
	}

	cmd.Flags().String("view", "", "layout for this listing only (grid, list)")

	return cmd
}

func listProjects(ctx context.Context, gw gateway.Gateway, store service.Storage, out io.Writer, override model.ViewMode) error {
	mode := override
	if mode == "" {
		saved, err := store.GetViewMode(ctx)
		if err != nil {
			return fmt.Errorf("failed to read view mode: %w", err)
		}
		mode = saved
	}
	if !mode.Valid() {
		return common.NewUserError("Visualização inválida, use grid ou list.", fmt.Errorf("view mode %q", mode))
	}

	projects, err := gw.ListProjects(ctx)
	if err != nil {
		return backendError("Erro ao carregar projetos.", err)
	}

	printLn(out, cli.FormatTitle(cli.FolderIcon+" Projetos"))
	printLn(out, cli.RenderProjects(projects, mode))
	return nil
}

func projectsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := newGateway(cmd)
			if err != nil {
				return fmt.Errorf("failed to create backend client: %w", err)
			}

			p, err := gw.GetProject(cmd.Context(), args[0])
			if err != nil {
				return backendError("Erro ao carregar projeto.", err)
			}
			printLn(cmd.OutOrStdout(), cli.RenderProject(p))
			return nil
		},
	}
}

func projectsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project from the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectID := args[0]
			yes, _ := cmd.Flags().GetBool("yes")

			if !yes {
				confirmed, err := confirm(ctx, cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Excluir o projeto %s? Esta ação não pode ser desfeita [s/N]", projectID))
				if err != nil {
					return err
				}
				if !confirmed {
					printLn(cmd.OutOrStdout(), cli.FormatInfo("Nada foi excluído."))
					return nil
				}
			}

			gw, err := newGateway(cmd)
			if err != nil {
				return fmt.Errorf("failed to create backend client: %w", err)
			}
			if err := gw.DeleteProject(ctx, projectID); err != nil {
				return backendError("Erro ao excluir projeto.", err)
			}

			// The local history entry is only a convenience
			if store, err := initStorage(ctx); err == nil {
				if err := store.DeleteHistory(ctx, projectID); err != nil && !errors.Is(err, common.ErrNotFound) {
					common.LogError(err, "Failed to delete history entry", common.Fields{"project_id": projectID})
				}
				closeStorage(store)
			}

			printLn(cmd.OutOrStdout(), cli.FormatSuccess("Projeto "+projectID+" excluído."))
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	return cmd
}

func projectsHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the projects created on this machine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			entries, err := store.ListHistory(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to list history: %w", err)
			}
			printLn(cmd.OutOrStdout(), cli.RenderHistory(entries))
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "maximum number of entries")

	return cmd
}

func projectsViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "view [grid|list]",
		Short:     "Show or set the project catalog layout",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(model.ViewGrid), string(model.ViewList)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				mode, err := store.GetViewMode(ctx)
				if err != nil {
					return fmt.Errorf("failed to read view mode: %w", err)
				}
				printLn(out, string(mode))
				return nil
			}

			mode := model.ViewMode(strings.ToLower(args[0]))
			if !mode.Valid() {
				return common.NewUserError("Visualização inválida, use grid ou list.", fmt.Errorf("view mode %q", args[0]))
			}
			if err := store.SetViewMode(ctx, mode); err != nil {
				return fmt.Errorf("failed to save view mode: %w", err)
			}
			printLn(out, cli.FormatSuccess("Visualização salva: "+string(mode)))
			return nil
		},
	}
}

// confirm asks a yes/no question; anything but yes declines.
func confirm(ctx context.Context, in io.Reader, out io.Writer, question string) (bool, error) {
	if _, err := fmt.Fprint(out, cli.FormatPrompt(question)); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}
	answer, err := cli.NewNonBlockingReader(in).ReadLine(ctx)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "s", "sim", "y", "yes":
		return true, nil
	}
	return false, nil
}

// backendError wraps a gateway failure with the Portuguese text shown to the user.
func backendError(action string, err error) error {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return common.NewUserError(action+" "+gwErr.UserMessage(), err)
	}
	return common.NewUserError(action, err)
}
