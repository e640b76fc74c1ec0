package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/coorte/internal/cli"
	"github.com/Veraticus/coorte/internal/common"
	"github.com/Veraticus/coorte/internal/gateway"
	"github.com/Veraticus/coorte/internal/model"
	"github.com/Veraticus/coorte/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errResultsProcessing = errors.New("results still processing")

func resultsCmd() *cobra.Command {
	q := model.DefaultResultsQuery()
	var (
		periodo string
		poll    service.RetryOptions
	)

	cmd := &cobra.Command{
		Use:   "results <project-id>",
		Short: "Show the dashboard numbers of an analysed project",
		Long: `Fetch the project, its results and the available filter values, and print
the headline indicators.

Results are returned as "processing" while the backend is still running the
analysis. With --wait the command polls until they are ready.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Periodo = model.Periodo(periodo)
			if !q.Periodo.Valid() {
				return common.NewUserError("Período inválido, use dentro, fora ou ambos.", fmt.Errorf("periodo %q", periodo))
			}

			gw, err := newGateway(cmd)
			if err != nil {
				return fmt.Errorf("failed to create backend client: %w", err)
			}
			return showResults(cmd.Context(), gw, cmd.OutOrStdout(), args[0], q, poll)
		},
	}

	cmd.Flags().StringVar(&periodo, "periodo", string(model.PeriodoDentro), "events inside, outside or regardless of the program window (dentro, fora, ambos)")
	cmd.Flags().BoolVar(&q.MomentoZero, "momento-zero", false, "align series on program entry")
	cmd.Flags().IntVar(&q.Janela, "janela", model.DefaultJanela, "observation window in months")
	cmd.Flags().StringSliceVar(&q.Grupos, "grupo", nil, "restrict to these groups (repeatable)")
	cmd.Flags().IntVar(&poll.MaxAttempts, "wait", 0, "poll up to this many times while results are processing")
	cmd.Flags().DurationVar(&poll.InitialDelay, "poll-interval", 2*time.Second, "delay before the first poll, doubled on each attempt")
	cmd.Flags().StringSliceVar(&q.AgrupamentoAssistencial, "assistencial", nil, "restrict to these care groupings (repeatable)")

	return cmd
}

// showResults fetches the project, its results and filter options concurrently.
// A positive poll.MaxAttempts keeps fetching results while they are processing.
func showResults(ctx context.Context, gw gateway.Gateway, out io.Writer, projectID string, q model.ResultsQuery, poll service.RetryOptions) error {
	var (
		project *model.Project
		results *model.Results
		options *model.FilterOptions
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := gw.GetProject(ctx, projectID)
		if err != nil {
			return backendError("Erro ao carregar projeto.", err)
		}
		project = p
		return nil
	})
	g.Go(func() error {
		r, err := fetchResults(ctx, gw, projectID, q, poll)
		if err != nil {
			return err
		}
		results = r
		return nil
	})
	g.Go(func() error {
		o, err := gw.FilterOptions(ctx, projectID, round())
		if err != nil {
			return backendError("Erro ao carregar filtros.", err)
		}
		options = o
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	printLn(out, cli.RenderProject(project))
	printLn(out, cli.RenderResults(results, options))
	return nil
}

func fetchResults(ctx context.Context, gw gateway.Gateway, projectID string, q model.ResultsQuery, poll service.RetryOptions) (*model.Results, error) {
	if poll.MaxAttempts <= 0 {
		r, err := gw.Results(ctx, projectID, round(), q)
		if err != nil {
			return nil, backendError("Erro ao carregar resultados.", err)
		}
		return r, nil
	}

	var results *model.Results
	poll.MaxDelay = 30 * time.Second
	err := common.WithRetry(ctx, func() error {
		r, err := gw.Results(ctx, projectID, round(), q)
		if err != nil {
			return backendError("Erro ao carregar resultados.", err)
		}
		results = r
		if !r.Ready() {
			return &common.RetryableError{Err: errResultsProcessing, Retryable: true}
		}
		return nil
	}, poll)
	if errors.Is(err, common.ErrMaxRetries) {
		// Show the last processing payload rather than failing.
		return results, nil
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}
