package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/infra/logger"
	"github.com/hextract/parking-net/internal/ports"
	"github.com/hextract/parking-net/internal/report"
	"github.com/hextract/parking-net/internal/ui/tui"
	"github.com/hextract/parking-net/internal/usecase"
)

func runCmd(opts *rootOpts) *cobra.Command {
	var workspace string
	var env string
	var only []string
	var live bool

	c := &cobra.Command{
		Use:   "run",
		Short: "Probe the services and run the end-to-end step catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(workspace)
			if err != nil {
				return err
			}
			defer setupLogging(ws.root, opts.debug)()

			envName := ws.environment(env)
			console := report.New(cmd.OutOrStdout(),
				report.WithMasking(ws.cfg.Masking.Enabled),
				report.WithLogger(logger.L()),
			)
			req := usecase.RunRequest{Config: ws.cfg, Environment: envName, Only: only}

			execute := func(ctx context.Context, rep ports.Reporter, obs ports.RunObserver) (domain.RunSummary, error) {
				uc := usecase.NewRunScenario(ws.envs, ws.transport(),
					usecase.WithIdentityAdminFactory(keycloakFactory),
					usecase.WithReporter(rep),
					usecase.WithObserver(obs),
					usecase.WithLogger(logger.L()),
				)
				return uc.Execute(ctx, req)
			}

			var sum domain.RunSummary
			if live {
				names, err := usecase.PlanNames(only)
				if err != nil {
					return err
				}
				sum, err = tui.Run(cmd.Context(), tui.Options{
					Title:       "parking-net e2e",
					Environment: envName,
					Steps:       names,
					Logger:      logger.L(),
				}, execute)
				if err != nil {
					return err
				}
			} else {
				console.Banner("Starting Integration Tests")
				sum, err = execute(cmd.Context(), console, nil)
				if err != nil {
					return err
				}
			}

			console.Summary(sum)
			if sum.Canceled {
				return errors.New("run canceled")
			}
			if !sum.OK() {
				return fmt.Errorf("run failed (%d failed step(s))", sum.Tally.Failed)
			}
			return nil
		},
	}

	c.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	c.Flags().StringVarP(&env, "env", "e", "", "Environment name or path (optional; defaults to the workspace default env)")
	c.Flags().StringSliceVar(&only, "only", nil, "Run only these steps (plus the steps producing what they need)")
	c.Flags().BoolVar(&live, "tui", false, "Show a live progress view")
	return c
}

func probeCmd(opts *rootOpts) *cobra.Command {
	var workspace string
	var env string

	c := &cobra.Command{
		Use:   "probe",
		Short: "Check that every service answers, without running steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(workspace)
			if err != nil {
				return err
			}
			defer setupLogging(ws.root, opts.debug)()

			console := report.New(cmd.OutOrStdout(),
				report.WithMasking(ws.cfg.Masking.Enabled),
				report.WithLogger(logger.L()),
			)
			uc := usecase.NewRunScenario(ws.envs, ws.transport(),
				usecase.WithReporter(console),
				usecase.WithLogger(logger.L()),
			)

			probes, err := uc.Probe(cmd.Context(), usecase.RunRequest{Config: ws.cfg, Environment: ws.environment(env)})
			if err != nil {
				return err
			}
			if down := usecase.Down(probes); len(down) > 0 {
				return fmt.Errorf("%d service(s) unavailable", len(down))
			}
			return nil
		},
	}

	c.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	c.Flags().StringVarP(&env, "env", "e", "", "Environment name or path (optional; defaults to the workspace default env)")
	return c
}
