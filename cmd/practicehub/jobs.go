package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"practicehub/internal/app/server"
	"practicehub/internal/platform/jobs"
)

func newCarryoverCmd(state *cliState) *cobra.Command {
	var fromYear int
	var tenantID string

	cmd := &cobra.Command{
		Use:   "carryover",
		Short: "Roll unused annual leave from one year into the next",
		Long: `Applies leave carryover for every user of every tenant, or of one tenant
when --tenant is given. At most 5 unused days move into the following year.
Running it again for the same year does not add days twice.`,
		Example: `  practicehub carryover --from-year 2025
  practicehub carryover --from-year 2025 --tenant 6b1f...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromYear == 0 {
				fromYear = time.Now().Year() - 1
			}
			if fromYear < 2000 || fromYear > 2100 {
				return fmt.Errorf("--from-year %d is out of range", fromYear)
			}
			return state.withApp(cmd.Context(), func(app *server.App) error {
				summary, err := app.Jobs.RunNow(cmd.Context(), jobs.JobLeaveCarryover, tenantID, func(ctx context.Context) (any, error) {
					if tenantID != "" {
						return app.Leave.RunAnnualCarryover(ctx, tenantID, fromYear)
					}
					return app.Leave.RunGlobalCarryover(ctx, fromYear)
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	}
	cmd.Flags().IntVar(&fromYear, "from-year", 0, "year to carry over from (default: last year)")
	cmd.Flags().StringVar(&tenantID, "tenant", "", "limit the run to one tenant id")
	return cmd
}

func newToilCmd(state *cliState) *cobra.Command {
	toilCmd := &cobra.Command{
		Use:   "toil",
		Short: "TOIL maintenance commands",
	}
	toilCmd.AddCommand(&cobra.Command{
		Use:   "expire",
		Short: "Expire TOIL accruals past their expiry date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return state.withApp(cmd.Context(), func(app *server.App) error {
				summary, err := app.Jobs.RunNow(cmd.Context(), jobs.JobToilExpiry, "", func(ctx context.Context) (any, error) {
					return app.Toil.ExpireAccruals(ctx, time.Now())
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	})
	return toilCmd
}

func newProposalsCmd(state *cliState) *cobra.Command {
	proposalsCmd := &cobra.Command{
		Use:   "proposals",
		Short: "Proposal maintenance commands",
	}
	proposalsCmd.AddCommand(&cobra.Command{
		Use:   "expire",
		Short: "Expire sent or viewed proposals past their validity date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return state.withApp(cmd.Context(), func(app *server.App) error {
				summary, err := app.Jobs.RunNow(cmd.Context(), jobs.JobProposalExpiry, "", func(ctx context.Context) (any, error) {
					return app.Proposals.ExpireProposals(ctx, time.Now())
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	})
	return proposalsCmd
}
