// Package main plan commands: refresh and inspect plan batches.
package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joss/cellpilot/internal/domain"
	"github.com/joss/cellpilot/internal/suggest"
)

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan batch management",
		Long:  "Build and inspect the short-horizon plan batch for the cell",
	}

	var jobsPerMachine int
	var machines []string
	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Build a fresh plan batch",
		Long: `Build a fresh plan batch across the available machines.

Supersedes any still-planned rows of the previous batch.

Examples:
  cellpilot plan refresh
  cellpilot plan refresh --jobs-per-machine 3 --machines DMC1,DMC2`,
		Run: func(cmd *cobra.Command, args []string) {
			if jobsPerMachine == 0 {
				jobsPerMachine = profile.JobsPerMachine
			}
			res, err := plannerSvc.RefreshPlan(cmd.Context(), jobsPerMachine, machines)
			if err != nil {
				if errors.Is(err, domain.ErrNoWorkAvailable) || errors.Is(err, domain.ErrNoEligiblePlanEntries) {
					fmt.Println("Nothing to plan:", err)
					return
				}
				exitOnError(err)
			}
			fmt.Print(out.RefreshResult(res))
		},
	}
	refreshCmd.Flags().IntVar(&jobsPerMachine, "jobs-per-machine", 0, "max candidates per machine (0 = profile default)")
	refreshCmd.Flags().StringSliceVar(&machines, "machines", nil, "machines to plan for (default: profile machines)")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the latest plan batch",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			batchID, err := db.LatestBatchID(ctx)
			if err != nil {
				exitOnError(err)
			}
			if batchID == "" {
				fmt.Println("No plan batch exists; run 'cellpilot plan refresh'")
				return
			}
			jobs, err := db.ListPlannedJobs(ctx, batchID)
			if err != nil {
				exitOnError(err)
			}
			fmt.Print(out.PlannedJobs(batchID, jobs))
		},
	}

	windowsCmd := &cobra.Command{
		Use:   "windows",
		Short: "Show configured shift windows",
		Run: func(cmd *cobra.Command, args []string) {
			windows, err := db.ListShiftWindows(cmd.Context())
			if err != nil {
				exitOnError(err)
			}
			active := suggest.ActiveWindow(windows, time.Now())
			fmt.Print(out.ShiftWindows(windows, active.Name))
		},
	}

	cmd.AddCommand(refreshCmd, showCmd, windowsCmd)
	return cmd
}
