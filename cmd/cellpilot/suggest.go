// Package main suggestion commands: dispatch the next job, review
// decisions.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joss/cellpilot/internal/domain"
)

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Job suggestions",
		Long:  "Score the open plan candidates and dispatch the best one",
	}

	var alternatives int
	var details bool
	nextCmd := &cobra.Command{
		Use:   "next",
		Short: "Dispatch the next best job",
		Long: `Score every still-open candidate of the latest batch against live
tool and pallet state, persist the decision and print the operator
action plan.

Examples:
  cellpilot suggest next
  cellpilot suggest next --alternatives 3 --details`,
		Run: func(cmd *cobra.Command, args []string) {
			sug, err := suggestSvc.NextSuggestion(cmd.Context(), alternatives, details)
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrNoPlanBatch),
					errors.Is(err, domain.ErrNoPlannedJobsRemaining):
					fmt.Println("No candidates:", err)
					fmt.Println("Run 'cellpilot plan refresh' to build a new batch")
					return
				case errors.Is(err, domain.ErrAllJobsIgnored):
					fmt.Println("All remaining jobs are refused; wait for the TTL or re-plan")
					return
				}
				exitOnError(err)
			}
			fmt.Print(out.Suggestion(sug))
		},
	}
	nextCmd.Flags().IntVar(&alternatives, "alternatives", 2, "next-best candidates to include")
	nextCmd.Flags().BoolVar(&details, "details", false, "include fixture and missing-tool details")

	var limit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent dispatch decisions",
		Run: func(cmd *cobra.Command, args []string) {
			decisions, err := db.ListDecisions(cmd.Context(), limit)
			if err != nil {
				exitOnError(err)
			}
			fmt.Print(out.Decisions(decisions))
		},
	}
	historyCmd.Flags().IntVar(&limit, "limit", 20, "decisions to show")

	cmd.AddCommand(nextCmd, historyCmd)
	return cmd
}
