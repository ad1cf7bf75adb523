// Package main operator control commands: refusals and machine
// availability.
package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joss/cellpilot/internal/domain"
)

func refuseCmd() *cobra.Command {
	var decisionID, reason string
	cmd := &cobra.Command{
		Use:   "refuse <job-id>",
		Short: "Refuse a planned job for the configured TTL",
		Long: `Record a time-bounded veto of a planned job. The job is marked
skipped and stays excluded from suggestions until the TTL expires.

Examples:
  cellpilot refuse 6f1c... --reason "fixture busy"`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			rec, err := controlSvc.RefuseJob(cmd.Context(), args[0], decisionID, reason)
			if err != nil {
				if errors.Is(err, domain.ErrJobNotFound) {
					fmt.Println("Unknown job:", args[0])
					return
				}
				exitOnError(err)
			}
			fmt.Printf("REFUSED: %s / %s %s until %s\n",
				rec.WorkOrder, rec.PartID, rec.OperationID,
				rec.IgnoreUntil.Local().Format(time.RFC822))
		},
	}
	cmd.Flags().StringVar(&decisionID, "decision", "", "decision that suggested the job")
	cmd.Flags().StringVar(&reason, "reason", "", "operator reason")
	return cmd
}

func machineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "machine",
		Short: "Machine availability",
	}

	var down bool
	var statusText, reason string
	setCmd := &cobra.Command{
		Use:   "set <machine-id>",
		Short: "Set a machine's availability",
		Long: `Examples:
  cellpilot machine set DMC1 --status "in production"
  cellpilot machine set DMC2 --down --reason "spindle maintenance"`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			statuses, err := controlSvc.SetMachineStatus(cmd.Context(), args[0], !down, statusText, reason)
			if err != nil {
				exitOnError(err)
			}
			fmt.Print(out.MachineStatuses(statuses))
		},
	}
	setCmd.Flags().BoolVar(&down, "down", false, "mark the machine unavailable")
	setCmd.Flags().StringVar(&statusText, "status", "", "free-form status text")
	setCmd.Flags().StringVar(&reason, "reason", "", "reason for the change")

	listCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the machine availability map",
		Run: func(cmd *cobra.Command, args []string) {
			statuses, err := db.ListMachineStatus(cmd.Context())
			if err != nil {
				exitOnError(err)
			}
			fmt.Print(out.MachineStatuses(statuses))
		},
	}

	cmd.AddCommand(setCmd, listCmd)
	return cmd
}
