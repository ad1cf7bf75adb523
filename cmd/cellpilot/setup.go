// Package main setup-session commands: trace fixture changeovers.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joss/cellpilot/internal/config"
)

func setupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Fixture setup sessions",
		Long:  "Timestamp fixture changeover windows for traceability",
	}

	var palletID, fixtureCode, operator string
	startCmd := &cobra.Command{
		Use:   "start <machine-id>",
		Short: "Start a setup session",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if operator == "" {
				operator = config.Env().Operator
			}
			sess, err := controlSvc.StartSetupSession(cmd.Context(), args[0], palletID, fixtureCode, operator)
			if err != nil {
				exitOnError(err)
			}
			fmt.Printf("SETUP STARTED: %s on %s at %s\n",
				sess.SetupID, sess.MachineID, sess.StartedAt.Local().Format(time.RFC822))
		},
	}
	startCmd.Flags().StringVar(&palletID, "pallet", "", "pallet being set up")
	startCmd.Flags().StringVar(&fixtureCode, "fixture", "", "fixture being mounted")
	startCmd.Flags().StringVar(&operator, "operator", "", "operator performing the setup")

	endCmd := &cobra.Command{
		Use:   "end <setup-id>",
		Short: "End a setup session",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			completed, err := controlSvc.EndSetupSession(cmd.Context(), args[0])
			if err != nil {
				exitOnError(err)
			}
			if completed {
				fmt.Println("SETUP ENDED:", args[0])
			} else {
				fmt.Println("Not completed (unknown id or already ended):", args[0])
			}
		},
	}

	cmd.AddCommand(startCmd, endCmd)
	return cmd
}
