// Package main status command: one-glance cell overview.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joss/cellpilot/internal/config"
	"github.com/joss/cellpilot/internal/domain"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cell, store and batch status",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			fmt.Println("Cell:", config.Env().Cell)

			if err := db.Ping(ctx); err != nil {
				fmt.Println("Store: unavailable (in-memory fallback active)")
			} else {
				fmt.Println("Store: ok")
			}

			batchID, err := db.LatestBatchID(ctx)
			if err == nil && batchID != "" {
				jobs, _ := db.ListPlannedJobs(ctx, batchID)
				open := 0
				for _, job := range jobs {
					if job.Status == domain.JobPlanned {
						open++
					}
				}
				fmt.Printf("Batch: %s (%d jobs, %d open)\n", batchID, len(jobs), open)
			} else {
				fmt.Println("Batch: none")
			}

			statuses, err := db.ListMachineStatus(ctx)
			if err == nil {
				fmt.Print(out.MachineStatuses(statuses))
			}
		},
	}
}
