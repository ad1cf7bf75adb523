// Package main provides the cellpilot CLI entrypoint.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joss/cellpilot/internal/config"
	"github.com/joss/cellpilot/internal/control"
	"github.com/joss/cellpilot/internal/logging"
	"github.com/joss/cellpilot/internal/planner"
	"github.com/joss/cellpilot/internal/provider"
	"github.com/joss/cellpilot/internal/render"
	"github.com/joss/cellpilot/internal/store"
	"github.com/joss/cellpilot/internal/suggest"
)

var (
	version = "0.1.0"
	pretty  = true

	profile    *config.Profile
	db         store.Store
	plannerSvc *planner.Service
	suggestSvc *suggest.Service
	controlSvc *control.Service
	out        *render.Renderer
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cellpilot",
		Short: "Manufacturing cell autopilot planner",
		Long: `cellpilot: short-horizon scheduler for a CNC manufacturing cell.

It decides which machine runs which work-order operation next, which
pallet and fixture to use, whether the required tools are present, and
produces a concrete operator action plan.

Typical flow:
  cellpilot plan refresh     Build a fresh plan batch
  cellpilot suggest next     Score candidates and dispatch the best job
  cellpilot refuse <job-id>  Veto a job for the configured TTL`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			pretty = term.IsTerminal(int(os.Stdout.Fd()))

			var err error
			profile, err = config.LoadProfile(config.Env().ProfilePath)
			if err != nil {
				return err
			}

			db = store.Open(config.Env().DataDir)
			if len(profile.ShiftWindows) > 0 {
				// Best effort: planning still works on unit weights.
				_ = db.ReplaceShiftWindows(cmd.Context(), profile.ShiftWindows)
			}

			wireServices()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if db != nil {
				db.Close()
			}
		},
	}

	rootCmd.AddCommand(
		planCmd(),
		suggestCmd(),
		refuseCmd(),
		machineCmd(),
		setupCmd(),
		statusCmd(),
		versionCmd(),
	)

	handler := logging.NewRecoveryHandler("cellpilot")
	if err := handler.WrapError(rootCmd.Execute); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// wireServices builds providers and services from the environment and
// the loaded profile.
func wireServices() {
	env := config.Env()

	var matrix provider.FixtureSource
	if env.FixtureBaseURL != "" {
		matrix = provider.NewHTTPFixtureSource(env.FixtureBaseURL)
	}
	fixtureSource := provider.FixtureSource(matrix)
	if len(profile.PalletCatalog) > 0 || matrix == nil {
		fixtureSource = &provider.CatalogOverrideSource{
			Matrix:  matrix,
			Pallets: catalogRows(profile.PalletCatalog),
		}
	}

	workOrders := provider.NewWorkOrderProvider(
		provider.NewHTTPWorkOrderSource(env.ERPBaseURL), profile.MachineFamilies)
	fixtures := provider.NewFixtureProvider(fixtureSource)
	tools := provider.NewToolingProvider(provider.NewHTTPToolSource(env.ToolBaseURL))
	materials := provider.NewMaterialProvider(provider.NewHTTPMaterialSource(env.ERPBaseURL))
	routes := provider.NewPalletRouteProvider(provider.NewHTTPRouteSource(env.RouteBaseURL))

	plannerSvc = planner.NewService(workOrders, fixtures, materials, routes, db, profile.Machines)
	suggestSvc = suggest.NewService(db, workOrders, fixtures, tools, routes)
	controlSvc = control.NewService(db, time.Duration(profile.IgnoreTTLHours*float64(time.Hour)))
	out = render.New(pretty)
}

func catalogRows(pallets []config.CatalogPallet) []provider.Row {
	rows := make([]provider.Row, 0, len(pallets))
	for _, p := range pallets {
		rows = append(rows, provider.Row{
			"pallet_id":    p.PalletID,
			"machine_id":   p.MachineID,
			"plaque_model": p.PlaqueModel,
			"fixture_code": p.FixtureCode,
		})
	}
	return rows
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cellpilot version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("cellpilot", version)
		},
	}
}
