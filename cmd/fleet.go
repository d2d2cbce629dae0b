package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dispatchopt/app"
	"github.com/kilianp07/dispatchopt/config"
)

var (
	loadWeight float64
	costWeight float64
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Dispatch the generation fleet for a single snapshot",
	RunE:  runFleet,
}

func init() {
	fleetCmd.Flags().Float64Var(&loadWeight, "load-weight", 0, "weight of the load term (overrides fleet.weights.load)")
	fleetCmd.Flags().Float64Var(&costWeight, "cost-weight", 0, "weight of the cost term (overrides fleet.weights.cost)")
	rootCmd.AddCommand(fleetCmd)
}

func runFleet(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withService(func(cfg *config.Config, svc *app.Service) error {
		var opts app.FleetOptions
		if cmd.Flags().Changed("load-weight") || cmd.Flags().Changed("cost-weight") {
			w := *cfg.Fleet.Weights
			if cmd.Flags().Changed("load-weight") {
				w.Load = loadWeight
			}
			if cmd.Flags().Changed("cost-weight") {
				w.Cost = costWeight
			}
			if err := w.Validate(); err != nil {
				return err
			}
			opts.Weights = &w
		}
		_, err := svc.RunFleet(ctx, opts, cmd.OutOrStdout())
		return err
	})
}
