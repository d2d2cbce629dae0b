package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dispatchopt/app"
	"github.com/kilianp07/dispatchopt/config"
	"github.com/kilianp07/dispatchopt/core/dispatch"
)

var (
	storageRegime string
	storageMethod string
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Optimize the storage asset over the configured horizon",
	RunE:  runStorage,
}

func init() {
	storageCmd.Flags().StringVar(&storageRegime, "regime", "", "lossless or efficiency (default from config)")
	storageCmd.Flags().StringVar(&storageMethod, "method", "", "slack-lp or nelder-mead for the efficiency regime")
	rootCmd.AddCommand(storageCmd)
}

func runStorage(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := app.StorageOptions{
		Regime: dispatch.Regime(storageRegime),
		Method: dispatch.Method(storageMethod),
	}
	return withService(func(_ *config.Config, svc *app.Service) error {
		_, err := svc.RunStorage(ctx, opts, cmd.OutOrStdout())
		return err
	})
}
