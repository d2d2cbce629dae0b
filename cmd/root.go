package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dispatchopt/app"
	"github.com/kilianp07/dispatchopt/config"
	"github.com/kilianp07/dispatchopt/infra/logger"
)

var (
	cfgPath    string
	outFormat  string
	outPath    string
	newService = app.New
)

var rootCmd = &cobra.Command{
	Use:          "dispatchopt",
	Short:        "Time-coupled storage and fleet dispatch optimizer",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVarP(&outFormat, "format", "f", "", "output format: text, json, csv or html")
	rootCmd.PersistentFlags().StringVarP(&outPath, "output", "o", "", "write the schedule to this file instead of stdout")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig applies the persistent flags on top of the loaded file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if outFormat != "" {
		cfg.Output.Format = outFormat
	}
	if outPath != "" {
		cfg.Output.Path = outPath
	}
	if err := cfg.Output.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withService builds a service for one command and closes it afterwards.
func withService(run func(*config.Config, *app.Service) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return run(cfg, svc)
}
