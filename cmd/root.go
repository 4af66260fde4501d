// Package cmd is the stocksim command line.
package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stocksim/config"
	"stocksim/logger"
)

func init() {
	RootCmd.AddCommand(ServeCmd, MigrateCmd)
}

var RootCmd = &cobra.Command{
	Use:           "stocksim",
	Short:         "Simulated stock trading with virtual cash",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// Execute runs the command named on the command line, serve by default.
func Execute() error {
	return RootCmd.Execute()
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)
	return cfg, log, nil
}
