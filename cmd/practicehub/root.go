package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"practicehub/internal/app/server"
	"practicehub/internal/platform/config"
	"practicehub/internal/platform/logging"
)

type cliState struct {
	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	state := &cliState{}
	var configFile string

	root := &cobra.Command{
		Use:           "practicehub",
		Short:         "Leave and TOIL balance engine",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
					return err
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := logging.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)
			state.cfg = cfg
			state.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if state.logger != nil {
				_ = state.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file (overrides CONFIG_FILE)")

	root.AddCommand(
		newServeCmd(state),
		newMigrateCmd(state),
		newCarryoverCmd(state),
		newToilCmd(state),
		newProposalsCmd(state),
	)
	return root
}

// withApp builds the application for one-off commands and closes it after fn.
func (s *cliState) withApp(ctx context.Context, fn func(app *server.App) error) error {
	app, err := server.New(ctx, s.cfg, s.logger)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
