package main

import (
	"github.com/spf13/cobra"

	"practicehub/internal/app/server"
)

func newServeCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := server.New(cmd.Context(), state.cfg, state.logger)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Run(cmd.Context())
		},
	}
}
