package cmd

import (
	"os"

	"github.com/austin-smith/fusion-bridge/pkg/clierr"
	"github.com/austin-smith/fusion-bridge/server"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const defaultListenAddr = ":8080"

// serveCmd starts the REST API server.
func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  "Start the HTTP server exposing connectors, devices, and events under /api",
		RunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env file is fine; environment variables still apply.
			_ = godotenv.Load()

			if addr == "" {
				addr = os.Getenv("FUSION_ADDR")
			}
			if addr == "" {
				addr = defaultListenAddr
			}

			router := server.NewRouter(buildService())
			log.Info().Str("addr", addr).Msg("Starting API server")
			if err := router.Run(addr); err != nil {
				return clierr.New(clierr.Internal, "The API server stopped with an error.", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (defaults to FUSION_ADDR or "+defaultListenAddr+")")

	return cmd
}
