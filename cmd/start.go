package cmd

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coursecast/coursecast/config"
	"github.com/coursecast/coursecast/server"
	"github.com/coursecast/coursecast/store"
	"github.com/coursecast/coursecast/youtube"
)

const logFormatConsole = "console"

var logLevel string

func getStartCmd() *cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the coursecast API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			logLvl, err := zerolog.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(logLvl)
			if cfg.LogFormat == logFormatConsole {
				log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			}

			if _, err := os.Stat(cfg.DataDir); os.IsNotExist(err) {
				if err := os.MkdirAll(cfg.DataDir, os.ModePerm); err != nil {
					return err
				}
			}

			ts, err := store.Open(cfg.DataDir + "/db")
			if err != nil {
				return err
			}
			defer ts.Close()

			ctx := cmd.Context()

			catalog, err := youtube.NewCatalog(ctx, cfg.APIKey)
			if err != nil {
				return err
			}
			if cfg.APIKey == "" {
				log.Warn().Msg("api_key missing; read-only endpoints will fail if required")
			}
			if err := cfg.ValidateUpload(); err != nil {
				log.Warn().Err(err).Msg("upload path not fully configured")
			}

			broker := youtube.NewBroker(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI, cfg.FallbackRefreshToken, ts)
			uploader := youtube.NewUploader(broker, ts)
			lifecycle := youtube.NewLifecycle(broker)

			// create HTTP router and mount routes
			router := mux.NewRouter()
			c := cors.New(cors.Options{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			})

			server.RegisterRoutes(router, catalog, broker, uploader, lifecycle, cfg.OwnerID)

			srv := &http.Server{
				Handler:           c.Handler(router),
				Addr:              cfg.ListenAddr,
				ReadHeaderTimeout: 15 * time.Second,
				// no read/write timeouts: an in-flight upload holds the
				// connection open for as long as the transfer takes
			}

			log.Info().Str("address", cfg.ListenAddr).Msg("starting API server...")
			return srv.ListenAndServe()
		},
	}

	startCmd.Flags().StringVar(&logLevel, "log-level", "", "logging level override")

	return startCmd
}
