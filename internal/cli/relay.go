package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"phone-trivia/internal/config"
	"phone-trivia/internal/logging"
	transport "phone-trivia/internal/transport/http"
)

// NewRelayCmd builds the CLI subcommand that runs the websocket relay.
func NewRelayCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Start the websocket relay that rooms controllers and clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelay(cmd.Context(), *configPath, *port)
		},
	}
}

func runRelay(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Pretty).With().Str("component", "relay").Logger()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	relay := transport.NewRelay(log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", relay.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting relay")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start relay")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down relay...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down relay...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
