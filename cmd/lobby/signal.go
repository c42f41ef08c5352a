package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	router "github.com/dkeye/Lobby/internal/adapters/http"
	"github.com/dkeye/Lobby/internal/app"
	"github.com/dkeye/Lobby/internal/config"
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Run the signaling server",
	Long: `Run the rendezvous server. Hosts register their room code here, joiners
find them through it, and WebRTC offers and answers are relayed over it.
Room traffic itself never passes through the server.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSignal(cmd.Context(), cfg)
	},
}

func newSignalServer(ctx context.Context, cfg *config.Config) *http.Server {
	limiter := app.NewRateLimiter(cfg.RegisterLimit, cfg.RegisterInterval, clockwork.NewRealClock())
	orch := app.NewOrchestrator(app.SimplePolicy{}, limiter)
	r := router.SetupRouter(ctx, cfg, orch)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: h2c.NewHandler(c.Handler(r), &http2.Server{}),
	}
}

func runSignal(ctx context.Context, cfg *config.Config) error {
	srv := newSignalServer(ctx, cfg)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Lobby signaling server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
