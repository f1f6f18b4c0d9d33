package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/previewhq/storyhost/config"
	storyhosthttp "github.com/previewhq/storyhost/http"
	"github.com/previewhq/storyhost/tokens"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the storyhost HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP server port (default: 5709)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	svc, cleanup, err := initService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var verifier storyhosthttp.RequestVerifier
	if cfg.Auth.Required {
		store, tokenErr := tokens.NewStore(cfg.Auth.Tokens)
		if tokenErr != nil {
			return fmt.Errorf("load tokens: %w", tokenErr)
		}
		verifier = storyhosthttp.NewBearerVerifier(store)
	} else {
		slog.Warn("operational API authentication disabled")
	}

	handlerConfig := storyhosthttp.HandlerConfig{
		Verifier: verifier,
		CORS:     cfg.CORS,
	}
	handler := storyhosthttp.NewHandler(&handlerConfig, svc)

	var root http.Handler = handler.Router()
	if cfg.Server.MaxUploadSize > 0 {
		root = limitUploads(root, cfg.Server.MaxUploadSize)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// limitUploads caps request body sizes. Only archive uploads carry bodies
// of any size, so the cap applies uniformly.
func limitUploads(next http.Handler, maxBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		next.ServeHTTP(w, r)
	})
}
