package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"folio/internal/logger"
	"folio/internal/routes"
	"folio/internal/server"
)

const (
	shutdownTimeout = 10 * time.Second
	cleanupInterval = 5 * time.Minute
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Start the HTTP API, the WebSocket change feed and the background session
cleanup. The server stops gracefully on SIGINT or SIGTERM.`,
	Example: `  # Listen on the configured port
  folio serve

  # Listen on port 8080 with a separate database
  folio serve --port 8080 --db /var/lib/folio/folio.db`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	if servePort != 0 {
		cfg.Port = servePort
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	app := server.NewApp(cfg, db, nil)
	defer app.Hub.Close()
	if !cfg.SMTP.Enabled() {
		log.Warn().Msg("SMTP_HOST not set, document email is disabled")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           routes.New(app, server.NewRateLimiter()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := app.Auth.CleanupSessions(ctx)
				if err != nil {
					log.Error().Err(err).Msg("Session cleanup failed")
					continue
				}
				if n > 0 {
					log.Debug().Int64("removed", n).Msg("Expired sessions removed")
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("db", cfg.DBPath).
			Msg("Folio server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
