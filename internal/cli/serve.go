package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rumah-finder/internal/logging"
	"github.com/evcraddock/rumah-finder/internal/session"
	"github.com/evcraddock/rumah-finder/internal/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON backend",
		Long:  "Start the HTTP JSON backend the web front end calls for search, suggestions, recent searches and geocoding.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")

	return cmd
}

func runServe(ctx context.Context, port int) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	closeLog, err := logging.Setup(logging.Options{
		DevMode:    cfg.DevMode || flagVerbose,
		FluentHost: cfg.FluentHost,
		FluentPort: cfg.FluentPort,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := closeLog(); err != nil {
			fmt.Printf("warning: closing log forwarder: %v\n", err)
		}
	}()
	logger := slog.Default()

	sess, err := session.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSession(sess)

	srv := web.NewServer(sess, cfg.CORSOrigins, logger).HTTPServer(port)

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "api", cfg.APIURL, "session", sess.ID)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
