// Package cli defines the cobra command tree for rumah-finder.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/evcraddock/rumah-finder/internal/config"
	"github.com/evcraddock/rumah-finder/internal/session"
)

var (
	flagFormat  string
	flagDB      string
	flagEnvFile string
	flagVerbose bool
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rf",
		Short:         "Search property listings across Indonesia",
		Long:          "A tool to search property listings by keyword, location and filters, browse suggestions, and geocode listing addresses. Run 'rf serve' for the JSON backend used by the web front end.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.rumah-finder/rumah.db)")
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "load settings from this .env file (default: ./.env if present)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newSearchCmd(),
		newSuggestCmd(),
		newRecentCmd(),
		newGeocodeCmd(),
		newServeCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

// loadSettings builds the runtime config. RF_* variables and the .env file
// win over ~/.config/rf/config.yaml, which wins over the defaults.
func loadSettings() (config.Config, error) {
	var files []string
	if flagEnvFile != "" {
		files = append(files, flagEnvFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return config.Config{}, err
	}

	fc, err := loadFileConfig()
	if err != nil {
		return config.Config{}, err
	}
	fc.apply(&cfg)

	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	return cfg, nil
}

// cliLogger logs warnings to stderr, or everything with --verbose.
func cliLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{Level: level, NoColor: true}))
}

// openSession loads settings and opens a session for a one-shot command.
func openSession(ctx context.Context, cmd *cobra.Command) (*session.Session, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, err
	}
	return session.Open(ctx, cfg, cliLogger(cmd.ErrOrStderr()))
}

// closeSession closes the session, logging any error to stderr.
func closeSession(sess *session.Session) {
	if err := sess.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing session: %v\n", err)
	}
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}
