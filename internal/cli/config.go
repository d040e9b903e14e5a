package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/rumah-finder/internal/config"
)

// FileConfig holds CLI settings persisted to disk.
type FileConfig struct {
	APIURL      string `yaml:"api_url,omitempty"`
	APIToken    string `yaml:"api_token,omitempty"`
	GeocoderURL string `yaml:"geocoder_url,omitempty"`
	DBPath      string `yaml:"db_path,omitempty"`
	RedisURL    string `yaml:"redis_url,omitempty"`
}

// fileKeys maps config keys to the environment variable that overrides them.
var fileKeys = map[string]string{
	"api_url":      "RF_API_URL",
	"api_token":    "RF_API_TOKEN",
	"geocoder_url": "RF_GEOCODER_URL",
	"db_path":      "RF_DB_PATH",
	"redis_url":    "RF_REDIS_URL",
}

func (f *FileConfig) field(key string) (*string, error) {
	switch key {
	case "api_url":
		return &f.APIURL, nil
	case "api_token":
		return &f.APIToken, nil
	case "geocoder_url":
		return &f.GeocoderURL, nil
	case "db_path":
		return &f.DBPath, nil
	case "redis_url":
		return &f.RedisURL, nil
	}
	return nil, fmt.Errorf("unknown config key %q (valid: %s)", key, validKeys())
}

func validKeys() string {
	keys := make([]string, 0, len(fileKeys))
	for k := range fileKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprint(keys)
}

// apply copies file settings into cfg unless the environment already set them.
func (f FileConfig) apply(cfg *config.Config) {
	set := func(dst *string, val, env string) {
		if val != "" && os.Getenv(env) == "" {
			*dst = val
		}
	}
	set(&cfg.APIURL, f.APIURL, "RF_API_URL")
	set(&cfg.APIToken, f.APIToken, "RF_API_TOKEN")
	set(&cfg.GeocoderURL, f.GeocoderURL, "RF_GEOCODER_URL")
	set(&cfg.DBPath, f.DBPath, "RF_DB_PATH")
	set(&cfg.RedisURL, f.RedisURL, "RF_REDIS_URL")
}

// configPath returns the path to the CLI config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "rf", "config.yaml"), nil
}

// loadFileConfig reads the CLI config from disk.
// Returns a zero-value config if the file doesn't exist.
func loadFileConfig() (FileConfig, error) {
	path, err := configPath()
	if err != nil {
		return FileConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return FileConfig{}, nil
	}
	if err != nil {
		return FileConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("parsing config: %w", err)
	}

	return fc, nil
}

// saveFileConfig writes the CLI config to disk.
func saveFileConfig(fc FileConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change saved settings",
		Long:  "Show or change settings saved in ~/.config/rf/config.yaml. RF_* environment variables take precedence over saved values.",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigShow(cmd)
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Save a setting",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigSet(cmd, args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "unset <key>",
			Short: "Remove a saved setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigSet(cmd, args[0], "")
			},
		},
	)

	return cmd
}

func runConfigShow(cmd *cobra.Command) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	path, err := configPath()
	if err != nil {
		return err
	}

	token := ""
	if cfg.APIToken != "" {
		token = maskSecret(cfg.APIToken)
	}
	view := map[string]interface{}{
		"config_file":  path,
		"api_url":      cfg.APIURL,
		"api_token":    token,
		"geocoder_url": cfg.GeocoderURL,
		"db_path":      cfg.DBPath,
		"redis_url":    cfg.RedisURL,
		"per_page":     cfg.PerPage,
		"dev_mode":     cfg.DevMode,
	}
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), view)
	}
	return printKeyValues(cmd.OutOrStdout(), view)
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	fc, err := loadFileConfig()
	if err != nil {
		return err
	}
	dst, err := fc.field(key)
	if err != nil {
		return err
	}
	*dst = value
	if err := saveFileConfig(fc); err != nil {
		return err
	}

	if value == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s.\n", key)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s.\n", key)
	if env := fileKeys[key]; os.Getenv(env) != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Note: %s is set and overrides the saved value.\n", env)
	}
	return nil
}

// maskSecret shows only the first four characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
