package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evcraddock/rumah-finder/internal/config"
)

func TestConfigSaveAndLoad(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	fc := FileConfig{
		APIURL:   "http://myhost:9090/api",
		APIToken: "tok_testtoken123",
	}

	if err := saveFileConfig(fc); err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(tmp, ".config", "rf", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not found: %v", err)
	}

	loaded, err := loadFileConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != fc {
		t.Errorf("loaded = %+v, want %+v", loaded, fc)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	fc, err := loadFileConfig()
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if fc != (FileConfig{}) {
		t.Error("expected zero-value config for missing file")
	}
}

func TestConfigLoadInvalid(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	dir := filepath.Join(tmp, ".config", "rf")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api_url: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := loadFileConfig(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFileConfigApplyPrecedence(t *testing.T) {
	t.Setenv("RF_API_URL", "http://from-env/api")
	t.Setenv("RF_GEOCODER_URL", "")

	cfg := config.Config{APIURL: "http://from-env/api", GeocoderURL: "http://default/search"}
	FileConfig{
		APIURL:      "http://from-file/api",
		GeocoderURL: "http://from-file/search",
	}.apply(&cfg)

	if cfg.APIURL != "http://from-env/api" {
		t.Errorf("api_url = %q, env should win", cfg.APIURL)
	}
	if cfg.GeocoderURL != "http://from-file/search" {
		t.Errorf("geocoder_url = %q, file should beat default", cfg.GeocoderURL)
	}
}

func TestLoadSettingsUsesFileAndDBFlag(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("RF_API_URL", "")
	t.Setenv("RF_DB_PATH", "")

	if err := saveFileConfig(FileConfig{APIURL: "http://saved/api", DBPath: "/tmp/saved.db"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	flagDB = filepath.Join(tmp, "flag.db")
	t.Cleanup(func() { flagDB = "" })

	cfg, err := loadSettings()
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if cfg.APIURL != "http://saved/api" {
		t.Errorf("api_url = %q", cfg.APIURL)
	}
	if cfg.DBPath != flagDB {
		t.Errorf("db_path = %q, --db should win", cfg.DBPath)
	}
}

func TestConfigSetCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RF_GEOCODER_URL", "")

	out, err := executeCommand("config", "set", "geocoder_url", "http://geo.local/search")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !strings.Contains(out, "Saved geocoder_url") {
		t.Errorf("output = %q", out)
	}

	fc, err := loadFileConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.GeocoderURL != "http://geo.local/search" {
		t.Errorf("geocoder_url = %q", fc.GeocoderURL)
	}

	if _, err := executeCommand("config", "unset", "geocoder_url"); err != nil {
		t.Fatalf("unset: %v", err)
	}
	if fc, _ = loadFileConfig(); fc.GeocoderURL != "" {
		t.Errorf("geocoder_url = %q after unset", fc.GeocoderURL)
	}
}

func TestConfigSetUnknownKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := executeCommand("config", "set", "color", "blue")
	if err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Fatalf("err = %v, want unknown config key", err)
	}
}

func TestConfigShowMasksToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RF_API_TOKEN", "secret-token-value")

	out, err := executeCommand("config", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if strings.Contains(out, "secret-token-value") {
		t.Error("token printed in clear")
	}
	if !strings.Contains(out, "secr****") {
		t.Errorf("output = %q", out)
	}
}
