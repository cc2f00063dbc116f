package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newConfigFromFile(t *testing.T, content string) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.cfg")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestLoadConfigParsesSections(t *testing.T) {
	cfg := newConfigFromFile(t, `
; comment
[Basic]
max_gosub_depth = 8
# another comment
[Network]
fetch_timeout = 3s
`)
	if got := cfg.settings["Basic"]["max_gosub_depth"]; got != "8" {
		t.Errorf("max_gosub_depth = %q", got)
	}
	if got := cfg.settings["Network"]["fetch_timeout"]; got != "3s" {
		t.Errorf("fetch_timeout = %q", got)
	}
}

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.cfg")
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.settings["Basic"]["max_gosub_depth"] != "64" {
		t.Error("default max_gosub_depth missing")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config not written: %v", err)
	}
}

func TestAccessorsFallBackToDefaults(t *testing.T) {
	// The global config may be nil in tests; accessors must still answer.
	if got := GetString("Nowhere", "key", "fallback"); got != "fallback" {
		t.Errorf("GetString = %q", got)
	}
	if got := GetInt("Nowhere", "key", 42); got != 42 {
		t.Errorf("GetInt = %d", got)
	}
	if got := GetBool("Nowhere", "key", true); !got {
		t.Error("GetBool = false")
	}
	if got := GetDuration("Nowhere", "key", time.Minute); got != time.Minute {
		t.Errorf("GetDuration = %v", got)
	}
}

func TestMergeFileOverrides(t *testing.T) {
	cfg := newConfigFromFile(t, "[Basic]\nmax_for_depth = 32\n")
	override := filepath.Join(t.TempDir(), "local.cfg")
	if err := os.WriteFile(override, []byte("[Basic]\nmax_for_depth = 4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := cfg.mergeFile(override); err != nil {
		t.Fatal(err)
	}
	if got := cfg.settings["Basic"]["max_for_depth"]; got != "4" {
		t.Errorf("max_for_depth = %q", got)
	}
}
