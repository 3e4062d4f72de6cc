package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	base := filepath.Join(t.TempDir(), "ark")
	t.Setenv("ARKMGR_BASE_DIR", base)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.BaseDir != base {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, base)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.RCONPort != 27020 {
		t.Errorf("RCONPort = %d", cfg.RCONPort)
	}
	if cfg.Map != "TheIsland_WP" {
		t.Errorf("Map = %q", cfg.Map)
	}
	if cfg.DatabasePath != filepath.Join(base, "arkmgr.db") {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}

	// Load creates the backup directory.
	if info, err := os.Stat(cfg.BackupDir); err != nil || !info.IsDir() {
		t.Errorf("backup dir not created: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("ARKMGR_BASE_DIR", filepath.Join(t.TempDir(), "ark"))
	t.Setenv("ARKMGR_LISTEN", ":9090")
	t.Setenv("ARKMGR_RCON_PORT", "28020")
	t.Setenv("ARKMGR_MAP", "ScorchedEarth_WP")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.RCONPort != 28020 {
		t.Errorf("RCONPort = %d", cfg.RCONPort)
	}
	if cfg.Map != "ScorchedEarth_WP" {
		t.Errorf("Map = %q", cfg.Map)
	}
}
