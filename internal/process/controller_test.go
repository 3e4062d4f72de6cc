package process

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildArgs(t *testing.T) {
	c := New("/srv/ark/server/bin/ArkAscendedServer.exe", "/srv/ark/server")

	args, err := c.BuildArgs(DefaultLaunchOptions())
	if err != nil {
		t.Fatalf("BuildArgs: %v", err)
	}
	if args[0] != "TheIsland_WP?listen" {
		t.Errorf("map argument = %q", args[0])
	}
	joined := strings.Join(args, " ")
	for _, want := range []string{"-Port=7777", "-QueryPort=27015", "-MaxPlayers=10", "-server", "-log"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %v missing %q", args, want)
		}
	}
}

func TestBuildArgsSanitizesMap(t *testing.T) {
	c := New("/x", "/x")

	args, err := c.BuildArgs(LaunchOptions{Map: "TheIsland_WP;rm -rf /", GamePort: 7777, QueryPort: 27015, MaxPlayers: 10})
	if err != nil {
		t.Fatalf("BuildArgs: %v", err)
	}
	if strings.ContainsAny(args[0], ";&|") {
		t.Errorf("map argument %q not sanitized", args[0])
	}

	if _, err := c.BuildArgs(LaunchOptions{Map: "TheIsland_WP", GamePort: 80, QueryPort: 27015}); err == nil {
		t.Error("privileged game port accepted")
	}
	if _, err := c.BuildArgs(LaunchOptions{Map: ";;;", GamePort: 7777, QueryPort: 27015}); err == nil {
		t.Error("map name that sanitizes to nothing accepted")
	}
}

func TestLifecycleWithoutProcess(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "missing.exe"), t.TempDir())

	if c.Installed() {
		t.Error("Installed() true for missing binary")
	}
	if c.Running() {
		t.Error("Running() true before start")
	}
	if c.PID() != 0 {
		t.Errorf("PID() = %d, want 0", c.PID())
	}
	if c.Uptime() != 0 {
		t.Errorf("Uptime() = %v, want 0", c.Uptime())
	}
	if err := c.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() = %v, want ErrNotRunning", err)
	}
	if err := c.Start(DefaultLaunchOptions()); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("Start() = %v, want ErrNotInstalled", err)
	}
}
