// Package steamcmd drives the external SteamCMD tool to install and
// update the ARK dedicated server files.
package steamcmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// AppID is the Steam application ID of the ARK: Survival Ascended
// dedicated server.
const AppID = "2430930"

var ErrNotInstalled = errors.New("steamcmd: executable not found")

// Manager locates SteamCMD and the server install under one base
// directory: <base>/steamcmd for the tool, <base>/server for the game.
type Manager struct {
	baseDir string
}

func New(baseDir string) *Manager {
	return &Manager{baseDir: baseDir}
}

// ExePath returns the expected SteamCMD binary location.
func (m *Manager) ExePath() string {
	name := "steamcmd.sh"
	if runtime.GOOS == "windows" {
		name = "steamcmd.exe"
	}
	return filepath.Join(m.baseDir, "steamcmd", name)
}

// ServerDir returns the directory the server files are installed into.
func (m *Manager) ServerDir() string {
	return filepath.Join(m.baseDir, "server")
}

// ServerExePath returns the dedicated server binary location.
func (m *Manager) ServerExePath() string {
	return filepath.Join(m.ServerDir(), "ShooterGame", "Binaries", "Win64", "ArkAscendedServer.exe")
}

// Installed reports whether SteamCMD itself is present.
func (m *Manager) Installed() bool {
	_, err := os.Stat(m.ExePath())
	return err == nil
}

// ServerInstalled reports whether the server files are present.
func (m *Manager) ServerInstalled() bool {
	_, err := os.Stat(m.ServerExePath())
	return err == nil
}

// Args builds the SteamCMD argument vector for an install or update run.
// With validate set, SteamCMD re-checks every installed file against the
// depot manifest.
func (m *Manager) Args(validate bool) []string {
	args := []string{
		"+force_install_dir", m.ServerDir(),
		"+login", "anonymous",
		"+app_update", AppID,
	}
	if validate {
		args = append(args, "validate")
	}
	return append(args, "+quit")
}

// InstallOrUpdate runs SteamCMD to bring the server files up to date.
// SteamCMD output goes straight to the manager's stdout/stderr so the
// operator can watch download progress.
func (m *Manager) InstallOrUpdate(ctx context.Context, validate bool) error {
	if !m.Installed() {
		return fmt.Errorf("%w: expected at %s (download from https://steamcdn-a.akamaihd.net/client/installer/steamcmd.zip)",
			ErrNotInstalled, m.ExePath())
	}

	if err := os.MkdirAll(m.ServerDir(), 0755); err != nil {
		return fmt.Errorf("steamcmd: create server dir: %w", err)
	}

	cmd := exec.CommandContext(ctx, m.ExePath(), m.Args(validate)...)
	cmd.Dir = filepath.Dir(m.ExePath())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	log.Printf("steamcmd: running %s", cmd.String())
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("steamcmd: app_update %s: %w", AppID, err)
	}

	if !m.ServerInstalled() {
		return fmt.Errorf("steamcmd: run finished but server binary missing at %s", m.ServerExePath())
	}
	return nil
}
