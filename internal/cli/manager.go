package cli

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/asa-tools/arkmgr/internal/backup"
	"github.com/asa-tools/arkmgr/internal/config"
	"github.com/asa-tools/arkmgr/internal/db"
	"github.com/asa-tools/arkmgr/internal/logview"
	"github.com/asa-tools/arkmgr/internal/process"
	"github.com/asa-tools/arkmgr/internal/rcon"
	"github.com/asa-tools/arkmgr/internal/settings"
	"github.com/asa-tools/arkmgr/internal/steamcmd"
)

// manager bundles the services every CLI command works against.
type manager struct {
	cfg      *config.Config
	db       *sql.DB
	steam    *steamcmd.Manager
	settings *settings.Store
	proc     *process.Controller
	backups  *backup.Service
	logs     *logview.Viewer
}

func newManager() (*manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	steam := steamcmd.New(cfg.BaseDir)
	return &manager{
		cfg:      cfg,
		db:       database,
		steam:    steam,
		settings: settings.NewStore(steam.ServerDir()),
		proc:     process.New(steam.ServerExePath(), steam.ServerDir()),
		backups:  backup.NewService(database, steam.ServerDir(), cfg.BackupDir),
		logs:     logview.New(steam.ServerDir()),
	}, nil
}

func (m *manager) Close() {
	if m.db != nil {
		m.db.Close()
	}
}

func (m *manager) launchOptions() process.LaunchOptions {
	return process.LaunchOptions{
		Map:        m.cfg.Map,
		GamePort:   m.cfg.GamePort,
		QueryPort:  m.cfg.QueryPort,
		MaxPlayers: m.cfg.MaxPlayers,
	}
}

// rconPassword resolves the admin password, preferring the one in
// GameUserSettings.ini over the environment.
func (m *manager) rconPassword() string {
	if p := m.settings.AdminPassword(); p != "" {
		return p
	}
	return m.cfg.RCONPassword
}

func (m *manager) rconPort() int {
	if p := m.settings.RCONPort(); p != 0 {
		return p
	}
	return m.cfg.RCONPort
}

// dialRCON opens an authenticated session against the running server.
func (m *manager) dialRCON(password string) (*rcon.Client, error) {
	if password == "" {
		password = m.rconPassword()
	}
	return rcon.Dial(m.cfg.RCONHost, m.rconPort(), password, rcon.Options{})
}

// execRCON runs one command over a fresh session.
func (m *manager) execRCON(command string) (string, error) {
	client, err := m.dialRCON("")
	if err != nil {
		return "", err
	}
	defer client.Close()
	return client.Execute(command)
}

// stopServer stops a locally launched process, or falls back to asking
// the server to save and exit over RCON when the process belongs to
// another manager instance.
func (m *manager) stopServer() error {
	err := m.proc.Stop()
	if err == nil {
		return nil
	}
	if !errors.Is(err, process.ErrNotRunning) {
		return err
	}

	client, dialErr := m.dialRCON("")
	if dialErr != nil {
		return process.ErrNotRunning
	}
	defer client.Close()
	client.Execute("SaveWorld")
	_, execErr := client.Execute("DoExit")
	return execErr
}
