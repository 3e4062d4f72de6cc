package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/asa-tools/arkmgr/internal/validate"
)

// Config holds everything the manager needs to find and run one
// ARK: Survival Ascended server installation.
type Config struct {
	BaseDir      string
	ListenAddr   string
	DatabasePath string
	BackupDir    string

	RCONHost     string
	RCONPort     int
	RCONPassword string

	Map        string
	GamePort   int
	QueryPort  int
	MaxPlayers int

	DefaultUser string
	DefaultPass string
}

// SetDefaults registers defaults and environment bindings. Every key is
// overridable via ARKMGR_* environment variables, e.g. ARKMGR_BASE_DIR.
func SetDefaults() {
	viper.SetEnvPrefix("arkmgr")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("base-dir", "./ark")
	viper.SetDefault("listen", ":8080")
	viper.SetDefault("rcon-host", "127.0.0.1")
	viper.SetDefault("rcon-port", 27020)
	viper.SetDefault("rcon-password", "")
	viper.SetDefault("map", "TheIsland_WP")
	viper.SetDefault("game-port", 7777)
	viper.SetDefault("query-port", 27015)
	viper.SetDefault("max-players", 10)
	viper.SetDefault("default-user", "admin")
	viper.SetDefault("default-pass", "admin")
}

// Load resolves the configuration and creates the base directory tree.
func Load() (*Config, error) {
	SetDefaults()

	baseDir, err := validate.BaseDir(viper.GetString("base-dir"))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(baseDir, "backups"), 0755); err != nil {
		return nil, err
	}

	return &Config{
		BaseDir:      baseDir,
		ListenAddr:   viper.GetString("listen"),
		DatabasePath: filepath.Join(baseDir, "arkmgr.db"),
		BackupDir:    filepath.Join(baseDir, "backups"),
		RCONHost:     viper.GetString("rcon-host"),
		RCONPort:     viper.GetInt("rcon-port"),
		RCONPassword: viper.GetString("rcon-password"),
		Map:          viper.GetString("map"),
		GamePort:     viper.GetInt("game-port"),
		QueryPort:    viper.GetInt("query-port"),
		MaxPlayers:   viper.GetInt("max-players"),
		DefaultUser:  viper.GetString("default-user"),
		DefaultPass:  viper.GetString("default-pass"),
	}, nil
}
