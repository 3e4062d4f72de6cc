package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/asa-tools/arkmgr/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "arkmgr",
	Short: "ARK: Survival Ascended dedicated server manager",
	Long: `arkmgr installs, configures, runs and backs up an ARK: Survival
Ascended dedicated server, and talks to it over RCON.

Run without arguments for the interactive menu, or use the
subcommands for scripting. "arkmgr serve" starts the web API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMenu()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("base-dir", "./ark", "base directory for steamcmd, server files and backups")
	rootCmd.PersistentFlags().String("rcon-host", "127.0.0.1", "RCON host")
	rootCmd.PersistentFlags().Int("rcon-port", 27020, "RCON port")
	rootCmd.PersistentFlags().String("rcon-password", "", "RCON password (defaults to the configured admin password)")
	viper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(rconCmd)
	rootCmd.AddCommand(logsCmd)
}

// bindFlags merges a command's own flags into viper so ARKMGR_* env
// variables and flags resolve through one lookup.
func bindFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	config.SetDefaults()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
