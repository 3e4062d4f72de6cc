package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/asa-tools/arkmgr/internal/process"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install or update the dedicated server via SteamCMD",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd); err != nil {
			return err
		}
		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Hour)
		defer cancel()
		return m.steam.InstallOrUpdate(ctx, viper.GetBool("validate"))
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the server and wait for it to exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd); err != nil {
			return err
		}
		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		opts := m.launchOptions()
		if err := m.proc.Start(opts); err != nil {
			return err
		}
		fmt.Printf("server started on map %s, pid %d\n", opts.Map, m.proc.PID())
		fmt.Println("press Ctrl+C to stop")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		if err := m.proc.Stop(); err != nil && !errors.Is(err, process.ErrNotRunning) {
			return err
		}
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running server",
	Long:  "Stops a server started by this process, or saves the world and exits over RCON otherwise.",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.stopServer(); err != nil {
			if errors.Is(err, process.ErrNotRunning) {
				return errors.New("server is not running (or RCON is unreachable)")
			}
			return err
		}
		fmt.Println("server stopped")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installation and runtime status",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		printStatus(m)
		return nil
	},
}

func init() {
	installCmd.Flags().Bool("validate", false, "verify all server files after download")
}

func printStatus(m *manager) {
	fmt.Printf("base directory:   %s\n", m.cfg.BaseDir)
	fmt.Printf("server installed: %v\n", m.steam.ServerInstalled())

	if name := m.settings.ServerName(); name != "" {
		fmt.Printf("server name:      %s\n", name)
	}
	if mods, err := m.settings.ActiveMods(); err == nil && len(mods) > 0 {
		fmt.Printf("active mods:      %s\n", strings.Join(mods, ", "))
	}

	if m.proc.Running() {
		fmt.Printf("running:          yes (pid %d, up %s)\n", m.proc.PID(), m.proc.Uptime().Round(time.Second))
		return
	}

	// A server launched by another manager instance still answers RCON.
	if out, err := m.execRCON("ListPlayers"); err == nil {
		fmt.Println("running:          yes (via RCON)")
		fmt.Println(out)
		return
	}
	fmt.Println("running:          no")
}
