package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/asa-tools/arkmgr/internal/backup"
	"github.com/asa-tools/arkmgr/internal/process"
	"github.com/asa-tools/arkmgr/internal/settings"
	"github.com/asa-tools/arkmgr/internal/validate"
)

// menu is the interactive console the manager presents when run
// without a subcommand.
type menu struct {
	m  *manager
	in *bufio.Scanner
}

func runMenu() error {
	m, err := newManager()
	if err != nil {
		return err
	}
	defer m.Close()

	u := &menu{m: m, in: bufio.NewScanner(os.Stdin)}

	fmt.Println("\nWelcome to arkmgr")
	fmt.Printf("Base directory: %s\n", m.cfg.BaseDir)

	for {
		u.show()
		switch u.prompt("\nSelect option: ") {
		case "1":
			u.installUpdate()
		case "2":
			u.configureServer()
		case "3":
			u.configureStats()
		case "4":
			u.manageMods()
		case "5":
			u.startServer()
		case "6":
			u.stopServer()
		case "7":
			printStatus(m)
		case "8":
			u.createBackup()
		case "9":
			u.rconConsole()
		case "10":
			u.viewLogs()
		case "0":
			u.shutdown()
			return nil
		default:
			fmt.Println("Invalid option")
		}
		u.prompt("\nPress Enter to continue...")
	}
}

func (u *menu) show() {
	line := strings.Repeat("=", 60)
	fmt.Println("\n" + line)
	fmt.Println("ARK: Survival Ascended Server Manager")
	fmt.Println(line)
	fmt.Println("1. Install/Update Server")
	fmt.Println("2. Configure Server Settings")
	fmt.Println("3. Configure Stat Multipliers")
	fmt.Println("4. Manage Mods")
	fmt.Println("5. Start Server")
	fmt.Println("6. Stop Server")
	fmt.Println("7. Server Status")
	fmt.Println("8. Create Backup")
	fmt.Println("9. RCON Console")
	fmt.Println("10. View Logs")
	fmt.Println("0. Exit")
	fmt.Println(line)
}

func (u *menu) prompt(label string) string {
	fmt.Print(label)
	if !u.in.Scan() {
		return ""
	}
	return strings.TrimSpace(u.in.Text())
}

func (u *menu) promptInt(label string, def int) int {
	s := u.prompt(label)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		fmt.Println("not a number, keeping", def)
		return def
	}
	return v
}

func (u *menu) promptFloat(label string, def float64) float64 {
	s := u.prompt(label)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		fmt.Println("not a number, keeping", def)
		return def
	}
	return v
}

func (u *menu) installUpdate() {
	fmt.Println("\n=== Install/Update Server ===")
	force := strings.EqualFold(u.prompt("Force validate? (y/n): "), "y")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()
	if err := u.m.steam.InstallOrUpdate(ctx, force); err != nil {
		fmt.Println("install failed:", err)
		return
	}
	fmt.Println("server installed")
}

func (u *menu) configureServer() {
	fmt.Println("\n=== Server Configuration ===")
	fmt.Println("Press Enter to keep the current value.")

	current, err := u.m.settings.ServerSettings()
	if err != nil {
		fmt.Println("failed to read settings:", err)
		return
	}

	var upd settings.ServerSettings

	currentName := u.m.settings.ServerName()
	if name := u.prompt(fmt.Sprintf("Server Name [%s]: ", currentName)); name != "" {
		name = validate.Sanitize(name, validate.MaxServerNameLength)
		upd.SessionName = &name
	}

	maxPlayers := u.promptInt(fmt.Sprintf("Max Players [%d]: ", orInt(current.MaxPlayers, 10)), orInt(current.MaxPlayers, 10))
	upd.MaxPlayers = &maxPlayers

	if pw := u.prompt("Server Password (optional, Enter to skip): "); pw != "" {
		pw = validate.Sanitize(pw, validate.MaxPasswordLength)
		upd.ServerPassword = &pw
	}

	for {
		label := "Admin Password [required]: "
		if current.AdminPassword != nil && *current.AdminPassword != "" {
			label = "Admin Password [unchanged]: "
		}
		pw := u.prompt(label)
		if pw == "" && current.AdminPassword != nil && *current.AdminPassword != "" {
			break
		}
		if validate.StrongPassword(pw) {
			pw = validate.Sanitize(pw, validate.MaxPasswordLength)
			upd.AdminPassword = &pw
			break
		}
		fmt.Printf("Password must be %d-%d characters\n", validate.MinPasswordLength, validate.MaxPasswordLength)
	}

	xp := u.promptFloat(fmt.Sprintf("XP Multiplier [%v]: ", orFloat(current.XPMultiplier, 1.0)), orFloat(current.XPMultiplier, 1.0))
	upd.XPMultiplier = &xp

	taming := u.promptFloat(fmt.Sprintf("Taming Speed [%v]: ", orFloat(current.TamingSpeed, 1.0)), orFloat(current.TamingSpeed, 1.0))
	upd.TamingSpeed = &taming

	harvest := u.promptFloat(fmt.Sprintf("Harvest Amount [%v]: ", orFloat(current.HarvestAmount, 1.0)), orFloat(current.HarvestAmount, 1.0))
	upd.HarvestAmount = &harvest

	difficulty := u.promptFloat(fmt.Sprintf("Difficulty Offset [%v]: ", orFloat(current.DifficultyOffset, 0.2)), orFloat(current.DifficultyOffset, 0.2))
	upd.DifficultyOffset = &difficulty

	pveDefault := "y"
	if current.PVE != nil && !*current.PVE {
		pveDefault = "n"
	}
	if in := strings.ToLower(u.prompt(fmt.Sprintf("PvE Mode? (y/n) [%s]: ", pveDefault))); in == "y" || in == "n" {
		pve := in == "y"
		upd.PVE = &pve
	}

	// RCON stays usable after reconfiguration.
	rconOn := true
	upd.RCONEnabled = &rconOn

	if err := u.m.settings.UpdateServerSettings(upd); err != nil {
		fmt.Println("failed to write settings:", err)
		return
	}
	fmt.Println("server settings updated")
}

func (u *menu) configureStats() {
	fmt.Println("\n=== Stat Multipliers ===")
	fmt.Println("Current values shown in brackets. Press Enter to keep them.")

	current, err := u.m.settings.GameSettings()
	if err != nil {
		fmt.Println("failed to read settings:", err)
		return
	}

	var upd settings.GameSettings

	fmt.Println("\n--- Player Stats ---")
	ph := u.promptFloat(fmt.Sprintf("Player Health per level [%v]: ", orFloat(current.PlayerHealth, 1.0)), orFloat(current.PlayerHealth, 1.0))
	upd.PlayerHealth = &ph
	ps := u.promptFloat(fmt.Sprintf("Player Stamina per level [%v]: ", orFloat(current.PlayerStamina, 1.0)), orFloat(current.PlayerStamina, 1.0))
	upd.PlayerStamina = &ps
	pw := u.promptFloat(fmt.Sprintf("Player Weight per level [%v]: ", orFloat(current.PlayerWeight, 1.0)), orFloat(current.PlayerWeight, 1.0))
	upd.PlayerWeight = &pw

	fmt.Println("\n--- Dino Stats ---")
	dh := u.promptFloat(fmt.Sprintf("Dino Health per level [%v]: ", orFloat(current.DinoHealth, 1.0)), orFloat(current.DinoHealth, 1.0))
	upd.DinoHealth = &dh
	ds := u.promptFloat(fmt.Sprintf("Dino Stamina per level [%v]: ", orFloat(current.DinoStamina, 1.0)), orFloat(current.DinoStamina, 1.0))
	upd.DinoStamina = &ds
	dw := u.promptFloat(fmt.Sprintf("Dino Weight per level [%v]: ", orFloat(current.DinoWeight, 1.0)), orFloat(current.DinoWeight, 1.0))
	upd.DinoWeight = &dw

	if err := u.m.settings.UpdateGameSettings(upd); err != nil {
		fmt.Println("failed to write settings:", err)
		return
	}
	fmt.Println("stat multipliers updated")
}

func (u *menu) manageMods() {
	fmt.Println("\n=== Mod Management ===")

	mods, err := u.m.settings.ActiveMods()
	if err != nil {
		fmt.Println("failed to read mod list:", err)
		return
	}
	if len(mods) > 0 {
		fmt.Println("Current mods:", strings.Join(mods, ", "))
	} else {
		fmt.Println("No mods currently active")
	}

	fmt.Println("\n1. Add/Replace mods")
	fmt.Println("2. Remove all mods")
	fmt.Println("3. Cancel")

	switch u.prompt("\nChoice: ") {
	case "1":
		fmt.Println("\nEnter mod IDs (comma-separated, CurseForge)")
		in := u.prompt("Mod IDs: ")
		if in == "" {
			return
		}
		ids := strings.Split(in, ",")
		if err := u.m.settings.SetMods(ids); err != nil {
			if errors.Is(err, settings.ErrNoValidMods) {
				fmt.Println("no valid mod IDs entered")
				return
			}
			fmt.Println("failed to write mod list:", err)
			return
		}
		fmt.Println("NOTE: server restart required for mod changes")
	case "2":
		if strings.EqualFold(u.prompt("Remove all mods? (y/n): "), "y") {
			if err := u.m.settings.ClearMods(); err != nil {
				fmt.Println("failed to clear mod list:", err)
				return
			}
			fmt.Println("NOTE: server restart required for mod changes")
		}
	default:
		fmt.Println("Cancelled")
	}
}

func (u *menu) startServer() {
	fmt.Println("\n=== Start Server ===")

	opts := u.m.launchOptions()
	if name := u.prompt(fmt.Sprintf("Map Name [%s]: ", opts.Map)); name != "" {
		opts.Map = name
	}
	opts.GamePort = u.promptInt(fmt.Sprintf("Game Port [%d]: ", opts.GamePort), opts.GamePort)
	opts.QueryPort = u.promptInt(fmt.Sprintf("Query Port [%d]: ", opts.QueryPort), opts.QueryPort)
	opts.MaxPlayers = u.promptInt(fmt.Sprintf("Max Players [%d]: ", opts.MaxPlayers), opts.MaxPlayers)

	if err := u.m.proc.Start(opts); err != nil {
		switch {
		case errors.Is(err, process.ErrAlreadyRunning):
			fmt.Println("server is already running")
		case errors.Is(err, process.ErrNotInstalled):
			fmt.Println("server is not installed, run Install/Update first")
		default:
			fmt.Println("failed to start server:", err)
		}
		return
	}
	fmt.Printf("server started, pid %d\n", u.m.proc.PID())
}

func (u *menu) stopServer() {
	if err := u.m.stopServer(); err != nil {
		if errors.Is(err, process.ErrNotRunning) {
			fmt.Println("server is not running")
			return
		}
		fmt.Println("failed to stop server:", err)
		return
	}
	fmt.Println("server stopped")
}

func (u *menu) createBackup() {
	b, err := u.m.backups.Create()
	if err != nil {
		if errors.Is(err, backup.ErrNothingToBackup) {
			fmt.Println("nothing to back up, the server has no saved data yet")
			return
		}
		fmt.Println("backup failed:", err)
		return
	}
	fmt.Printf("created backup %s (%d bytes)\n", b.Filename, b.SizeBytes)
}

func (u *menu) rconConsole() {
	fmt.Println("\n=== RCON Console ===")
	if err := rconConsole(u.m); err != nil {
		fmt.Println("rcon session ended:", err)
	}
}

func (u *menu) viewLogs() {
	name, err := u.m.logs.Newest()
	if err != nil {
		fmt.Println("no log files yet, start the server first")
		return
	}
	lines, err := u.m.logs.Tail(name, 50)
	if err != nil {
		fmt.Println("failed to read log:", err)
		return
	}
	fmt.Printf("\n=== %s (last %d lines) ===\n", name, len(lines))
	for _, line := range lines {
		fmt.Println(line)
	}
}

func (u *menu) shutdown() {
	fmt.Println("\nShutting down...")
	if u.m.proc.Running() {
		if err := u.m.proc.Stop(); err != nil {
			fmt.Println("failed to stop server:", err)
		}
	}
	fmt.Println("Goodbye!")
}

func orInt(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func orFloat(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}
