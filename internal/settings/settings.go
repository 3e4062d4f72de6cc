// Package settings maps operator-facing options onto the ARK server's two
// INI files, GameUserSettings.ini and Game.ini. Updates are partial: only
// fields that are set get written, and keys the manager does not know
// about are preserved as-is.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/asa-tools/arkmgr/internal/validate"
)

const (
	serverSection  = "ServerSettings"
	sessionSection = "SessionSettings"
	gameSection    = "/Script/ShooterGame.ShooterGameMode"
)

// DefaultRCONPort is the port ARK listens on when RCONPort is unset.
const DefaultRCONPort = 27020

var ErrNoValidMods = errors.New("settings: no valid mod IDs provided")

func init() {
	// ARK expects key=value with no whitespace around the delimiter.
	ini.PrettyFormat = false
}

// Store reads and writes the configuration files of one server install.
type Store struct {
	dir string
}

// NewStore returns a store rooted at the server install directory.
func NewStore(serverDir string) *Store {
	return &Store{dir: filepath.Join(serverDir, "ShooterGame", "Saved", "Config", "WindowsServer")}
}

func (s *Store) gusPath() string  { return filepath.Join(s.dir, "GameUserSettings.ini") }
func (s *Store) gamePath() string { return filepath.Join(s.dir, "Game.ini") }

func (s *Store) load(path string) (*ini.File, error) {
	f, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", filepath.Base(path), err)
	}
	return f, nil
}

func (s *Store) save(f *ini.File, path string) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("settings: create config dir: %w", err)
	}
	if err := f.SaveTo(path); err != nil {
		return fmt.Errorf("settings: write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ServerSettings carries the GameUserSettings.ini options the manager
// edits. Nil fields are left untouched on update and absent on read.
type ServerSettings struct {
	SessionName    *string `json:"session_name,omitempty"`
	MaxPlayers     *int    `json:"max_players,omitempty"`
	ServerPassword *string `json:"server_password,omitempty"`
	AdminPassword  *string `json:"admin_password,omitempty"`

	XPMultiplier     *float64 `json:"xp_multiplier,omitempty"`
	TamingSpeed      *float64 `json:"taming_speed,omitempty"`
	HarvestAmount    *float64 `json:"harvest_amount,omitempty"`
	DifficultyOffset *float64 `json:"difficulty_offset,omitempty"`

	PVE         *bool `json:"pve,omitempty"`
	RCONEnabled *bool `json:"rcon_enabled,omitempty"`
	RCONPort    *int  `json:"rcon_port,omitempty"`

	GlobalVoiceChat        *bool `json:"global_voice_chat,omitempty"`
	AlwaysNotifyPlayerLeft *bool `json:"always_notify_player_left,omitempty"`
	AllowFlyerCarryPvE     *bool `json:"allow_flyer_carry_pve,omitempty"`
	AllowCaveBuildingPvE   *bool `json:"allow_cave_building_pve,omitempty"`
	ShowFloatingDamageText *bool `json:"show_floating_damage_text,omitempty"`
	NoTributeDownloads     *bool `json:"no_tribute_downloads,omitempty"`
}

// UpdateServerSettings writes the non-nil fields of u into
// GameUserSettings.ini.
func (s *Store) UpdateServerSettings(u ServerSettings) error {
	f, err := s.load(s.gusPath())
	if err != nil {
		return err
	}

	srv := f.Section(serverSection)
	ses := f.Section(sessionSection)

	setString(ses, "SessionName", u.SessionName)
	setInt(ses, "MaxPlayers", u.MaxPlayers)

	setString(srv, "ServerPassword", u.ServerPassword)
	setString(srv, "ServerAdminPassword", u.AdminPassword)
	setFloat(srv, "XPMultiplier", u.XPMultiplier)
	setFloat(srv, "TamingSpeedMultiplier", u.TamingSpeed)
	setFloat(srv, "HarvestAmountMultiplier", u.HarvestAmount)
	setFloat(srv, "DifficultyOffset", u.DifficultyOffset)
	setBool(srv, "ServerPVE", u.PVE)
	setBool(srv, "RCONEnabled", u.RCONEnabled)
	setInt(srv, "RCONPort", u.RCONPort)
	setBool(srv, "globalVoiceChat", u.GlobalVoiceChat)
	setBool(srv, "AlwaysNotifyPlayerLeft", u.AlwaysNotifyPlayerLeft)
	setBool(srv, "AllowFlyerCarryPvE", u.AllowFlyerCarryPvE)
	setBool(srv, "AllowCaveBuildingPvE", u.AllowCaveBuildingPvE)
	setBool(srv, "ShowFloatingDamageText", u.ShowFloatingDamageText)
	setBool(srv, "noTributeDownloads", u.NoTributeDownloads)

	return s.save(f, s.gusPath())
}

// ServerSettings returns the options currently present in
// GameUserSettings.ini.
func (s *Store) ServerSettings() (ServerSettings, error) {
	var out ServerSettings
	f, err := s.load(s.gusPath())
	if err != nil {
		return out, err
	}

	srv := f.Section(serverSection)
	ses := f.Section(sessionSection)

	out.SessionName = getString(ses, "SessionName")
	out.MaxPlayers = getInt(ses, "MaxPlayers")

	out.ServerPassword = getString(srv, "ServerPassword")
	out.AdminPassword = getString(srv, "ServerAdminPassword")
	out.XPMultiplier = getFloat(srv, "XPMultiplier")
	out.TamingSpeed = getFloat(srv, "TamingSpeedMultiplier")
	out.HarvestAmount = getFloat(srv, "HarvestAmountMultiplier")
	out.DifficultyOffset = getFloat(srv, "DifficultyOffset")
	out.PVE = getBool(srv, "ServerPVE")
	out.RCONEnabled = getBool(srv, "RCONEnabled")
	out.RCONPort = getInt(srv, "RCONPort")
	out.GlobalVoiceChat = getBool(srv, "globalVoiceChat")
	out.AlwaysNotifyPlayerLeft = getBool(srv, "AlwaysNotifyPlayerLeft")
	out.AllowFlyerCarryPvE = getBool(srv, "AllowFlyerCarryPvE")
	out.AllowCaveBuildingPvE = getBool(srv, "AllowCaveBuildingPvE")
	out.ShowFloatingDamageText = getBool(srv, "ShowFloatingDamageText")
	out.NoTributeDownloads = getBool(srv, "noTributeDownloads")

	return out, nil
}

// ServerName returns the configured session name, or a fallback.
func (s *Store) ServerName() string {
	cur, err := s.ServerSettings()
	if err != nil || cur.SessionName == nil || *cur.SessionName == "" {
		return "ARK Server"
	}
	return *cur.SessionName
}

// AdminPassword returns the stored RCON admin password, or "".
func (s *Store) AdminPassword() string {
	cur, err := s.ServerSettings()
	if err != nil || cur.AdminPassword == nil {
		return ""
	}
	return *cur.AdminPassword
}

// RCONPort returns the configured RCON port, or DefaultRCONPort.
func (s *Store) RCONPort() int {
	cur, err := s.ServerSettings()
	if err != nil || cur.RCONPort == nil {
		return DefaultRCONPort
	}
	return *cur.RCONPort
}

// GameSettings carries the Game.ini multipliers and toggles under the
// ShooterGameMode section.
type GameSettings struct {
	PlayerHealth  *float64 `json:"player_health,omitempty"`
	PlayerStamina *float64 `json:"player_stamina,omitempty"`
	PlayerWeight  *float64 `json:"player_weight,omitempty"`

	DinoHealth  *float64 `json:"dino_health,omitempty"`
	DinoStamina *float64 `json:"dino_stamina,omitempty"`
	DinoWeight  *float64 `json:"dino_weight,omitempty"`

	BabyCuddleInterval  *float64 `json:"baby_cuddle_interval,omitempty"`
	BabyFoodConsumption *float64 `json:"baby_food_consumption,omitempty"`
	BabyImprintAmount   *float64 `json:"baby_imprint_amount,omitempty"`
	BabyMatureSpeed     *float64 `json:"baby_mature_speed,omitempty"`

	CraftXP   *float64 `json:"craft_xp,omitempty"`
	GenericXP *float64 `json:"generic_xp,omitempty"`
	HarvestXP *float64 `json:"harvest_xp,omitempty"`
	KillXP    *float64 `json:"kill_xp,omitempty"`

	EggHatchSpeed  *float64 `json:"egg_hatch_speed,omitempty"`
	LayEggInterval *float64 `json:"lay_egg_interval,omitempty"`
	MatingInterval *float64 `json:"mating_interval,omitempty"`
	MatingSpeed    *float64 `json:"mating_speed,omitempty"`

	SupplyCrateLootQuality *float64 `json:"supply_crate_loot_quality,omitempty"`

	AllowFlyerSpeedLeveling *bool `json:"allow_flyer_speed_leveling,omitempty"`
	AllowSpeedLeveling      *bool `json:"allow_speed_leveling,omitempty"`
	AutoUnlockEngrams       *bool `json:"auto_unlock_engrams,omitempty"`
	DisableFriendlyFire     *bool `json:"disable_friendly_fire,omitempty"`
}

// Player and tamed-dino per-level stat slots used by the manager.
// Slot 0 is health, 1 stamina, 5 weight.
var gameFloatKeys = []struct {
	key   string
	field func(*GameSettings) **float64
}{
	{"PerLevelStatsMultiplier_Player[0]", func(g *GameSettings) **float64 { return &g.PlayerHealth }},
	{"PerLevelStatsMultiplier_Player[1]", func(g *GameSettings) **float64 { return &g.PlayerStamina }},
	{"PerLevelStatsMultiplier_Player[5]", func(g *GameSettings) **float64 { return &g.PlayerWeight }},
	{"PerLevelStatsMultiplier_DinoTamed[0]", func(g *GameSettings) **float64 { return &g.DinoHealth }},
	{"PerLevelStatsMultiplier_DinoTamed[1]", func(g *GameSettings) **float64 { return &g.DinoStamina }},
	{"PerLevelStatsMultiplier_DinoTamed[5]", func(g *GameSettings) **float64 { return &g.DinoWeight }},
	{"BabyCuddleIntervalMultiplier", func(g *GameSettings) **float64 { return &g.BabyCuddleInterval }},
	{"BabyFoodConsumptionSpeedMultiplier", func(g *GameSettings) **float64 { return &g.BabyFoodConsumption }},
	{"BabyImprintAmountMultiplier", func(g *GameSettings) **float64 { return &g.BabyImprintAmount }},
	{"BabyMatureSpeedMultiplier", func(g *GameSettings) **float64 { return &g.BabyMatureSpeed }},
	{"CraftXPMultiplier", func(g *GameSettings) **float64 { return &g.CraftXP }},
	{"GenericXPMultiplier", func(g *GameSettings) **float64 { return &g.GenericXP }},
	{"HarvestXPMultiplier", func(g *GameSettings) **float64 { return &g.HarvestXP }},
	{"KillXPMultiplier", func(g *GameSettings) **float64 { return &g.KillXP }},
	{"EggHatchSpeedMultiplier", func(g *GameSettings) **float64 { return &g.EggHatchSpeed }},
	{"LayEggIntervalMultiplier", func(g *GameSettings) **float64 { return &g.LayEggInterval }},
	{"MatingIntervalMultiplier", func(g *GameSettings) **float64 { return &g.MatingInterval }},
	{"MatingSpeedMultiplier", func(g *GameSettings) **float64 { return &g.MatingSpeed }},
	{"SupplyCrateLootQualityMultiplier", func(g *GameSettings) **float64 { return &g.SupplyCrateLootQuality }},
}

var gameBoolKeys = []struct {
	key   string
	field func(*GameSettings) **bool
}{
	{"bAllowFlyerSpeedLeveling", func(g *GameSettings) **bool { return &g.AllowFlyerSpeedLeveling }},
	{"bAllowSpeedLeveling", func(g *GameSettings) **bool { return &g.AllowSpeedLeveling }},
	{"bAutoUnlockAllEngrams", func(g *GameSettings) **bool { return &g.AutoUnlockEngrams }},
	{"bDisableFriendlyFire", func(g *GameSettings) **bool { return &g.DisableFriendlyFire }},
}

// UpdateGameSettings writes the non-nil fields of u into Game.ini.
func (s *Store) UpdateGameSettings(u GameSettings) error {
	f, err := s.load(s.gamePath())
	if err != nil {
		return err
	}

	sec := f.Section(gameSection)
	for _, k := range gameFloatKeys {
		setFloat(sec, k.key, *k.field(&u))
	}
	for _, k := range gameBoolKeys {
		setBool(sec, k.key, *k.field(&u))
	}

	return s.save(f, s.gamePath())
}

// GameSettings returns the multipliers currently present in Game.ini.
func (s *Store) GameSettings() (GameSettings, error) {
	var out GameSettings
	f, err := s.load(s.gamePath())
	if err != nil {
		return out, err
	}

	sec := f.Section(gameSection)
	for _, k := range gameFloatKeys {
		*k.field(&out) = getFloat(sec, k.key)
	}
	for _, k := range gameBoolKeys {
		*k.field(&out) = getBool(sec, k.key)
	}
	return out, nil
}

// ActiveMods returns the workshop mod IDs currently configured.
func (s *Store) ActiveMods() ([]string, error) {
	f, err := s.load(s.gusPath())
	if err != nil {
		return nil, err
	}
	sec := f.Section(serverSection)
	if !sec.HasKey("ActiveMods") {
		return nil, nil
	}

	var mods []string
	for _, m := range strings.Split(sec.Key("ActiveMods").String(), ",") {
		if m = strings.TrimSpace(m); m != "" {
			mods = append(mods, m)
		}
	}
	return mods, nil
}

// SetMods replaces the active mod list with the valid numeric IDs in ids.
func (s *Store) SetMods(ids []string) error {
	var valid []string
	for _, id := range ids {
		if validate.ModID(id) {
			valid = append(valid, strings.TrimSpace(id))
		}
	}
	if len(valid) == 0 {
		return ErrNoValidMods
	}

	f, err := s.load(s.gusPath())
	if err != nil {
		return err
	}
	f.Section(serverSection).Key("ActiveMods").SetValue(strings.Join(valid, ","))
	return s.save(f, s.gusPath())
}

// ClearMods removes the active mod list entirely.
func (s *Store) ClearMods() error {
	f, err := s.load(s.gusPath())
	if err != nil {
		return err
	}
	sec := f.Section(serverSection)
	if !sec.HasKey("ActiveMods") {
		return nil
	}
	sec.DeleteKey("ActiveMods")
	return s.save(f, s.gusPath())
}

func setString(sec *ini.Section, key string, v *string) {
	if v != nil {
		sec.Key(key).SetValue(*v)
	}
}

func setInt(sec *ini.Section, key string, v *int) {
	if v != nil {
		sec.Key(key).SetValue(fmt.Sprintf("%d", *v))
	}
}

func setFloat(sec *ini.Section, key string, v *float64) {
	if v != nil {
		sec.Key(key).SetValue(trimFloat(*v))
	}
}

func setBool(sec *ini.Section, key string, v *bool) {
	if v == nil {
		return
	}
	if *v {
		sec.Key(key).SetValue("True")
	} else {
		sec.Key(key).SetValue("False")
	}
}

func getString(sec *ini.Section, key string) *string {
	if !sec.HasKey(key) {
		return nil
	}
	v := sec.Key(key).String()
	return &v
}

func getInt(sec *ini.Section, key string) *int {
	if !sec.HasKey(key) {
		return nil
	}
	v, err := sec.Key(key).Int()
	if err != nil {
		return nil
	}
	return &v
}

func getFloat(sec *ini.Section, key string) *float64 {
	if !sec.HasKey(key) {
		return nil
	}
	v, err := sec.Key(key).Float64()
	if err != nil {
		return nil
	}
	return &v
}

func getBool(sec *ini.Section, key string) *bool {
	if !sec.HasKey(key) {
		return nil
	}
	v := strings.EqualFold(sec.Key(key).String(), "true")
	return &v
}

// trimFloat renders v the way ARK expects: plain decimal, no exponent.
func trimFloat(v float64) string {
	out := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}
