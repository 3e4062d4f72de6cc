package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestUpdateAndReadServerSettings(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	err := s.UpdateServerSettings(ServerSettings{
		SessionName:   ptr("My Island"),
		MaxPlayers:    ptr(20),
		AdminPassword: ptr("hunter22hunter22"),
		XPMultiplier:  ptr(2.5),
		PVE:           ptr(true),
		RCONEnabled:   ptr(true),
		RCONPort:      ptr(27020),
	})
	if err != nil {
		t.Fatalf("UpdateServerSettings: %v", err)
	}

	got, err := s.ServerSettings()
	if err != nil {
		t.Fatalf("ServerSettings: %v", err)
	}
	if got.SessionName == nil || *got.SessionName != "My Island" {
		t.Errorf("SessionName = %v", got.SessionName)
	}
	if got.MaxPlayers == nil || *got.MaxPlayers != 20 {
		t.Errorf("MaxPlayers = %v", got.MaxPlayers)
	}
	if got.XPMultiplier == nil || *got.XPMultiplier != 2.5 {
		t.Errorf("XPMultiplier = %v", got.XPMultiplier)
	}
	if got.PVE == nil || !*got.PVE {
		t.Errorf("PVE = %v", got.PVE)
	}
	if got.ServerPassword != nil {
		t.Errorf("ServerPassword = %v, want nil (never written)", got.ServerPassword)
	}

	if s.ServerName() != "My Island" {
		t.Errorf("ServerName() = %q", s.ServerName())
	}
	if s.AdminPassword() != "hunter22hunter22" {
		t.Errorf("AdminPassword() = %q", s.AdminPassword())
	}
	if s.RCONPort() != 27020 {
		t.Errorf("RCONPort() = %d", s.RCONPort())
	}
}

func TestPartialUpdatePreservesForeignKeys(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	// Seed a file containing a key the manager does not map.
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		t.Fatal(err)
	}
	seed := "[ServerSettings]\nOverrideOfficialDifficulty=5.0\nXPMultiplier=1.0\n"
	if err := os.WriteFile(s.gusPath(), []byte(seed), 0644); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateServerSettings(ServerSettings{XPMultiplier: ptr(3.0)}); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(s.gusPath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "OverrideOfficialDifficulty=5.0") {
		t.Error("unmapped key was dropped by a partial update")
	}
	if !strings.Contains(string(raw), "XPMultiplier=3.0") {
		t.Errorf("updated key missing, file:\n%s", raw)
	}
}

func TestGameSettingsRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())

	err := s.UpdateGameSettings(GameSettings{
		PlayerWeight:        ptr(2.0),
		BabyMatureSpeed:     ptr(10.0),
		KillXP:              ptr(1.5),
		AllowSpeedLeveling:  ptr(true),
		DisableFriendlyFire: ptr(false),
	})
	if err != nil {
		t.Fatalf("UpdateGameSettings: %v", err)
	}

	got, err := s.GameSettings()
	if err != nil {
		t.Fatalf("GameSettings: %v", err)
	}
	if got.PlayerWeight == nil || *got.PlayerWeight != 2.0 {
		t.Errorf("PlayerWeight = %v", got.PlayerWeight)
	}
	if got.BabyMatureSpeed == nil || *got.BabyMatureSpeed != 10.0 {
		t.Errorf("BabyMatureSpeed = %v", got.BabyMatureSpeed)
	}
	if got.AllowSpeedLeveling == nil || !*got.AllowSpeedLeveling {
		t.Errorf("AllowSpeedLeveling = %v", got.AllowSpeedLeveling)
	}
	if got.DisableFriendlyFire == nil || *got.DisableFriendlyFire {
		t.Errorf("DisableFriendlyFire = %v", got.DisableFriendlyFire)
	}
	if got.PlayerHealth != nil {
		t.Errorf("PlayerHealth = %v, want nil", got.PlayerHealth)
	}

	// The per-level slots must land under the ShooterGameMode section.
	raw, err := os.ReadFile(filepath.Join(s.dir, "Game.ini"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "[/Script/ShooterGame.ShooterGameMode]") {
		t.Errorf("missing game mode section, file:\n%s", raw)
	}
	if !strings.Contains(string(raw), "PerLevelStatsMultiplier_Player[5]=2.0") {
		t.Errorf("weight slot not written, file:\n%s", raw)
	}
}

func TestMods(t *testing.T) {
	s := NewStore(t.TempDir())

	if err := s.SetMods([]string{"927090", "bogus;id", " 731604991 "}); err != nil {
		t.Fatalf("SetMods: %v", err)
	}
	mods, err := s.ActiveMods()
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 2 || mods[0] != "927090" || mods[1] != "731604991" {
		t.Errorf("ActiveMods = %v", mods)
	}

	if err := s.SetMods([]string{"not-a-mod"}); err != ErrNoValidMods {
		t.Errorf("SetMods(invalid) = %v, want ErrNoValidMods", err)
	}

	if err := s.ClearMods(); err != nil {
		t.Fatalf("ClearMods: %v", err)
	}
	mods, err = s.ActiveMods()
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 0 {
		t.Errorf("ActiveMods after clear = %v", mods)
	}

	// Clearing an empty store is a no-op, not an error.
	if err := NewStore(t.TempDir()).ClearMods(); err != nil {
		t.Errorf("ClearMods on empty store: %v", err)
	}
}
