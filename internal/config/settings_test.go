package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSettingsStoreDefaults(t *testing.T) {
	store := NewSettingsStore(filepath.Join(t.TempDir(), "player.toml"))

	if err := store.Load(); err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}

	got := store.Get()
	if got.Volume != 1.0 || got.Speed != 1.0 {
		t.Errorf("defaults = %+v", got)
	}
}

func TestSettingsStoreSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.toml")
	store := NewSettingsStore(path)

	want := PlayerSettings{
		Volume:      2.5,
		Speed:       1.5,
		Flags:       []string{"video", "audio", "deinterlace"},
		AudioDevice: "hw:1,0",
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fresh := NewSettingsStore(path)
	if err := fresh.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := fresh.Get()
	if got.Volume != want.Volume || got.Speed != want.Speed {
		t.Errorf("settings = %+v", got)
	}
	if len(got.Flags) != 3 || got.Flags[2] != "deinterlace" {
		t.Errorf("flags = %v", got.Flags)
	}
	if got.AudioDevice != "hw:1,0" {
		t.Errorf("audio device = %q", got.AudioDevice)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped on save")
	}
}

func TestSettingsStoreRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.toml")
	if err := os.WriteFile(path, []byte("volume = [not toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewSettingsStore(path)
	if err := store.Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadPlayerSettingsLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.toml")
	if err := os.WriteFile(path, []byte("volume = 0.5\nspeed = 2.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadPlayerSettings(path)
	if err != nil {
		t.Fatalf("LoadPlayerSettings: %v", err)
	}
	if got.Volume != 0.5 || got.Speed != 2.0 {
		t.Errorf("settings = %+v", got)
	}
}
