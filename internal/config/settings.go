package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// PlayerSettings is the persisted playback state: the knobs a user expects
// to survive a restart. The tick loop applies changes through the settings
// watcher, so edits to the file take effect on a running player.
type PlayerSettings struct {
	// Volume is the linear multiplier applied to the audio branch.
	Volume float64 `toml:"volume" json:"volume"`
	// Speed is the playback rate multiplier.
	Speed float64 `toml:"speed" json:"speed"`
	// Flags lists the enabled engine features by name
	// (video, audio, subtitles, deinterlace, ...).
	Flags []string `toml:"flags,omitempty" json:"flags,omitempty"`
	// AudioDevice is the selected output device identifier; empty means
	// the platform default.
	AudioDevice string `toml:"audio_device,omitempty" json:"audio_device,omitempty"`

	UpdatedAt time.Time `toml:"updated_at" json:"updated_at"`
}

// DefaultPlayerSettings returns the out-of-the-box playback state.
func DefaultPlayerSettings() PlayerSettings {
	return PlayerSettings{
		Volume: 1.0,
		Speed:  1.0,
	}
}

// SettingsStore loads and persists PlayerSettings in a TOML file.
type SettingsStore struct {
	path     string
	settings PlayerSettings
}

// NewSettingsStore creates a store backed by the given path, defaulting to
// player.toml in the working directory.
func NewSettingsStore(path string) *SettingsStore {
	if path == "" {
		path = "player.toml"
	}
	return &SettingsStore{
		path:     path,
		settings: DefaultPlayerSettings(),
	}
}

// Path returns the backing file location, for the settings watcher.
func (s *SettingsStore) Path() string { return s.path }

// Load reads the settings file. A missing file is not an error: defaults
// apply until the first save.
func (s *SettingsStore) Load() error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read player settings: %w", err)
	}

	settings := DefaultPlayerSettings()
	if err := toml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("failed to parse player settings: %w", err)
	}

	s.settings = settings
	return nil
}

// Get returns the current settings snapshot.
func (s *SettingsStore) Get() PlayerSettings {
	return s.settings
}

// Save persists new settings atomically: written to a temp file in the
// same directory and renamed over the old one.
func (s *SettingsStore) Save(settings PlayerSettings) error {
	settings.UpdatedAt = time.Now().UTC()

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to serialize player settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".player-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write player settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp settings file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace player settings: %w", err)
	}

	s.settings = settings
	return nil
}

// LoadPlayerSettings is the loader used with the settings watcher.
func LoadPlayerSettings(path string) (PlayerSettings, error) {
	store := NewSettingsStore(path)
	if err := store.Load(); err != nil {
		return PlayerSettings{}, err
	}
	return store.Get(), nil
}
