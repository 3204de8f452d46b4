package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Settings holds the reloadable backlight options. These live under the
// [backlight] table of the config file and can change while the daemon
// is running.
type Settings struct {
	Brightness int  `toml:"brightness" json:"brightness"` // percent, 0-100
	Timeout    int  `toml:"timeout" json:"timeout"`       // idle timeout in seconds
	Fade       bool `toml:"fade" json:"fade"`
	PowerLED   bool `toml:"power_led" json:"power_led"`
}

// DefaultSettings returns the settings used when no config file exists.
func DefaultSettings() Settings {
	return Settings{
		Brightness: 30,
		Timeout:    10,
		Fade:       true,
	}
}

// Normalize clamps Settings into their valid ranges.
func (s *Settings) Normalize() {
	if s.Brightness < 0 {
		s.Brightness = 0
	}
	if s.Brightness > 100 {
		s.Brightness = 100
	}
	if s.Timeout < 1 {
		s.Timeout = 1
	}
}

// LoadSettings reads the [backlight] table from a TOML config file.
// A missing file yields the defaults; a malformed file is an error so
// the watcher does not propagate half-parsed settings.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read config: %w", err)
	}

	var file struct {
		Backlight Settings `toml:"backlight"`
	}
	file.Backlight = settings
	if err := toml.Unmarshal(data, &file); err != nil {
		return settings, fmt.Errorf("failed to parse config: %w", err)
	}

	settings = file.Backlight
	settings.Normalize()
	return settings, nil
}
