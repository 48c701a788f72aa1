package vendors

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is the per-vendor configuration loaded from the vendors file.
// NameBlacklist entries are matched as case-sensitive substrings against
// food names when the stored foods are queried.
type Settings struct {
	Enabled       bool     `yaml:"enabled"`
	NameBlacklist []string `yaml:"name_blacklist"`
}

func defaultSettings() Settings {
	return Settings{Enabled: true}
}

// LoadSettings reads the per-vendor settings file. A missing file is not an
// error: every vendor falls back to enabled with no blacklist.
func LoadSettings(path string) (map[VendorType]Settings, error) {
	settings := map[VendorType]Settings{
		VendorCityFood:  defaultSettings(),
		VendorInterFood: defaultSettings(),
		VendorEfood:     defaultSettings(),
		VendorTeletal:   defaultSettings(),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Debug("Vendor settings file not found, using defaults", "path", path)
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read vendor settings: %w", err)
	}

	var loaded map[VendorType]Settings
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse vendor settings: %w", err)
	}

	for vendor, s := range loaded {
		if _, known := settings[vendor]; !known {
			slog.Warn("Unknown vendor in settings file, ignoring", "vendor", string(vendor))
			continue
		}
		settings[vendor] = s
	}

	return settings, nil
}
