package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded is a resolved configuration together with where it came from.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	// Exists is false when Path was absent and defaults were used.
	Exists bool
}

// Load resolves the config path, applies a sibling .env file, parses the
// JSONC document over Default, and fills the API key from the environment.
// A missing file is not an error.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}
	loaded := Loaded{Path: path, Config: Default()}

	envWarnings, err := loadDotenv(path)
	if err != nil {
		return Loaded{}, err
	}
	loaded.Warnings = append(loaded.Warnings, envWarnings...)

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", path),
		})
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	default:
		cfg, warnings, err := Parse(string(content), loaded.Config)
		if err != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
		}
		loaded.Config = cfg
		loaded.Exists = true
		loaded.Warnings = append(loaded.Warnings, warnings...)
	}

	loaded.Warnings = append(loaded.Warnings, resolveAPIKey(&loaded.Config)...)
	return loaded, nil
}
