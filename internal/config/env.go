package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const dotenvFile = ".env"

// loadDotenv reads .env files from the working directory and the config
// directory. Variables already present in the environment win.
func loadDotenv(configPath string) ([]Warning, error) {
	candidates := []string{dotenvFile}
	if dir := filepath.Dir(configPath); dir != "" && dir != "." {
		candidates = append(candidates, filepath.Join(dir, dotenvFile))
	}

	warnings := make([]Warning, 0)
	seen := make(map[string]bool, len(candidates))
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true

		if _, err := os.Stat(abs); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %q: %w", abs, err)
		}
		if err := godotenv.Load(abs); err != nil {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("ignoring %q: %v", abs, err)})
		}
	}
	return warnings, nil
}

// resolveAPIKey expands ${VAR} references in the configured key and falls
// back to backend-specific environment variables.
func resolveAPIKey(cfg *Config) []Warning {
	key := strings.TrimSpace(os.ExpandEnv(cfg.Generation.APIKey))
	if key == "" {
		for _, name := range apiKeyEnv(cfg.Generation.Backend) {
			if value := strings.TrimSpace(os.Getenv(name)); value != "" {
				key = value
				break
			}
		}
	}
	cfg.Generation.APIKey = key

	if key == "" && cfg.Generation.BaseURL == "" {
		return []Warning{{Message: fmt.Sprintf(
			"no API key configured; set generation.api_key or %s",
			strings.Join(apiKeyEnv(cfg.Generation.Backend), " or "),
		)}}
	}
	return nil
}

func apiKeyEnv(backend string) []string {
	if backend == BackendOpenAI {
		return []string{"OPENAI_API_KEY", "API_KEY"}
	}
	return []string{"GEMINI_API_KEY", "API_KEY"}
}
