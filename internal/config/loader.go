package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnvFile reads a .env file and returns the variables as a map
func LoadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("env file not found: %s", path)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	return env, nil
}

// MergeEnv merges multiple environment maps in order, with later maps taking precedence
func MergeEnv(envMaps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, env := range envMaps {
		for k, v := range env {
			result[k] = v
		}
	}
	return result
}

// ApplyEnv overlays LENS_* variables from the environment and the
// configured env file onto the configuration. Recognized keys:
// LENS_API_HOST, LENS_API_PORT (ignored when unparsable).
func ApplyEnv(config *Config, configDir string) error {
	var fileEnv map[string]string
	if config.EnvFile != "" {
		path := resolvePath(config.EnvFile, configDir)
		env, err := LoadEnvFile(path)
		if err != nil {
			return fmt.Errorf("loading env file: %w", err)
		}
		fileEnv = env
	}

	env := MergeEnv(fileEnv, processEnv())
	if host, ok := env["LENS_API_HOST"]; ok && host != "" {
		config.API.Host = host
	}
	if port, ok := env["LENS_API_PORT"]; ok && port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil && p > 0 && p <= 65535 {
			config.API.Port = p
		}
	}
	return nil
}

func processEnv() map[string]string {
	result := make(map[string]string)
	for _, key := range []string{"LENS_API_HOST", "LENS_API_PORT"} {
		if v, ok := os.LookupEnv(key); ok {
			result[key] = v
		}
	}
	return result
}

// resolvePath resolves a potentially relative path against a base directory
func resolvePath(path, baseDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() (string, bool) {
	candidates := []string{
		"lens.yaml",
		"lens.yml",
		".lens.yaml",
		".lens.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".config", "lens", "lens.yaml"))
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}
