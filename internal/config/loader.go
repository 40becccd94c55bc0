package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".fedcrawl"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads per-entity overrides from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers decide
// whether that matters: a missing explicitly-requested file is an error, a
// missing default-location file is not.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Entities == nil {
		cf.Entities = make(map[string]EntityConfig)
	}

	return &cf, nil
}

// LoadOverrides resolves the configuration file and loads its per-entity
// overrides into c.Entities. An explicitly set ConfigFilePath must exist;
// with an empty path and no file in the default locations, c.Entities
// stays nil and no error is returned.
func (c *Config) LoadOverrides() error {
	path := FindConfigFile(c.ConfigFilePath)
	if path == "" {
		if c.ConfigFilePath != "" {
			return fmt.Errorf("%s: %w", c.ConfigFilePath, ErrConfigNotFound)
		}
		return nil
	}

	cf, err := LoadConfigFile(path)
	if err != nil {
		return err
	}
	c.Entities = cf
	return nil
}

// FindConfigFile searches for the configuration file in order:
// 1. An explicitly specified path, used directly if it exists
// 2. .fedcrawl in the current directory
// 3. .fedcrawl in the user's home directory
//
// Returns the path if found, or empty string if not.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
