// Package configuration parses the tejax config file.
package configuration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/pkg/errors"
)

var defaultConfig = Config{
	Backend:       "sqlite",
	DatabasePath:  "~/.tejax/chats.db",
	OpenaiAPIKey:  "API_KEY",
	OpenaiAPIHost: "https://api.openai.com/v1",
	Model:         "gpt-4o-mini",
	DisplayName:   "you",
	Theme:         "dark",
}

// Config holds configuration for the tejax tool.
type Config struct {
	// Backend selects the authoritative store: "sqlite" or "postgres".
	Backend string `json:"backend"`
	// DatabasePath is the SQLite database file.
	DatabasePath string `json:"database_path"`
	// PostgresDSN is the Postgres connection string.
	PostgresDSN string `json:"postgres_dsn"`

	OpenaiAPIKey  string `json:"openai_api_key"`
	OpenaiAPIHost string `json:"openai_api_host"`
	Model         string `json:"model"`

	// DisplayName labels the user's messages. Display only.
	DisplayName string `json:"display_name"`
	// Theme is "dark" or "light", persisted across sessions.
	Theme string `json:"theme"`
}

// Parse a configuration file. Missing fields fall back to defaults.
func Parse(path string) (*Config, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return nil, errors.Wrap(err, "expanding path")
	}

	if err := initializeIfNotPresent(path); err != nil {
		return nil, errors.Wrap(err, "initializing configuration")
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}

	config := &Config{}
	if err = json.Unmarshal(bytes, config); err != nil {
		return nil, errors.Wrap(err, "unmarshaling into config")
	}
	if err := mergo.Merge(config, defaultConfig); err != nil {
		return nil, errors.Wrap(err, "merging defaults")
	}

	expandedDatabasePath, err := ExpandPath(config.DatabasePath)
	if err != nil {
		return nil, errors.Wrap(err, "expanding database path")
	}
	config.DatabasePath = expandedDatabasePath
	return config, nil
}

// Save writes the configuration back to the given path. Used to persist
// the theme choice across sessions.
func (c *Config) Save(path string) error {
	path, err := ExpandPath(path)
	if err != nil {
		return errors.Wrap(err, "expanding path")
	}
	return c.save(path)
}

func (c *Config) save(path string) error {
	bytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	if err := os.WriteFile(path, bytes, 0644); err != nil {
		return errors.Wrap(err, "writing file")
	}
	return nil
}

// initializeIfNotPresent initializes a config if it does not exist.
func initializeIfNotPresent(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	// Create the directories.
	dir, _ := filepath.Split(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating folders")
	}

	if err := defaultConfig.save(path); err != nil {
		return errors.Wrap(err, "saving default config")
	}
	return nil
}

// ExpandPath resolves a leading "~/" to the user home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "getting user home dir")
	}
	return filepath.Join(home, path[2:]), nil
}
