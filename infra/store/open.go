package store

import (
	"fmt"

	corestore "github.com/kilianp07/studyplan/core/store"
)

// Config selects and parameterises the state backend.
type Config struct {
	// Backend is "memory" or "sqlite".
	Backend string `json:"backend"`
	// Path is the database file for the sqlite backend.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "sqlite"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "studyplan.db"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case "memory":
		return nil
	case "sqlite":
		if c.Path == "" {
			return fmt.Errorf("path is required")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
}

// Open builds the Store selected by c.
func Open(c Config) (corestore.Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Backend == "memory" {
		return corestore.NewMemoryStore(), nil
	}
	return NewSQLiteStore(c.Path)
}
