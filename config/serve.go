package config

import (
	"fmt"
	"time"
)

// ServeConfig drives the long running replanning loop.
type ServeConfig struct {
	// IntervalMinutes is the delay between two replanning rounds.
	IntervalMinutes int `json:"interval_minutes"`
	// Users restricts replanning to these users. Empty means every stored user.
	Users []string `json:"users"`
}

// SetDefaults applies sane defaults.
func (c *ServeConfig) SetDefaults() {
	if c.IntervalMinutes == 0 {
		c.IntervalMinutes = 60
	}
}

// Validate checks mandatory fields.
func (c ServeConfig) Validate() error {
	if c.IntervalMinutes < 0 {
		return fmt.Errorf("interval_minutes must not be negative")
	}
	return nil
}

// Interval returns the replanning period.
func (c ServeConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}
