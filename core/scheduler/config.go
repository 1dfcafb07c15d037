package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/studyplan/core/model"
)

const (
	DefaultBlockMinutes = 50
	DefaultBreakMinutes = 10
	DefaultHorizonDays  = 7
)

// SchedulerConfig defines planning parameters loaded from configuration.
type SchedulerConfig struct {
	BlockMinutes int `json:"block_minutes" yaml:"block_minutes"`
	BreakMinutes int `json:"break_minutes" yaml:"break_minutes"`
	HorizonDays  int `json:"horizon_days" yaml:"horizon_days"`
	// AvoidCollisions reserves the blocks of earlier tasks before later
	// tasks are planned. When false, every task is planned against the
	// calendar alone and blocks of different tasks may overlap.
	AvoidCollisions bool `json:"avoid_collisions" yaml:"avoid_collisions"`
}

// DefaultConfig returns a 50/10 cadence over one week.
func DefaultConfig() SchedulerConfig {
	return SchedulerConfig{
		BlockMinutes: DefaultBlockMinutes,
		BreakMinutes: DefaultBreakMinutes,
		HorizonDays:  DefaultHorizonDays,
	}
}

// SetDefaults fills a missing block length. Break and horizon keep zero as
// a meaningful value (no break, nothing beyond now); their defaults come from
// DefaultConfig, which LoadConfig and DecodeConfig decode onto.
func (c *SchedulerConfig) SetDefaults() {
	if c.BlockMinutes == 0 {
		c.BlockMinutes = DefaultBlockMinutes
	}
}

// Validate checks the configured lengths.
func (c SchedulerConfig) Validate() error {
	if c.BlockMinutes <= 0 {
		return fmt.Errorf("%w: block_minutes must be positive", model.ErrInvalidParameter)
	}
	if c.BreakMinutes < 0 {
		return fmt.Errorf("%w: break_minutes must not be negative", model.ErrInvalidParameter)
	}
	if c.HorizonDays < 0 {
		return fmt.Errorf("%w: horizon_days must not be negative", model.ErrInvalidParameter)
	}
	return nil
}

// BlockLength returns the configured block length.
func (c SchedulerConfig) BlockLength() time.Duration {
	return time.Duration(c.BlockMinutes) * time.Minute
}

// BreakLength returns the configured break length.
func (c SchedulerConfig) BreakLength() time.Duration {
	return time.Duration(c.BreakMinutes) * time.Minute
}

// LoadConfig loads SchedulerConfig from a JSON or YAML file.
func LoadConfig(path string) (SchedulerConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return SchedulerConfig{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	cfg := DefaultConfig()
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	default:
		return SchedulerConfig{}, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err != nil {
		return cfg, err
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}

// DecodeConfig reads from r to decode a SchedulerConfig.
func DecodeConfig(r io.Reader, format string) (SchedulerConfig, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		dec := json.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}
