package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/studyplan/core/metrics"
	"github.com/kilianp07/studyplan/core/planlog"
	"github.com/kilianp07/studyplan/core/scheduler"
	"github.com/kilianp07/studyplan/infra/mqtt"
	"github.com/kilianp07/studyplan/infra/store"
)

type Config struct {
	Planner scheduler.SchedulerConfig `json:"planner"`
	Store   store.Config              `json:"store"`
	PlanLog planlog.Config            `json:"plan_log"`
	Metrics metrics.Config            `json:"metrics"`
	MQTT    mqtt.Config               `json:"mqtt"`
	Sentry  SentryConfig              `json:"sentry"`
	Serve   ServeConfig               `json:"serve"`
}

// Default returns a configuration with every section defaulted.
func Default() *Config {
	cfg := Config{Planner: scheduler.DefaultConfig()}
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Planner.SetDefaults()
	c.Store.SetDefaults()
	c.PlanLog.SetDefaults()
	c.MQTT.SetDefaults()
	c.Serve.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Planner.Validate(); err != nil {
		return fmt.Errorf("planner: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.PlanLog.Validate(); err != nil {
		return fmt.Errorf("plan_log: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := c.Sentry.Validate(); err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	if err := c.Serve.Validate(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Load reads the file at path, applies K_ prefixed environment overrides
// (K_PLANNER__BLOCK_MINUTES=25) and validates the result. An empty path
// loads defaults and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	// Planner defaults are loaded first so an explicit zero in the file or
	// the environment survives.
	def := scheduler.DefaultConfig()
	if err := k.Load(confmap.Provider(map[string]any{
		"planner.block_minutes": def.BlockMinutes,
		"planner.break_minutes": def.BreakMinutes,
		"planner.horizon_days":  def.HorizonDays,
	}, "."), nil); err != nil {
		return nil, err
	}
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
