// Package config provides Viper-based configuration loading for the combat simulator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout", or a file path.
	Output string `mapstructure:"output"`
}

// SimulationConfig holds the encounter rules.
type SimulationConfig struct {
	// TickInterval is the wall-clock period between simulation ticks.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// PlayerStep is the distance the autopilot moves the player per tick.
	PlayerStep float64 `mapstructure:"player_step"`
	// EngageRange is the distance at which the autopilot opens fire.
	EngageRange float64 `mapstructure:"engage_range"`
	// HostileDamage is the damage of one hostile attack.
	HostileDamage int `mapstructure:"hostile_damage"`
	// AttackInterval is the minimum time between two attacks by the same hostile.
	AttackInterval time.Duration `mapstructure:"attack_interval"`
	// KillScore is the score awarded per defeated hostile.
	KillScore int `mapstructure:"kill_score"`
	// WeaponID names the weapon the player starts with.
	WeaponID string `mapstructure:"weapon_id"`
	// Seed seeds the random source. Zero selects a cryptographic source.
	Seed uint64 `mapstructure:"seed"`
}

// ContentConfig points at the YAML content directories.
type ContentConfig struct {
	// WeaponsDir holds weapon definitions. Empty uses only the built-in presets.
	WeaponsDir string `mapstructure:"weapons_dir"`
	// HostilesDir holds hostile templates.
	HostilesDir string `mapstructure:"hostiles_dir"`
}

// MissionConfig selects and tunes the mission provider.
type MissionConfig struct {
	// Provider is "fallback" or "anthropic".
	Provider string `mapstructure:"provider"`
	// Model is the model name used by the anthropic provider.
	Model string `mapstructure:"model"`
	// MaxTokens bounds the model response.
	MaxTokens int64 `mapstructure:"max_tokens"`
	// Timeout bounds one generation request before the fallback is used.
	Timeout time.Duration `mapstructure:"timeout"`
	// APIKey authenticates the anthropic provider.
	APIKey string `mapstructure:"api_key"`
	// BaseURL overrides the API endpoint.
	BaseURL string `mapstructure:"base_url"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Content    ContentConfig    `mapstructure:"content"`
	Mission    MissionConfig    `mapstructure:"mission"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateMission(c.Mission); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.Output == "" {
		return errors.New("logging.output must not be empty")
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.tick_interval must be > 0, got %s", s.TickInterval))
	}
	if s.PlayerStep < 0 {
		errs = append(errs, fmt.Sprintf("simulation.player_step must be >= 0, got %v", s.PlayerStep))
	}
	if s.EngageRange <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.engage_range must be > 0, got %v", s.EngageRange))
	}
	if s.HostileDamage < 0 {
		errs = append(errs, fmt.Sprintf("simulation.hostile_damage must be >= 0, got %d", s.HostileDamage))
	}
	if s.AttackInterval < 0 {
		errs = append(errs, "simulation.attack_interval must not be negative")
	}
	if s.KillScore < 0 {
		errs = append(errs, fmt.Sprintf("simulation.kill_score must be >= 0, got %d", s.KillScore))
	}
	if s.WeaponID == "" {
		errs = append(errs, "simulation.weapon_id must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	if c.HostilesDir == "" {
		return errors.New("content.hostiles_dir must not be empty")
	}
	return nil
}

func validateMission(m MissionConfig) error {
	var errs []string
	switch m.Provider {
	case "fallback":
	case "anthropic":
		if m.APIKey == "" {
			errs = append(errs, "mission.api_key must be set when mission.provider is anthropic")
		}
		if m.Model == "" {
			errs = append(errs, "mission.model must not be empty")
		}
		if m.MaxTokens <= 0 {
			errs = append(errs, fmt.Sprintf("mission.max_tokens must be > 0, got %d", m.MaxTokens))
		}
	default:
		errs = append(errs, fmt.Sprintf("mission.provider must be one of [fallback, anthropic], got %q", m.Provider))
	}
	if m.Timeout < 0 {
		errs = append(errs, "mission.timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with FIRETEAM_ prefix
	v.SetEnvPrefix("FIRETEAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("simulation.tick_interval", "16ms")
	v.SetDefault("simulation.player_step", 2.0)
	v.SetDefault("simulation.engage_range", 250.0)
	v.SetDefault("simulation.hostile_damage", 5)
	v.SetDefault("simulation.attack_interval", "1s")
	v.SetDefault("simulation.kill_score", 50)
	v.SetDefault("simulation.weapon_id", "rifle")
	v.SetDefault("simulation.seed", 0)

	v.SetDefault("content.weapons_dir", "")
	v.SetDefault("content.hostiles_dir", "content/hostiles")

	v.SetDefault("mission.provider", "fallback")
	v.SetDefault("mission.model", "claude-3-5-haiku-latest")
	v.SetDefault("mission.max_tokens", 512)
	v.SetDefault("mission.timeout", "5s")
	v.SetDefault("mission.api_key", "")
	v.SetDefault("mission.base_url", "")
}
