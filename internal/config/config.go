// Package config provides Viper-based configuration loading for the skirmish runner.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Enabled selects the postgres player store; when false the player profile
	// file is used and battle reports are not persisted.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File redirects log output away from the terminal; empty means stderr.
	File string `mapstructure:"file"`
}

// CombatConfig holds encounter tuning.
type CombatConfig struct {
	// PacingDelayMs is the pause before the enemy phase runs; 0 runs it inline.
	PacingDelayMs int `mapstructure:"pacing_delay_ms"`
	// EnemySkillChance is the probability an enemy with skills uses one.
	EnemySkillChance float64 `mapstructure:"enemy_skill_chance"`
	// ExperiencePerLevel is the victory experience granted per enemy level
	// when a template declares none.
	ExperiencePerLevel int `mapstructure:"experience_per_level"`
	// ScriptInstructionLimit bounds each special-attack hook call; 0 uses the default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// PacingDelay returns PacingDelayMs as a duration.
func (c CombatConfig) PacingDelay() time.Duration {
	return time.Duration(c.PacingDelayMs) * time.Millisecond
}

// ContentConfig locates the static game content.
type ContentConfig struct {
	EnemiesDir   string `mapstructure:"enemies_dir"`
	ItemsDir     string `mapstructure:"items_dir"`
	SkillsDir    string `mapstructure:"skills_dir"`
	ScriptsDir   string `mapstructure:"scripts_dir"`
	SpecialsFile string `mapstructure:"specials_file"`
	PlayerFile   string `mapstructure:"player_file"`
}

// InventoryConfig bounds the player's backpack.
type InventoryConfig struct {
	MaxSlots  int     `mapstructure:"max_slots"`
	MaxWeight float64 `mapstructure:"max_weight"`
}

// Config is the top-level application configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Combat    CombatConfig    `mapstructure:"combat"`
	Content   ContentConfig   `mapstructure:"content"`
	Inventory InventoryConfig `mapstructure:"inventory"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content, c.Database.Enabled); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Inventory.MaxSlots < 1 {
		errs = append(errs, fmt.Sprintf("inventory.max_slots must be >= 1, got %d", c.Inventory.MaxSlots))
	}
	if c.Inventory.MaxWeight <= 0 {
		errs = append(errs, fmt.Sprintf("inventory.max_weight must be > 0, got %g", c.Inventory.MaxWeight))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
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
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.PacingDelayMs < 0 {
		errs = append(errs, fmt.Sprintf("combat.pacing_delay_ms must be >= 0, got %d", c.PacingDelayMs))
	}
	if c.EnemySkillChance < 0 || c.EnemySkillChance > 1 {
		errs = append(errs, fmt.Sprintf("combat.enemy_skill_chance must be within [0, 1], got %g", c.EnemySkillChance))
	}
	if c.ExperiencePerLevel < 0 {
		errs = append(errs, fmt.Sprintf("combat.experience_per_level must be >= 0, got %d", c.ExperiencePerLevel))
	}
	if c.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("combat.script_instruction_limit must be >= 0, got %d", c.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig, database bool) error {
	var errs []string
	required := map[string]string{
		"content.enemies_dir": c.EnemiesDir,
		"content.items_dir":   c.ItemsDir,
		"content.skills_dir":  c.SkillsDir,
	}
	for _, key := range []string{"content.enemies_dir", "content.items_dir", "content.skills_dir"} {
		if required[key] == "" {
			errs = append(errs, key+" must not be empty")
		}
	}
	if c.ScriptsDir != "" && c.SpecialsFile == "" {
		errs = append(errs, "content.specials_file must be set when content.scripts_dir is")
	}
	if !database && c.PlayerFile == "" {
		errs = append(errs, "content.player_file must be set when the database is disabled")
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

	// Environment variable overrides with SKIRMISH_ prefix
	v.SetEnvPrefix("SKIRMISH")
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "skirmish")
	v.SetDefault("database.password", "skirmish")
	v.SetDefault("database.name", "skirmish")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")

	v.SetDefault("combat.pacing_delay_ms", 800)
	v.SetDefault("combat.enemy_skill_chance", 0.3)
	v.SetDefault("combat.experience_per_level", 25)
	v.SetDefault("combat.script_instruction_limit", 0)

	v.SetDefault("content.enemies_dir", "content/enemies")
	v.SetDefault("content.items_dir", "content/items")
	v.SetDefault("content.skills_dir", "content/skills")
	v.SetDefault("content.scripts_dir", "content/scripts")
	v.SetDefault("content.specials_file", "content/specials.yaml")
	v.SetDefault("content.player_file", "content/player.yaml")

	v.SetDefault("inventory.max_slots", 20)
	v.SetDefault("inventory.max_weight", 50.0)
}
