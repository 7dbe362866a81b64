package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// CurrentVersion is the config schema version this build understands
const CurrentVersion = 1

// EnvPrefix prefixes environment overrides, e.g. LGTNAV_ENGINE_COMMAND
const EnvPrefix = "LGTNAV"

// GoalPlaceholder is replaced by the engine goal inside Engine.Args
const GoalPlaceholder = "{goal}"

// Config represents the complete lgtnav configuration
type Config struct {
	Version int `json:"version" yaml:"version" mapstructure:"version"`

	Engine    EngineConfig    `json:"engine" yaml:"engine" mapstructure:"engine"`
	Artifacts ArtifactsConfig `json:"artifacts" yaml:"artifacts" mapstructure:"artifacts"`
	Staleness StalenessConfig `json:"staleness" yaml:"staleness" mapstructure:"staleness"`
	Watcher   WatcherConfig   `json:"watcher" yaml:"watcher" mapstructure:"watcher"`
	Cache     CacheConfig     `json:"cache" yaml:"cache" mapstructure:"cache"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// EngineConfig describes how the external analysis engine is launched
type EngineConfig struct {
	Command   string            `json:"command" yaml:"command" mapstructure:"command"`
	Args      []string          `json:"args" yaml:"args" mapstructure:"args"`
	Tool      string            `json:"tool" yaml:"tool" mapstructure:"tool"`
	TimeoutMs int               `json:"timeoutMs" yaml:"timeoutMs" mapstructure:"timeoutMs"`
	Env       map[string]string `json:"env,omitempty" yaml:"env,omitempty" mapstructure:"env"`
}

// ArtifactsConfig describes the artifact file rendezvous
type ArtifactsConfig struct {
	Prefix                string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
	LegacyDirectoryLookup bool   `json:"legacyDirectoryLookup" yaml:"legacyDirectoryLookup" mapstructure:"legacyDirectoryLookup"`
	Sentinel              bool   `json:"sentinel" yaml:"sentinel" mapstructure:"sentinel"`
}

// StalenessConfig decides which documents invalidate cached results
type StalenessConfig struct {
	LanguageIDs          []string `json:"languageIds" yaml:"languageIds" mapstructure:"languageIds"`
	Extensions           []string `json:"extensions" yaml:"extensions" mapstructure:"extensions"`
	ClearOnSuccessfulRun bool     `json:"clearOnSuccessfulRun" yaml:"clearOnSuccessfulRun" mapstructure:"clearOnSuccessfulRun"`
}

// WatcherConfig contains source watcher configuration
type WatcherConfig struct {
	Enabled        bool     `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	DebounceMs     int      `json:"debounceMs" yaml:"debounceMs" mapstructure:"debounceMs"`
	IgnorePatterns []string `json:"ignorePatterns" yaml:"ignorePatterns" mapstructure:"ignorePatterns"`
}

// CacheConfig contains result cache configuration
type CacheConfig struct {
	Enabled    bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	MaxEntries int  `json:"maxEntries" yaml:"maxEntries" mapstructure:"maxEntries"`
	Persist    bool `json:"persist" yaml:"persist" mapstructure:"persist"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" yaml:"format" mapstructure:"format"`
	Level      string `json:"level" yaml:"level" mapstructure:"level"`
	MaxSize    string `json:"maxSize" yaml:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" yaml:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Engine: EngineConfig{
			Command:   "swilgt",
			Args:      []string{"-q", "-g", GoalPlaceholder, "-t", "halt"},
			Tool:      "lgtnav",
			TimeoutMs: 60000,
			Env:       map[string]string{},
		},
		Artifacts: ArtifactsConfig{
			Prefix:                ".vscode_",
			LegacyDirectoryLookup: true,
			Sentinel:              false,
		},
		Staleness: StalenessConfig{
			LanguageIDs:          []string{"logtalk"},
			Extensions:           []string{".lgt", ".logtalk"},
			ClearOnSuccessfulRun: true,
		},
		Watcher: WatcherConfig{
			Enabled:    true,
			DebounceMs: 500,
			IgnorePatterns: []string{
				".git/",
				".lgtnav/",
				"*.tmp",
			},
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 256,
			Persist:    true,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// ConfigPath returns <root>/.lgtnav/config.json
func ConfigPath(root string) string {
	return filepath.Join(root, ".lgtnav", "config.json")
}

// LoadConfig loads <root>/.lgtnav/config.json layered over the defaults,
// then applies LGTNAV_* environment overrides.
func LoadConfig(root string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults, err := json.Marshal(DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, err
	}

	v.SetConfigFile(ConfigPath(root))
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to <root>/.lgtnav/config.json
func (c *Config) Save(root string) error {
	path := ConfigPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Fingerprint returns a stable digest of the configuration contents.
// Two loads with different fingerprints count as a configuration change.
func (c *Config) Fingerprint() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if strings.TrimSpace(c.Engine.Command) == "" {
		return &ConfigError{Field: "engine.command", Message: "must not be empty"}
	}
	if c.Engine.TimeoutMs <= 0 {
		return &ConfigError{Field: "engine.timeoutMs", Message: "must be positive"}
	}
	if c.Artifacts.Prefix == "" {
		return &ConfigError{Field: "artifacts.prefix", Message: "must not be empty"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
