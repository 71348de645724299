// Package config handles loading bundler configuration from files.
//
// Configuration can be specified in treeshaker.json, treeshaker.yaml,
// treeshaker.toml or a JSON .treeshakerrc. The config file is searched for
// in the current directory and parent directories. Every option can also be
// set through a TREESHAKER_ environment variable, which wins over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/HugoDaniel/treeshaker/internal/bundler"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "TREESHAKER"

// Config represents the configuration file structure.
// All fields are optional and will use default values if not specified.
type Config struct {
	// Input lists the entry modules used when none are given on the
	// command line
	Input []string `mapstructure:"input" toml:"input,omitempty"`

	// External lists import specifiers that are never loaded
	External []string `mapstructure:"external" toml:"external,omitempty"`

	// Treeshake removes unused code (default true)
	Treeshake *bool `mapstructure:"treeshake" toml:"treeshake,omitempty"`

	// UnknownGlobalSideEffects treats reading an undeclared global as an
	// effect (default true)
	UnknownGlobalSideEffects *bool `mapstructure:"unknownGlobalSideEffects" toml:"unknownGlobalSideEffects,omitempty"`

	// PropertyReadSideEffects treats reading properties of unknown values
	// as an effect (default true)
	PropertyReadSideEffects *bool `mapstructure:"propertyReadSideEffects" toml:"propertyReadSideEffects,omitempty"`

	// Freeze wraps namespace objects in Object.freeze (default true)
	Freeze *bool `mapstructure:"freeze" toml:"freeze,omitempty"`

	// NamespaceToStringTag adds Symbol.toStringTag to namespace objects
	NamespaceToStringTag *bool `mapstructure:"namespaceToStringTag" toml:"namespaceToStringTag,omitempty"`

	// MinifyWhitespace removes unnecessary whitespace and newlines
	MinifyWhitespace *bool `mapstructure:"minifyWhitespace" toml:"minifyWhitespace,omitempty"`

	// MaxPasses bounds the number of inclusion passes
	MaxPasses *int `mapstructure:"maxPasses" toml:"maxPasses,omitempty"`

	// Silence lists warning codes that are not reported
	Silence []string `mapstructure:"silence" toml:"silence,omitempty"`

	// LogLevel is one of debug, info, warn, error or silent
	LogLevel string `mapstructure:"logLevel" toml:"logLevel,omitempty"`
}

// ConfigFileNames are the names searched for config files, in order of preference.
var ConfigFileNames = []string{
	"treeshaker.json",
	"treeshaker.yaml",
	"treeshaker.yml",
	"treeshaker.toml",
	".treeshakerrc",
}

// envKeys maps every config key to its environment variable.
var envKeys = map[string]string{
	"input":                    "INPUT",
	"external":                 "EXTERNAL",
	"treeshake":                "TREESHAKE",
	"unknownGlobalSideEffects": "UNKNOWN_GLOBAL_SIDE_EFFECTS",
	"propertyReadSideEffects":  "PROPERTY_READ_SIDE_EFFECTS",
	"freeze":                   "FREEZE",
	"namespaceToStringTag":     "NAMESPACE_TO_STRING_TAG",
	"minifyWhitespace":         "MINIFY_WHITESPACE",
	"maxPasses":                "MAX_PASSES",
	"silence":                  "SILENCE",
	"logLevel":                 "LOG_LEVEL",
}

// Load searches for a config file starting from the given directory
// and walking up to parent directories. If no config file is found the
// returned config only holds environment overrides and the path is empty.
func Load(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range ConfigFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := LoadFile(path)
				return cfg, path, err
			}
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			cfg, err := decode(newViper())
			return cfg, "", err
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path. The format
// follows the extension; .treeshakerrc and other unknown names are JSON.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".toml":
	default:
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, env := range envKeys {
		// BindEnv only fails without a key.
		_ = v.BindEnv(key, EnvPrefix+"_"+env)
	}
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks option values that the types alone do not restrict.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxPasses != nil && *c.MaxPasses < 0 {
		errs = append(errs, fmt.Errorf("maxPasses must not be negative, got %d", *c.MaxPasses))
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error", "silent", "quiet", "off":
	default:
		errs = append(errs, fmt.Errorf("unknown logLevel %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// ToOptions converts a Config to bundler.Options, using defaults for unset fields.
func (c *Config) ToOptions() bundler.Options {
	opts := bundler.DefaultOptions()

	if c.Treeshake != nil {
		opts.Treeshake = *c.Treeshake
	}
	if c.UnknownGlobalSideEffects != nil {
		opts.UnknownGlobalSideEffects = *c.UnknownGlobalSideEffects
	}
	if c.PropertyReadSideEffects != nil {
		opts.PropertyReadSideEffects = *c.PropertyReadSideEffects
	}
	if c.Freeze != nil {
		opts.Freeze = *c.Freeze
	}
	if c.NamespaceToStringTag != nil {
		opts.NamespaceToStringTag = *c.NamespaceToStringTag
	}
	if c.MinifyWhitespace != nil {
		opts.MinifyWhitespace = *c.MinifyWhitespace
	}
	if c.MaxPasses != nil {
		opts.MaxPasses = *c.MaxPasses
	}
	if len(c.Silence) > 0 {
		opts.Silence = c.Silence
	}
	if len(c.External) > 0 {
		opts.External = c.External
	}

	return opts
}

// MergeOptions holds command line flags. Nil means not specified.
type MergeOptions struct {
	MinifyWhitespace         *bool
	Freeze                   *bool
	NamespaceToStringTag     *bool
	UnknownGlobalSideEffects *bool
	PropertyReadSideEffects  *bool
	NoTreeshake              bool
	MaxPasses                *int
	External                 []string
	Silence                  []string
}

// Merge merges CLI options with config file options.
// CLI options override config file options when specified.
func (c *Config) Merge(cli MergeOptions) bundler.Options {
	opts := c.ToOptions()

	// CLI overrides
	if cli.MinifyWhitespace != nil {
		opts.MinifyWhitespace = *cli.MinifyWhitespace
	}
	if cli.Freeze != nil {
		opts.Freeze = *cli.Freeze
	}
	if cli.NamespaceToStringTag != nil {
		opts.NamespaceToStringTag = *cli.NamespaceToStringTag
	}
	if cli.UnknownGlobalSideEffects != nil {
		opts.UnknownGlobalSideEffects = *cli.UnknownGlobalSideEffects
	}
	if cli.PropertyReadSideEffects != nil {
		opts.PropertyReadSideEffects = *cli.PropertyReadSideEffects
	}
	if cli.NoTreeshake {
		opts.Treeshake = false
	}
	if cli.MaxPasses != nil {
		opts.MaxPasses = *cli.MaxPasses
	}
	// Lists add to the config file's lists
	if len(cli.External) > 0 {
		opts.External = append(append([]string(nil), opts.External...), cli.External...)
	}
	if len(cli.Silence) > 0 {
		opts.Silence = append(append([]string(nil), opts.Silence...), cli.Silence...)
	}

	return opts
}

// DefaultConfig returns a config with every option set to its default.
func DefaultConfig() *Config {
	opts := bundler.DefaultOptions()
	return &Config{
		Input:                    []string{"src/index.js"},
		Treeshake:                &opts.Treeshake,
		UnknownGlobalSideEffects: &opts.UnknownGlobalSideEffects,
		PropertyReadSideEffects:  &opts.PropertyReadSideEffects,
		Freeze:                   &opts.Freeze,
		NamespaceToStringTag:     &opts.NamespaceToStringTag,
		MinifyWhitespace:         &opts.MinifyWhitespace,
		MaxPasses:                &opts.MaxPasses,
		LogLevel:                 "info",
	}
}

// WriteDefault writes DefaultConfig as TOML to path. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	data, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}
