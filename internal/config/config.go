// Package config loads afmt settings with Viper from a .afmt.yml file,
// AFMT_ environment variables and command-line flags.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/afmt/internal/errors"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".afmt"

// EnvPrefix prefixes environment overrides, e.g. AFMT_GENERATE_TAG.
const EnvPrefix = "AFMT"

type Config struct {
	Generate GenerateConfig `mapstructure:"generate" yaml:"generate"`
	Watch    WatchConfig    `mapstructure:"watch" yaml:"watch"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

type GenerateConfig struct {
	// Tag is the build tag guarding stub files.
	Tag string `mapstructure:"tag" yaml:"tag"`
	// Output is the name of the generated file in each package.
	Output string `mapstructure:"output" yaml:"output"`
	// BindingPrefix prefixes synthesized argument names.
	BindingPrefix string `mapstructure:"binding_prefix" yaml:"binding_prefix"`
	// Assertions enables the compile-time capacity assertion in writers.
	Assertions bool `mapstructure:"assertions" yaml:"assertions"`
	// Concurrency bounds the packages generated in parallel.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
	// Ignore holds directory name globs skipped while watching.
	Ignore []string `mapstructure:"ignore" yaml:"ignore"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	// Dir, when set, also writes logs to a dated file in that directory.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// KeyReplacer maps nested keys to environment names: generate.tag is read
// from AFMT_GENERATE_TAG.
func KeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("generate.tag", "afmt")
	v.SetDefault("generate.output", "afmt_gen.go")
	v.SetDefault("generate.binding_prefix", "_arg")
	v.SetDefault("generate.assertions", true)
	v.SetDefault("generate.concurrency", min(runtime.NumCPU(), 8))
	v.SetDefault("watch.debounce", 300*time.Millisecond)
	v.SetDefault("watch.ignore", []string{"node_modules", "vendor", "testdata"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.dir", "")
}

// Load reads the configuration from the global Viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("failed to decode configuration: %v", err))
	}

	// Unmarshal leaves an explicitly emptied list as nil.
	if v.IsSet("watch.ignore") && config.Watch.Ignore == nil {
		config.Watch.Ignore = v.GetStringSlice("watch.ignore")
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// Settings returns the values that change generated output. They are mixed
// into the fingerprint.
func (c *Config) Settings() []string {
	return []string{
		"tag=" + c.Generate.Tag,
		"output=" + c.Generate.Output,
		"binding_prefix=" + c.Generate.BindingPrefix,
		fmt.Sprintf("assertions=%t", c.Generate.Assertions),
	}
}
