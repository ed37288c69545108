package config

import (
	"fmt"
	"go/token"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/conneroisu/afmt/internal/errors"
	"github.com/conneroisu/afmt/internal/logging"
)

const maxConcurrency = 256

// validateConfig validates configuration values
func validateConfig(config *Config) error {
	if err := validateGenerateConfig(&config.Generate); err != nil {
		return invalid("generate", err)
	}
	if err := validateWatchConfig(&config.Watch); err != nil {
		return invalid("watch", err)
	}
	if err := validateLogConfig(&config.Log); err != nil {
		return invalid("log", err)
	}
	return nil
}

func invalid(section string, err error) error {
	return errors.NewConfigError(errors.ErrCodeConfigInvalid,
		fmt.Sprintf("invalid configuration: %s config: %v", section, err)).
		WithContext("section", section)
}

func validateGenerateConfig(config *GenerateConfig) error {
	if !isBuildTag(config.Tag) {
		return fmt.Errorf("tag %q is not a valid build tag", config.Tag)
	}

	if err := validateOutput(config.Output); err != nil {
		return err
	}

	if !token.IsIdentifier(config.BindingPrefix) {
		return fmt.Errorf("binding_prefix %q is not a Go identifier", config.BindingPrefix)
	}

	if config.Concurrency < 1 || config.Concurrency > maxConcurrency {
		return fmt.Errorf("concurrency %d is not in valid range 1-%d", config.Concurrency, maxConcurrency)
	}

	return nil
}

func validateOutput(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("output is empty")
	case filepath.Base(name) != name || strings.ContainsAny(name, `/\`):
		return fmt.Errorf("output %q must be a file name, not a path", name)
	case !strings.HasSuffix(name, ".go"):
		return fmt.Errorf("output %q must end in .go", name)
	case strings.HasSuffix(name, "_test.go"):
		return fmt.Errorf("output %q must not be a test file", name)
	case strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_"):
		return fmt.Errorf("output %q would be ignored by the go command", name)
	}
	return nil
}

// isBuildTag accepts the characters the go command allows in build tags.
func isBuildTag(tag string) bool {
	if tag == "" {
		return false
	}
	for _, r := range tag {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return false
		}
	}
	return true
}

func validateWatchConfig(config *WatchConfig) error {
	if config.Debounce < 0 || config.Debounce > time.Minute {
		return fmt.Errorf("debounce %s is not in valid range 0-1m", config.Debounce)
	}
	for _, pattern := range config.Ignore {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func validateLogConfig(config *LogConfig) error {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		return err
	}
	if config.Format != "text" && config.Format != "json" {
		return fmt.Errorf("format %q must be text or json", config.Format)
	}
	if config.Dir != "" {
		if err := validatePath(config.Dir); err != nil {
			return fmt.Errorf("invalid dir '%s': %w", config.Dir, err)
		}
	}
	return nil
}

// validatePath validates a file path
func validatePath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
