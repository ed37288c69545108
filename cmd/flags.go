package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/afmt/internal/config"
	"github.com/conneroisu/afmt/internal/generator"
)

// flagKeys maps flag names to the configuration keys they override.
var flagKeys = map[string]string{
	"log-level":      "log.level",
	"log-format":     "log.format",
	"tag":            "generate.tag",
	"output-file":    "generate.output",
	"binding-prefix": "generate.binding_prefix",
	"assertions":     "generate.assertions",
	"concurrency":    "generate.concurrency",
	"debounce":       "watch.debounce",
	"ignore":         "watch.ignore",
}

// bindFlags binds the flags of the command being run to their configuration
// keys. Binding happens per run because several commands share keys.
func bindFlags(cmd *cobra.Command, _ []string) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		if bindErr := viper.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("failed to bind flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

// addGenerateFlags adds the flags that change generated output.
func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().String("tag", "afmt", "Build tag guarding stub files")
	cmd.Flags().String("output-file", "afmt_gen.go", "Name of the generated file in each package")
	cmd.Flags().String("binding-prefix", "_arg", "Prefix of generated argument bindings")
	cmd.Flags().Bool("assertions", true, "Emit compile-time capacity assertions for writers")
	cmd.Flags().IntP("concurrency", "j", 0, "Packages generated in parallel (default from config)")
}

// generatorOptions derives generator options from the configuration.
func generatorOptions(cfg *config.Config, dryRun bool) generator.Options {
	return generator.Options{
		Dir:           ".",
		Tag:           cfg.Generate.Tag,
		Output:        cfg.Generate.Output,
		BindingPrefix: cfg.Generate.BindingPrefix,
		Assertions:    cfg.Generate.Assertions,
		Concurrency:   cfg.Generate.Concurrency,
		DryRun:        dryRun,
		Settings:      cfg.Settings(),
	}
}

// patterns defaults to the current package.
func patterns(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

var outputFormats = []string{"table", "json", "yaml"}

// ValidateFormat checks an --output value.
func ValidateFormat(format string) error {
	if slices.Contains(outputFormats, format) {
		return nil
	}
	return fmt.Errorf("invalid output format %q, must be one of: %s",
		format, strings.Join(outputFormats, ", "))
}
