package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/afmt/internal/config"
	"github.com/conneroisu/afmt/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "afmt",
	Short: "Compile format templates into fixed-capacity string builders",
	Long: `afmt implements stub functions whose doc comment carries an //afmt:
directive. Each template is checked at generation time and compiled into
code that writes into a bstr.Array sized to the longest possible output.

Quick Start:
  afmt generate ./...            Implement every stub below the current directory
  afmt check ./...               Fail when generated files are stale
  afmt inspect ./pkg             Show the bound computed for each stub
  afmt watch                     Regenerate on save

Documentation: https://github.com/conneroisu/afmt`,
	SilenceUsage:      true,
	PersistentPreRunE: bindFlags,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is .afmt.yml, can also use AFMT_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
}

// initConfig selects the configuration file and enables AFMT_ environment
// variables.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag
//  2. AFMT_CONFIG_FILE environment variable
//  3. .afmt.yml in the current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("AFMT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(config.FileName)
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(config.KeyReplacer())
	viper.AutomaticEnv()

	// A missing file falls back to defaults; a broken one is reported
	// when the configuration is loaded.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if _, missing := err.(viper.ConfigFileNotFoundError); !missing && cfgFile == "" && os.Getenv("AFMT_CONFIG_FILE") == "" {
		fmt.Fprintln(os.Stderr, "Warning: failed to read config file:", err)
	}
}

// environment is the configuration and logger shared by the commands.
type environment struct {
	cfg    *config.Config
	logger logging.Logger
	close  func()
}

// setup loads the configuration and builds the logger. When log.dir is set
// the log is also written to a dated file there.
func setup(stderr io.Writer) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logCfg := &logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: stderr,
	}

	env := &environment{cfg: cfg, logger: logging.NewLogger(logCfg), close: func() {}}
	if cfg.Log.Dir != "" {
		fileLogger, err := logging.NewFileLogger(logCfg, filepath.Clean(cfg.Log.Dir))
		if err != nil {
			return nil, err
		}
		env.logger = logging.NewMultiLogger(env.logger, fileLogger)
		env.close = func() { _ = fileLogger.Close() }
	}
	return env, nil
}
