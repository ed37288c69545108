package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/afmt/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	config, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "afmt", config.Generate.Tag)
	assert.Equal(t, "afmt_gen.go", config.Generate.Output)
	assert.Equal(t, "_arg", config.Generate.BindingPrefix)
	assert.True(t, config.Generate.Assertions)
	assert.GreaterOrEqual(t, config.Generate.Concurrency, 1)
	assert.Equal(t, 300*time.Millisecond, config.Watch.Debounce)
	assert.Equal(t, []string{"node_modules", "vendor", "testdata"}, config.Watch.Ignore)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
}

func TestLoadGlobal(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("generate.tag", "stubs")

	config, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "stubs", config.Generate.Tag)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".afmt.yml")
	require.NoError(t, os.WriteFile(path, []byte(`generate:
  tag: gen
  output: zz_afmt.go
  binding_prefix: v
  assertions: false
  concurrency: 2
watch:
  debounce: 1s
  ignore: ["build"]
log:
  level: debug
  format: json
`), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	config, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "gen", config.Generate.Tag)
	assert.Equal(t, "zz_afmt.go", config.Generate.Output)
	assert.Equal(t, "v", config.Generate.BindingPrefix)
	assert.False(t, config.Generate.Assertions)
	assert.Equal(t, 2, config.Generate.Concurrency)
	assert.Equal(t, time.Second, config.Watch.Debounce)
	assert.Equal(t, []string{"build"}, config.Watch.Ignore)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("AFMT_GENERATE_OUTPUT", "env_gen.go")

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(KeyReplacer())
	v.AutomaticEnv()

	config, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "env_gen.go", config.Generate.Output)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		key   string
		value interface{}
	}{
		{"generate.tag", ""},
		{"generate.tag", "bad tag"},
		{"generate.tag", "!afmt"},
		{"generate.output", ""},
		{"generate.output", "gen/afmt_gen.go"},
		{"generate.output", "afmt_gen.txt"},
		{"generate.output", "afmt_gen_test.go"},
		{"generate.output", "_afmt_gen.go"},
		{"generate.binding_prefix", "1arg"},
		{"generate.binding_prefix", "a-b"},
		{"generate.concurrency", 0},
		{"generate.concurrency", 1000},
		{"watch.debounce", "2m"},
		{"watch.debounce", "-1s"},
		{"watch.ignore", []string{"["}},
		{"log.level", "loud"},
		{"log.format", "xml"},
		{"log.dir", "../logs"},
		{"log.dir", "logs;rm"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			config, err := LoadFrom(v)
			require.Error(t, err, "%s=%v", tt.key, tt.value)
			assert.Nil(t, config)
			assert.Equal(t, errors.ErrCodeConfigInvalid, errors.Code(err))
		})
	}
}

func TestLoadDecodeError(t *testing.T) {
	v := viper.New()
	v.Set("generate.concurrency", "many")

	_, err := LoadFrom(v)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.Code(err))
}

func TestSettings(t *testing.T) {
	config, err := LoadFrom(viper.New())
	require.NoError(t, err)

	settings := config.Settings()
	assert.Contains(t, settings, "tag=afmt")
	assert.Contains(t, settings, "assertions=true")
	assert.NotContains(t, settings, "concurrency", "parallelism does not change output")
}
