package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeworks/ordergate/pkg/config"
)

type serverConfig struct {
	Addr    string        `env:"TEST_ORDERGATE_ADDR" envDefault:":8080"`
	Timeout time.Duration `env:"TEST_ORDERGATE_TIMEOUT" envDefault:"250ms"`
	Debug   bool          `env:"TEST_ORDERGATE_DEBUG"`
}

type requiredConfig struct {
	Secret string `env:"TEST_ORDERGATE_SECRET,required"`
}

type policyDoc struct {
	Rules []struct {
		Scope    string        `yaml:"scope"`
		Window   time.Duration `yaml:"window"`
		MaxCount int           `yaml:"max_count"`
	} `yaml:"rules"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
		assert.False(t, cfg.Debug)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("TEST_ORDERGATE_ADDR", ":9090")
		t.Setenv("TEST_ORDERGATE_DEBUG", "true")

		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":9090", cfg.Addr)
		assert.True(t, cfg.Debug)
	})

	t.Run("missing required value", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		require.ErrorIs(t, err, config.ErrParsingConfig)
		assert.Panics(t, func() { config.MustLoad(&cfg) })
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *serverConfig
		require.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("TEST_ORDERGATE_SECRET=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("TEST_ORDERGATE_SECRET") })

	require.NoError(t, config.LoadEnvFile(path))

	var cfg requiredConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "from-file", cfg.Secret)

	require.ErrorIs(t, config.LoadEnvFile(filepath.Join(t.TempDir(), "missing")), config.ErrEnvFile)
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	t.Run("valid document", func(t *testing.T) {
		t.Parallel()
		var doc policyDoc
		err := config.LoadYAML([]byte(`
rules:
  - scope: login
    window: 60s
    max_count: 10
`), &doc)
		require.NoError(t, err)
		require.Len(t, doc.Rules, 1)
		assert.Equal(t, "login", doc.Rules[0].Scope)
		assert.Equal(t, time.Minute, doc.Rules[0].Window)
		assert.Equal(t, 10, doc.Rules[0].MaxCount)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		t.Parallel()
		var doc policyDoc
		err := config.LoadYAML([]byte("rules:\n  - scope: login\n    max_cnt: 10\n"), &doc)
		require.ErrorIs(t, err, config.ErrParsingYAML)
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()
		var doc policyDoc
		require.ErrorIs(t, config.LoadYAML(nil, &doc), config.ErrParsingYAML)
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rules: []\n"), 0o600))

		var doc policyDoc
		require.NoError(t, config.LoadYAMLFile(path, &doc))
		assert.Empty(t, doc.Rules)

		require.ErrorIs(t, config.LoadYAMLFile(path+".missing", &doc), config.ErrParsingYAML)
	})
}
