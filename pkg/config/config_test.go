package config

import (
	"errors"
	"testing"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port          int           `env:"TEST_CFG_PORT" envDefault:"8080"`
	SweepInterval time.Duration `env:"TEST_CFG_SWEEP_INTERVAL" envDefault:"1m"`
	Brokers       []string      `env:"TEST_CFG_BROKERS" envDefault:"localhost:9092" envSeparator:","`
}

type validatedConfig struct {
	Port int `env:"PORT" envDefault:"8080"`
}

func (c *validatedConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("invalid port")
	}
	return nil
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_SWEEP_INTERVAL", "30s")
	t.Setenv("TEST_CFG_BROKERS", "kafka-1:9092,kafka-2:9092")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "not-a-number")

	var cfg testConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadWithOptions_RunsValidate(t *testing.T) {
	var cfg validatedConfig
	err := LoadWithOptions(&cfg, env.Options{Prefix: "FG_", Environment: map[string]string{"FG_PORT": "70000"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config: invalid port")

	cfg = validatedConfig{}
	require.NoError(t, LoadWithOptions(&cfg, env.Options{Prefix: "FG_", Environment: map[string]string{"FG_PORT": "8081"}}))
	assert.Equal(t, 8081, cfg.Port)
}
