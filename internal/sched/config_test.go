package sched

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")
	data := []byte(`
name: sensors
id_limit: 10
outcome_capacity: -4
default_group: io
stop_when_suspended: false
log_level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sensors", cfg.Name)
	assert.Equal(t, uint64(10), cfg.IDLimit)
	assert.Equal(t, 128, cfg.OutcomeCapacity)
	assert.Equal(t, "io", cfg.DefaultGroup)
	assert.False(t, cfg.StopWhenSuspended)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("id_limit: [1, 2"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
