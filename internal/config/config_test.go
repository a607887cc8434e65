package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "./gen", cfg.Output.Dir)
	assert.False(t, cfg.Output.AllowUnsafe)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "", cfg.Templates.Dir)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ecsgen.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[output]
dir = "./build"
allow_unsafe = true

[log]
level = "debug"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./build", cfg.Output.Dir)
	assert.True(t, cfg.Output.AllowUnsafe)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ecsgen.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[output]
dir = "./build"

[log]
level = "debug"
`), 0o644))

	t.Setenv("ECSGEN_OUTPUT_DIR", "./override")
	t.Setenv("ECSGEN_LOG_LEVEL", "warn")
	t.Setenv("ECSGEN_ALLOW_UNSAFE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./override", cfg.Output.Dir)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Output.AllowUnsafe)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ecsgen.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[log]
level = "verbose"
`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
