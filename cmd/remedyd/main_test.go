package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/remedy/internal/config"
	"github.com/zeusync/remedy/internal/core/observability/log"
	"github.com/zeusync/remedy/internal/injector"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { configPath = "" })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCheckConfigPrintsEffectiveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remedy.toml")
	require.NoError(t, os.WriteFile(path, []byte("[remediation]\nbatch_cap = 4\n"), 0o600))

	out, err := execute(t, "check-config", "--config", path)
	require.NoError(t, err)

	var printed config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &printed))
	assert.Equal(t, 4, printed.Remediation.BatchCap)
	assert.Equal(t, config.Default().Host, printed.Host)
}

func TestCheckConfigRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remedy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("live_mode: lobby\n"), 0o600))

	_, err := execute(t, "check-config", "-c", path)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRequestRejectsUnknownIntent(t *testing.T) {
	_, err := execute(t, "request", "explode")
	assert.Error(t, err)
}

func TestReloaderAppliesSettingsAndLevel(t *testing.T) {
	app, cleanup, err := injector.InitializeApp(config.Default())
	require.NoError(t, err)
	defer cleanup()

	next := config.Default()
	next.LogLevel = "debug"
	next.Remediation.Toggles.RestoreAbandoned = true
	require.NoError(t, reloader(app)(next))
	assert.True(t, app.Engine.Settings().Toggles.RestoreAbandoned)
	assert.Equal(t, log.LevelDebug, app.Logger.GetLevel())

	bad := config.Default()
	bad.Remediation.RestoreAllCap = 0
	assert.Error(t, reloader(app)(bad))
	assert.True(t, app.Engine.Settings().Toggles.RestoreAbandoned, "rejected reload keeps previous settings")
}
