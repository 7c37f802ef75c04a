package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/remedy/internal/core/models"
	"github.com/zeusync/remedy/internal/core/observability/log"
	"github.com/zeusync/remedy/internal/core/systems/remediation"
)

const sampleYAML = `
log_level: debug
live_mode: game
host:
  tick_interval: 20ms
  activate_every: 4
  buildings: 50
server:
  listen_addr: ":9000"
remediation:
  automatic: false
  batch_cap: 5
  restore_all_cap: 100
  toggles:
    restore_condemned: true
    icon_only: true
`

const sampleTOML = `
log_level = "warn"
live_mode = "editor"

[host]
tick_interval = "1s"
decay_chance = 0.5

[remediation]
batch_cap = 7

[remediation.toggles]
remove_collapsed = true
`

func TestParseYAML(t *testing.T) {
	cfg, err := Parse(".yaml", []byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, log.LevelDebug, cfg.Level())
	assert.Equal(t, models.ModeGame, cfg.Mode())
	assert.Equal(t, 20*time.Millisecond, cfg.Host.TickInterval)
	assert.Equal(t, 4, cfg.Host.ActivateEvery)
	assert.Equal(t, 50, cfg.Host.Buildings)
	assert.Equal(t, Default().Host.DecayChance, cfg.Host.DecayChance, "unset keys keep defaults")
	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, Default().Server.WriteTimeout, cfg.Server.WriteTimeout)

	want := remediation.Settings{
		Automatic:     false,
		BatchCap:      5,
		RestoreAllCap: 100,
		Toggles: remediation.Toggles{
			// Nested maps are merged into the defaults.
			RemoveAbandoned:  true,
			RemoveCollapsed:  true,
			ScrubOrphans:     true,
			RestoreCondemned: true,
			IconOnly:         true,
		},
	}
	assert.Equal(t, want, cfg.Remediation)
}

func TestParseTOML(t *testing.T) {
	cfg, err := Parse(".toml", []byte(sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, log.LevelWarn, cfg.Level())
	assert.Equal(t, models.ModeEditor, cfg.Mode())
	assert.Equal(t, time.Second, cfg.Host.TickInterval)
	assert.Equal(t, 0.5, cfg.Host.DecayChance)
	assert.Equal(t, 7, cfg.Remediation.BatchCap)
	assert.Equal(t, remediation.DefaultRestoreAllCap, cfg.Remediation.RestoreAllCap)
	assert.True(t, cfg.Remediation.Toggles.RemoveCollapsed)
}

func TestParseEmptyYieldsDefaults(t *testing.T) {
	cfg, err := Parse(".yml", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		data string
		want error
	}{
		{"unknown extension", ".ini", "", ErrUnsupportedFormat},
		{"unknown live mode", ".yaml", "live_mode: lobby", ErrInvalidConfig},
		{"zero batch cap", ".yaml", "remediation:\n  batch_cap: 0", remediation.ErrInvalidSettings},
		{"zero activation period", ".toml", "[host]\nactivate_every = 0", ErrInvalidConfig},
		{"decay out of range", ".toml", "[host]\ndecay_chance = 2.0", ErrInvalidConfig},
		{"unknown toml key", ".toml", "listen = 1", ErrInvalidConfig},
		{"missing listen addr", ".yaml", "server:\n  listen_addr: ''", ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.ext, []byte(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := Parse(".yaml", []byte("bogus_key: 1"))
	assert.Error(t, err, "unknown yaml keys are rejected")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "remedy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Remediation.BatchCap)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
