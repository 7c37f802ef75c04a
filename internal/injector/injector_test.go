package injector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/remedy/internal/config"
	"github.com/zeusync/remedy/internal/core/models"
	"github.com/zeusync/remedy/internal/core/systems/remediation"
)

func TestInitializeApp(t *testing.T) {
	cfg := config.Default()
	cfg.LiveMode = models.ModeEditor.String()
	cfg.Remediation.Toggles.DeepRestore = true

	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, models.ModeEditor, app.Engine.Lifecycle().LiveMode())
	assert.True(t, app.Engine.Settings().Toggles.DeepRestore)
	assert.True(t, app.Engine.Status().HasSink(), "server hub is attached as the status sink")
	assert.Equal(t, uint64(2), app.Bus.GetMetrics().SubscribersActive, "server forwards pass and lifecycle events")

	app.Host.LoadWorld(app.Engine, models.ModeEditor)
	assert.True(t, app.Engine.Lifecycle().WorldReady())
	assert.Positive(t, app.Bus.GetMetrics().DeliveredHandlers)
}

func TestInitializeAppRejectsInvalidSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Remediation.BatchCap = 0

	_, _, err := InitializeApp(cfg)
	assert.ErrorIs(t, err, remediation.ErrInvalidSettings)
}
