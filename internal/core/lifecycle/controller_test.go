package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/remedy/internal/core/events"
	"github.com/zeusync/remedy/internal/core/events/bus"
	"github.com/zeusync/remedy/internal/core/models"
	"github.com/zeusync/remedy/internal/core/requests"
)

type fakeReporter struct {
	sink    bool
	noWorld int
}

func (r *fakeReporter) HasSink() bool  { return r.sink }
func (r *fakeReporter) ReportNoWorld() { r.noWorld++ }

func newController(sink bool) (*Controller, *requests.Queue, *fakeReporter) {
	q := requests.New()
	r := &fakeReporter{sink: sink}
	return New(models.ModeGame, q, r), q, r
}

func TestLoadIntoLiveWorld(t *testing.T) {
	c, q, r := newController(true)
	q.Raise(requests.RunNow)
	assert.Equal(t, NoWorld, c.State())

	c.OnPreload(models.ModeGame)
	assert.Equal(t, WorldLoading, c.State())
	assert.True(t, c.Enabled())
	assert.False(t, q.Pending(), "preload clears pending one-shot flags")
	assert.Equal(t, 1, r.noWorld)

	c.OnLoadComplete(models.ModeGame)
	assert.True(t, c.WorldReady())
	assert.True(t, c.ConsumeFirstCount())
	assert.False(t, c.ConsumeFirstCount(), "first count fires once")
}

func TestPreloadWithoutPanelDoesNotReport(t *testing.T) {
	c, _, r := newController(false)
	c.OnPreload(models.ModeGame)
	assert.Zero(t, r.noWorld)
}

func TestLoadIntoNonLiveMode(t *testing.T) {
	c, _, _ := newController(true)
	c.OnPreload(models.ModeEditor)
	assert.False(t, c.Enabled())

	c.OnLoadComplete(models.ModeEditor)
	assert.Equal(t, NoWorld, c.State())
	assert.False(t, c.ShouldActivate())
	assert.False(t, c.ConsumeFirstCount())
}

func TestUnloadDetectedDuringActivation(t *testing.T) {
	c, _, r := newController(true)
	c.OnPreload(models.ModeGame)
	c.OnLoadComplete(models.ModeGame)

	assert.False(t, c.CheckUnload(models.ModeGame))
	assert.True(t, c.CheckUnload(models.ModeMainMenu))
	assert.Equal(t, NoWorld, c.State())
	assert.False(t, c.Enabled())
	assert.Equal(t, 2, r.noWorld)
	assert.False(t, c.CheckUnload(models.ModeMainMenu), "already unloaded")
}

func TestRequestReArmsActivation(t *testing.T) {
	c, q, _ := newController(true)
	assert.False(t, c.ShouldActivate())

	q.Raise(requests.RunNow)
	assert.True(t, c.ShouldActivate())
	assert.True(t, c.Enabled())
	assert.Equal(t, NoWorld, c.State(), "load state untouched")

	c.Disarm()
	assert.False(t, c.Enabled())
}

func TestTransitionsArePublished(t *testing.T) {
	b := bus.New()
	var seen []Transition
	_, err := b.Subscribe(events.TypeLifecycleChanged, func(e bus.Event) error {
		seen = append(seen, e.Data().(Transition))
		return nil
	})
	require.NoError(t, err)

	c := New(models.ModeGame, requests.New(), nil, WithBus(b))
	c.OnPreload(models.ModeGame)
	c.OnLoadComplete(models.ModeGame)
	c.CheckUnload(models.ModeMainMenu)

	require.Len(t, seen, 3)
	assert.Equal(t, Transition{From: NoWorld, To: WorldLoading, Mode: models.ModeGame, Enabled: true}, seen[0])
	assert.Equal(t, WorldReady, seen[1].To)
	assert.Equal(t, Transition{From: WorldReady, To: NoWorld, Mode: models.ModeMainMenu, Enabled: false}, seen[2])
}
