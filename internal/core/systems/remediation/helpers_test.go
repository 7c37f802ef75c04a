package remediation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/remedy/internal/core/commands"
	"github.com/zeusync/remedy/internal/core/models"
	"github.com/zeusync/remedy/internal/core/notify"
	"github.com/zeusync/remedy/internal/core/requests"
	"github.com/zeusync/remedy/internal/core/status"
	"github.com/zeusync/remedy/internal/core/storage/memory"
)

const (
	abandonedPrefab models.PrefabID = 101
	condemnedPrefab models.PrefabID = 102
	collapsedPrefab models.PrefabID = 103
)

var prefabs = notify.Table{abandonedPrefab, condemnedPrefab, collapsedPrefab}

type fakeHost struct {
	mode models.Mode
}

func (h *fakeHost) CurrentMode() models.Mode { return h.mode }

type fixture struct {
	store  *memory.Store
	host   *fakeHost
	lookup *notify.Singleton
	status *status.Aggregator
	engine *Engine
}

func newFixture(t *testing.T, settings Settings) *fixture {
	t.Helper()
	f := &fixture{
		store:  memory.New(),
		host:   &fakeHost{mode: models.ModeGame},
		lookup: notify.NewSingleton(),
	}
	f.lookup.Publish(&prefabs)
	f.status = status.New(f.store, status.WithClock(func() time.Time {
		return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	}))
	e, err := NewEngine(f.store, f.host, f.lookup, requests.New(), f.status, settings)
	require.NoError(t, err)
	f.engine = e
	return f
}

// load walks the engine through a full world load.
func (f *fixture) load() {
	f.engine.OnWorldPreload(models.ModeGame)
	f.engine.OnWorldLoadComplete(models.ModeGame)
}

// endTick is what the host does after systems ran: pending removals vanish
// and Updated nudges are consumed downstream.
func (f *fixture) endTick() {
	f.store.Sweep()
	f.store.ClearTag(models.Updated)
}

func (f *fixture) building(tags ...models.Tag) models.EntityID {
	return f.store.Create(models.Tags(append(tags, models.Building)...))
}

func settingsWith(mutate func(*Toggles)) Settings {
	s := DefaultSettings()
	s.Toggles = Toggles{}
	mutate(&s.Toggles)
	return s
}

func newActor(s *memory.Store, lookup notify.Lookup) *actor {
	return &actor{store: s, lookup: lookup, commands: commands.NewBuffer(8)}
}
