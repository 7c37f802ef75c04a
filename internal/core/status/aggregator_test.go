package status

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/remedy/internal/core/events"
	"github.com/zeusync/remedy/internal/core/events/bus"
	"github.com/zeusync/remedy/internal/core/models"
	"github.com/zeusync/remedy/internal/core/observability/log"
	"github.com/zeusync/remedy/internal/core/storage/memory"
)

type recordingSink struct {
	views []View
}

func (s *recordingSink) Publish(v View) { s.views = append(s.views, v) }

func (s *recordingSink) last() View { return s.views[len(s.views)-1] }

type lockedSink struct {
	mu sync.Mutex
	recordingSink
}

func (s *lockedSink) Publish(v View) {
	s.mu.Lock()
	s.recordingSink.Publish(v)
	s.mu.Unlock()
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return func() time.Time { return t }
}

func populate(s *memory.Store) {
	for i := 0; i < 3; i++ {
		s.Create(models.Tags(models.Building, models.Abandoned))
	}
	s.Create(models.Tags(models.Building, models.Abandoned, models.Condemned))
	s.Create(models.Tags(models.Building, models.Collapsed, models.PendingRemoval))
	s.Create(models.Tags(models.Building, models.Collapsed, models.Transient))
	s.Create(models.Tags(models.Building, models.Collapsed))
}

func TestRecountRendersLine(t *testing.T) {
	s := memory.New()
	populate(s)
	a := New(s, WithClock(fixedClock()))

	v := a.Recount()
	assert.Equal(t, "Abandoned: 4 | Condemned: 1 | Collapsed: 1", v.Line)
	assert.Equal(t, Counts{Abandoned: 4, Condemned: 1, Collapsed: 1}, v.Counts)
	assert.True(t, v.CountedNow)
	assert.False(t, v.Stale)
	assert.Equal(t, "Abandoned: 4 | Condemned: 1 | Collapsed: 1 (updated 09:26:53)", v.Text())
	assert.Equal(t, uint64(1), a.Recounts())
}

func TestStaleUntilNextRecount(t *testing.T) {
	s := memory.New()
	populate(s)
	a := New(s, WithClock(fixedClock()))
	a.Recount()

	v := a.MarkStale()
	assert.True(t, v.Stale)
	assert.False(t, v.CountedNow)
	assert.Contains(t, v.Text(), "stale")
	assert.True(t, a.View().Stale, "view stays stale without a recount")

	v = a.Recount()
	assert.False(t, v.Stale)
	assert.True(t, v.CountedNow)
}

func TestNoWorldHasNoTimestamp(t *testing.T) {
	a := New(memory.New(), WithClock(fixedClock()))
	a.Recount()

	a.ReportNoWorld()
	v := a.View()
	assert.Equal(t, NoWorldLine, v.Text())
	assert.True(t, v.CountedAt.IsZero())
	assert.False(t, v.WorldLoaded)

	v = a.MarkStale()
	assert.False(t, v.Stale, "nothing to distrust without a world")
}

func TestEmitDeduplicatesIdenticalViews(t *testing.T) {
	s := memory.New()
	populate(s)
	sink := &recordingSink{}
	b := bus.New()
	published := 0
	_, err := b.Subscribe(events.TypeStatusUpdated, func(e bus.Event) error {
		_, ok := e.Data().(View)
		assert.True(t, ok)
		published++
		return nil
	})
	require.NoError(t, err)

	a := New(s, WithSink(sink), WithBus(b), WithClock(fixedClock()))
	assert.True(t, a.HasSink())

	a.Recount()
	a.Recount()
	require.Len(t, sink.views, 1)

	a.MarkStale()
	a.MarkStale()
	require.Len(t, sink.views, 2)

	a.Recount()
	require.Len(t, sink.views, 3)
	assert.Equal(t, 3, published)

	s.Create(models.Tags(models.Building, models.Condemned))
	a.Recount()
	require.Len(t, sink.views, 4)
	assert.Equal(t, 2, sink.views[3].Counts.Condemned)
}

func TestAttachSink(t *testing.T) {
	a := New(memory.New())
	assert.False(t, a.HasSink())
	sink := &recordingSink{}
	a.Attach(sink)
	assert.True(t, a.HasSink())
	a.ReportNoWorld()
	assert.Len(t, sink.views, 1)
}

func TestAttachReplaysCurrentView(t *testing.T) {
	s := memory.New()
	populate(s)
	a := New(s, WithClock(fixedClock()))
	a.Recount()

	sink := &recordingSink{}
	a.Attach(sink)
	require.Len(t, sink.views, 1)
	assert.Equal(t, a.View(), sink.views[0])

	a.Recount()
	assert.Len(t, sink.views, 1, "replayed view is not sent twice")
}

func TestRecountEmitsRefreshedTimestamp(t *testing.T) {
	s := memory.New()
	populate(s)
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	sink := &recordingSink{}
	a := New(s, WithSink(sink), WithClock(func() time.Time { return now }))

	a.Recount()
	now = now.Add(time.Hour)
	a.Recount()

	require.Len(t, sink.views, 2)
	assert.Contains(t, sink.last().Text(), "(updated 11:00:00)")
	assert.Equal(t, a.View().Text(), sink.last().Text())
}

func TestStaleDuringRecountReachesSinkLast(t *testing.T) {
	s := memory.New()
	populate(s)
	sink := &recordingSink{}

	var a *Aggregator
	hook := func(e zapcore.Entry) error {
		if e.Message == "status recounted" {
			a.MarkStale()
		}
		return nil
	}
	core, _ := observer.New(zapcore.DebugLevel)
	logger := log.NewWithCore(zapcore.RegisterHooks(core, hook))
	a = New(s, WithSink(sink), WithClock(fixedClock()), WithLogger(logger))

	a.Recount()

	require.True(t, a.View().Stale)
	require.Len(t, sink.views, 2)
	assert.True(t, sink.last().Stale)
	assert.Equal(t, a.View(), sink.last())
}

func TestConcurrentChangesKeepSinkInStep(t *testing.T) {
	s := memory.New()
	populate(s)
	sink := &lockedSink{}
	var tick sync.Mutex
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		tick.Lock()
		defer tick.Unlock()
		now = now.Add(time.Second)
		return now
	}
	a := New(s, WithSink(sink), WithClock(clock))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if (i+j)%3 == 0 {
					a.MarkStale()
				} else {
					a.Recount()
				}
			}
		}(i)
	}
	wg.Wait()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, a.View().Text(), sink.last().Text())
}
