// Package status aggregates category counts into the operator status line.
//
// Counts are recomputed only on demand: an explicit refresh, the first
// activation after a world loads, or a pass that reported work. Between
// recounts the view is memoized, and any configuration change flags it as
// stale until the next real count.
package status

import (
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/remedy/internal/core/events"
	"github.com/zeusync/remedy/internal/core/events/bus"
	"github.com/zeusync/remedy/internal/core/models"
	"github.com/zeusync/remedy/internal/core/observability/log"
	"github.com/zeusync/remedy/internal/core/query"
	"github.com/zeusync/remedy/internal/core/storage/interfaces"
)

const source = "status"

// Sink is the operator-visible panel. Publish is only called when the
// rendered text actually changed, in the same order the view changed.
// Implementations must not call back into the aggregator.
type Sink interface {
	Publish(View)
}

type Option func(*Aggregator)

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func WithSink(sink Sink) Option {
	return func(a *Aggregator) { a.sink = sink }
}

func WithBus(b bus.EventBus) Option {
	return func(a *Aggregator) { a.bus = b }
}

func WithLogger(l log.Log) Option {
	return func(a *Aggregator) { a.logger = l }
}

type Aggregator struct {
	// pub serializes a view change with its delivery so the sink never
	// ends up behind View. It is taken before mu.
	pub      sync.Mutex
	mu       sync.Mutex
	queries  [models.CategoryCount]query.Query
	now      func() time.Time
	sink     Sink
	bus      bus.EventBus
	logger   log.Log
	view     View
	lastHash uint64
	recounts uint64
}

func New(scanner interfaces.Scanner, opts ...Option) *Aggregator {
	a := &Aggregator{
		now:    time.Now,
		logger: log.NewNop(),
		view:   View{Line: NoWorldLine},
	}
	for _, c := range models.Categories {
		a.queries[c] = query.New(scanner, query.Desc{
			All:  []models.Tag{models.Building, c.Tag()},
			None: []models.Tag{models.PendingRemoval, models.Transient},
		})
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Attach installs the operator panel after construction and hands it the
// current view.
func (a *Aggregator) Attach(sink Sink) {
	a.pub.Lock()
	defer a.pub.Unlock()

	a.mu.Lock()
	a.sink = sink
	v := a.view
	a.lastHash = hashView(v)
	a.mu.Unlock()

	sink.Publish(v)
}

// HasSink reports whether an operator panel is attached.
func (a *Aggregator) HasSink() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sink != nil
}

// Recount evaluates the three count queries and clears staleness.
func (a *Aggregator) Recount() View {
	var counts Counts
	for _, c := range models.Categories {
		counts.set(c, a.queries[c].Count())
	}

	v := a.update(func(View) View {
		return View{
			Line:        counts.Line(),
			Counts:      counts,
			CountedAt:   a.now(),
			CountedNow:  true,
			WorldLoaded: true,
		}
	}, true)

	a.logger.Debug("status recounted",
		log.Int("abandoned", counts.Abandoned),
		log.Int("condemned", counts.Condemned),
		log.Int("collapsed", counts.Collapsed),
	)
	return v
}

// ReportNoWorld shows the liveness message with no timestamp.
func (a *Aggregator) ReportNoWorld() {
	a.update(func(View) View { return View{Line: NoWorldLine} }, false)
}

// MarkStale flags the current counts as out of date. It is a no-op while
// no world is loaded since there are no counts to distrust.
func (a *Aggregator) MarkStale() View {
	return a.update(func(v View) View {
		if v.WorldLoaded {
			v.Stale = true
			v.CountedNow = false
		}
		return v
	}, false)
}

// update applies fn to the view and forwards the result while still
// holding pub, so concurrent changes reach the sink in order.
func (a *Aggregator) update(fn func(View) View, counted bool) View {
	a.pub.Lock()
	defer a.pub.Unlock()

	a.mu.Lock()
	a.view = fn(a.view)
	if counted {
		a.recounts++
	}
	v := a.view
	a.mu.Unlock()

	a.emit(v)
	return v
}

// View returns the memoized view without recounting.
func (a *Aggregator) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// Recounts is the number of real counts performed.
func (a *Aggregator) Recounts() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recounts
}

// emit forwards v when its rendered text differs from the last emitted
// view. Must be called with pub held.
func (a *Aggregator) emit(v View) {
	h := hashView(v)

	a.mu.Lock()
	if h == a.lastHash {
		a.mu.Unlock()
		return
	}
	a.lastHash = h
	sink, b := a.sink, a.bus
	a.mu.Unlock()

	if sink != nil {
		sink.Publish(v)
	}
	if b != nil {
		if err := b.Publish(bus.NewEvent(events.TypeStatusUpdated, source, v)); err != nil {
			a.logger.Warn("status subscriber failed", log.Error(err))
		}
	}
}

// hashView covers everything Text shows, the timestamp included.
func hashView(v View) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(v.Text())
	_, _ = d.WriteString("|loaded=")
	_, _ = d.WriteString(strconv.FormatBool(v.WorldLoaded))
	return d.Sum64()
}
