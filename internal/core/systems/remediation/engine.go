// Package remediation is the reconciliation engine: bounded, idempotent
// passes that converge abandoned, condemned and collapsed buildings to a
// desired state, plus the orphaned-notification scrub.
package remediation

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zeusync/remedy/internal/core/commands"
	"github.com/zeusync/remedy/internal/core/events"
	"github.com/zeusync/remedy/internal/core/events/bus"
	"github.com/zeusync/remedy/internal/core/lifecycle"
	"github.com/zeusync/remedy/internal/core/models"
	"github.com/zeusync/remedy/internal/core/notify"
	"github.com/zeusync/remedy/internal/core/observability/log"
	"github.com/zeusync/remedy/internal/core/requests"
	"github.com/zeusync/remedy/internal/core/status"
	"github.com/zeusync/remedy/internal/core/storage/interfaces"
	"github.com/zeusync/remedy/internal/core/systems"
)

const engineName = "remediation"

var _ systems.System = (*Engine)(nil)

// Report summarizes one activation.
type Report struct {
	Activated     bool
	Unloaded      bool
	Processed     int
	Orphans       int
	Notifications int
	Recounted     bool
}

type Option func(*Engine)

func WithBus(b bus.EventBus) Option {
	return func(e *Engine) { e.bus = b }
}

func WithLogger(l log.Log) Option {
	return func(e *Engine) { e.logger = l }
}

// WithLiveMode overrides the host mode treated as a playable world.
func WithLiveMode(m models.Mode) Option {
	return func(e *Engine) { e.liveMode = m }
}

// Engine drives the passes from host activations. Host notifications and
// OnActivate must come from a single goroutine; requests, settings and
// status may be touched concurrently by the operator surface.
type Engine struct {
	store    interfaces.EntityStore
	host     lifecycle.Host
	requests *requests.Queue
	status   *status.Aggregator
	life     *lifecycle.Controller
	actor    actor
	liveMode models.Mode

	primary  [models.CategoryCount][2]*Pass
	icons    [models.CategoryCount][2]*Pass
	scrubber *Scrubber

	settings atomic.Pointer[Settings]
	metrics  systems.Recorder
	bus      bus.EventBus
	logger   log.Log
}

func NewEngine(
	store interfaces.EntityStore,
	host lifecycle.Host,
	lookup notify.Lookup,
	reqs *requests.Queue,
	agg *status.Aggregator,
	settings Settings,
	opts ...Option,
) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		store:    store,
		host:     host,
		requests: reqs,
		status:   agg,
		liveMode: models.ModeGame,
		scrubber: NewScrubber(store),
		logger:   log.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named(engineName)

	capacity := settings.RestoreAllCap * int(models.CategoryCount)
	e.actor = actor{store: store, lookup: lookup, commands: commands.NewBuffer(capacity)}
	for _, c := range models.Categories {
		for _, a := range []models.Action{models.ActionRestore, models.ActionRemove} {
			e.primary[c][a] = newPass(store, c, a)
			e.icons[c][a] = newIconPass(store, c, a)
		}
	}
	e.settings.Store(&settings)

	lifeOpts := []lifecycle.Option{lifecycle.WithLogger(e.logger)}
	if e.bus != nil {
		lifeOpts = append(lifeOpts, lifecycle.WithBus(e.bus))
	}
	e.life = lifecycle.New(e.liveMode, reqs, agg, lifeOpts...)
	return e, nil
}

func (e *Engine) Name() string    { return engineName }
func (e *Engine) IsEnabled() bool { return e.life.Enabled() }

func (e *Engine) GetMetrics() systems.Metrics { return e.metrics.Snapshot() }

// PassMetrics returns per-pass metrics keyed by pass name.
func (e *Engine) PassMetrics() map[string]systems.Metrics {
	out := make(map[string]systems.Metrics, 4*int(models.CategoryCount)+1)
	for _, c := range models.Categories {
		for _, p := range e.primary[c] {
			out[p.Name()] = p.GetMetrics()
		}
		for _, p := range e.icons[c] {
			out[p.Name()] = p.GetMetrics()
		}
	}
	out["scrub_orphans"] = e.scrubber.GetMetrics()
	return out
}

func (e *Engine) Lifecycle() *lifecycle.Controller { return e.life }
func (e *Engine) Requests() *requests.Queue        { return e.requests }
func (e *Engine) Status() *status.Aggregator       { return e.status }

// Settings returns the current settings snapshot.
func (e *Engine) Settings() Settings { return *e.settings.Load() }

// SetSettings swaps the settings used from the next activation on. Any
// change to what runs flags the status view as stale.
func (e *Engine) SetSettings(s Settings) error {
	_, err := e.UpdateSettings(func(Settings) Settings { return s })
	return err
}

// UpdateSettings derives new settings from the current ones and installs
// them atomically. fn may run more than once when updates race, so it must
// be free of side effects.
func (e *Engine) UpdateSettings(fn func(Settings) Settings) (Settings, error) {
	for {
		prev := e.settings.Load()
		next := fn(*prev)
		if err := next.Validate(); err != nil {
			return *prev, err
		}
		if !e.settings.CompareAndSwap(prev, &next) {
			continue
		}
		if prev.Toggles != next.Toggles || prev.Automatic != next.Automatic {
			e.logger.Info("settings changed", log.Any("toggles", next.Toggles), log.Bool("automatic", next.Automatic))
			e.status.MarkStale()
		}
		return next, nil
	}
}

// OnWorldPreload is the host's "preload begins" notification.
func (e *Engine) OnWorldPreload(mode models.Mode) {
	e.actor.commands.Discard()
	e.life.OnPreload(mode)
}

// OnWorldLoadComplete is the host's "loading complete" notification.
func (e *Engine) OnWorldLoadComplete(mode models.Mode) {
	e.life.OnLoadComplete(mode)
}

// OnActivate runs one scheduled activation to completion.
func (e *Engine) OnActivate() Report {
	if !e.life.ShouldActivate() {
		return Report{}
	}
	start := time.Now()
	report := Report{Activated: true}

	if e.life.CheckUnload(e.host.CurrentMode()) {
		report.Unloaded = true
		e.metrics.Observe(start, time.Since(start), 0)
		return report
	}

	refresh := e.requests.TryConsume(requests.RefreshCount)
	restoreAll := e.requests.TryConsume(requests.RestoreAll)
	runNow := e.requests.TryConsume(requests.RunNow)
	scrub := e.requests.TryConsume(requests.ScrubOrphans)

	if !e.life.WorldReady() {
		if refresh || restoreAll || runNow || scrub {
			e.status.ReportNoWorld()
		}
		e.life.Disarm()
		e.metrics.Observe(start, time.Since(start), 0)
		return report
	}

	firstCount := e.life.ConsumeFirstCount()
	s := e.settings.Load()

	if restoreAll {
		report.Processed += e.restoreAll(s)
	}
	if s.Automatic || runNow {
		report.Processed += e.runToggled(s)
	}
	if s.Toggles.ScrubOrphans || scrub {
		report.Orphans = e.scrubber.Run()
	}
	report.Notifications = e.actor.commands.Flush(e.store)

	if report.Processed > 0 || refresh || firstCount {
		e.status.Recount()
		report.Recounted = true
	}

	e.metrics.Observe(start, time.Since(start), report.Processed)
	if report.Processed > 0 || report.Orphans > 0 {
		e.logger.Debug("activation completed",
			log.Int("processed", report.Processed),
			log.Int("orphans", report.Orphans),
			log.Int("notifications", report.Notifications),
			log.Bool("recounted", report.Recounted),
		)
	}
	return report
}

// runToggled runs the enabled pass of every category in category order.
func (e *Engine) runToggled(s *Settings) int {
	total := 0
	for _, c := range models.Categories {
		action, ok := s.Toggles.ActionFor(c)
		if !ok {
			continue
		}
		deep := action == models.ActionRestore && s.Toggles.DeepRestore
		total += e.run(e.primary[c][action], s.BatchCap, deep)
		if s.Toggles.IconOnly {
			total += e.run(e.icons[c][action], s.BatchCap, deep)
		}
	}
	return total
}

// restoreAll is the operator's one-shot "fix everything" request: every
// restore pass, deep, bounded by the restore-all cap, regardless of toggles.
func (e *Engine) restoreAll(s *Settings) int {
	total := 0
	for _, c := range models.Categories {
		total += e.run(e.primary[c][models.ActionRestore], s.RestoreAllCap, true)
		total += e.run(e.icons[c][models.ActionRestore], s.RestoreAllCap, true)
	}
	e.logger.Info("restore-all completed", log.Int("processed", total))
	return total
}

func (e *Engine) run(p *Pass, limit int, deep bool) int {
	start := time.Now()
	n := p.Run(&e.actor, limit, deep)
	if n == 0 {
		return 0
	}
	took := time.Since(start)
	e.logger.Debug("pass completed",
		log.String("pass", p.Name()),
		log.Int("processed", n),
		log.Bool("deep", deep),
		log.Duration("took", took),
	)
	if e.bus != nil {
		err := e.bus.Publish(bus.NewEvent(events.TypePassCompleted, engineName, events.PassCompleted{
			Pass:      p.Name(),
			Category:  p.Category(),
			Action:    p.Action(),
			IconOnly:  p.IconOnly(),
			Processed: n,
			Took:      took,
		}))
		if err != nil {
			e.logger.Warn("pass subscriber failed", log.String("pass", p.Name()), log.Error(err))
		}
	}
	return n
}

func (e *Engine) String() string {
	return fmt.Sprintf("%s(state=%s, enabled=%t)", engineName, e.life.State(), e.life.Enabled())
}
