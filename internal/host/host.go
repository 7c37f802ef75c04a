// Package host simulates the world the remediation engine runs inside: it
// owns the entity store, drives the load lifecycle, advances ticks and
// schedules activations.
package host

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/zeusync/remedy/internal/config"
	"github.com/zeusync/remedy/internal/core/models"
	"github.com/zeusync/remedy/internal/core/notify"
	"github.com/zeusync/remedy/internal/core/observability/log"
	"github.com/zeusync/remedy/internal/core/storage/memory"
	"github.com/zeusync/remedy/internal/core/systems/remediation"
)

// DefaultPrefabs is the notification prefab table published once the
// simulated world finished loading its notification assets.
var DefaultPrefabs = notify.Table{
	models.CategoryAbandoned: 9001,
	models.CategoryCondemned: 9002,
	models.CategoryCollapsed: 9003,
}

// System is the scheduled processor the host drives.
type System interface {
	OnWorldPreload(mode models.Mode)
	OnWorldLoadComplete(mode models.Mode)
	OnActivate() remediation.Report
}

type Option func(*Host)

func WithLogger(l log.Log) Option {
	return func(h *Host) { h.logger = l }
}

// WithPrefabs overrides the table published to the lookup.
func WithPrefabs(t notify.Table) Option {
	return func(h *Host) { h.prefabs = t }
}

// Host runs the simulation. All world mutation happens on the goroutine
// calling Run or Tick; CurrentMode and the counters are safe to read from
// anywhere.
type Host struct {
	cfg     config.HostConfig
	live    models.Mode
	store   *memory.Store
	lookup  *notify.Singleton
	prefabs notify.Table
	rng     *rand.Rand

	mode        atomic.Uint32
	ticks       atomic.Uint64
	activations atomic.Uint64
	loadedAt    uint64

	buildings []models.EntityID
	logger    log.Log
}

// New builds a host. Non-positive scheduling values fall back to activating
// on every tick of the default interval.
func New(cfg config.HostConfig, live models.Mode, store *memory.Store, lookup *notify.Singleton, opts ...Option) *Host {
	if cfg.ActivateEvery <= 0 {
		cfg.ActivateEvery = 1
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = config.Default().Host.TickInterval
	}
	seed := uint64(cfg.Seed)
	h := &Host{
		cfg:     cfg,
		live:    live,
		store:   store,
		lookup:  lookup,
		prefabs: DefaultPrefabs,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		logger:  log.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.Named("host")
	h.mode.Store(uint32(models.ModeMainMenu))
	return h
}

func (h *Host) CurrentMode() models.Mode { return models.Mode(h.mode.Load()) }

func (h *Host) Ticks() uint64       { return h.ticks.Load() }
func (h *Host) Activations() uint64 { return h.activations.Load() }

func (h *Host) Store() *memory.Store { return h.store }

// LoadWorld replaces the current world with a freshly seeded one in mode
// and walks sys through preload and load-complete. The prefab table is
// withdrawn during load and republished after the configured delay.
func (h *Host) LoadWorld(sys System, mode models.Mode) {
	h.lookup.Publish(nil)
	sys.OnWorldPreload(mode)
	h.mode.Store(uint32(mode))

	h.store.Reset()
	h.buildings = h.buildings[:0]
	if mode == h.live {
		h.seed()
	}
	h.loadedAt = h.ticks.Load()
	if h.cfg.LookupDelay <= 0 {
		h.lookup.Publish(&h.prefabs)
	}

	sys.OnWorldLoadComplete(mode)
	h.logger.Info("world loaded",
		log.Stringer("mode", mode),
		log.Int("entities", h.store.Len()),
		log.Int("buildings", len(h.buildings)),
	)
}

// Unload leaves the live world for the main menu without notifying sys;
// the engine notices on its next activation.
func (h *Host) Unload() {
	h.mode.Store(uint32(models.ModeMainMenu))
	h.logger.Info("world unloaded")
}

// Tick advances the world by one frame and activates sys when due.
func (h *Host) Tick(sys System) {
	tick := h.ticks.Add(1)

	if h.CurrentMode() == h.live {
		if h.cfg.LookupDelay > 0 && !h.lookup.Available() && tick-h.loadedAt >= uint64(h.cfg.LookupDelay) {
			h.lookup.Publish(&h.prefabs)
			h.logger.Debug("notification prefabs published", log.Uint64("tick", tick))
		}
		h.decay()
	}

	if tick%uint64(h.cfg.ActivateEvery) == 0 {
		h.activations.Add(1)
		report := sys.OnActivate()
		if report.Unloaded {
			h.logger.Info("engine observed unload", log.Uint64("tick", tick))
		}
	}

	// End of frame: removals take effect and Updated nudges are consumed.
	if swept := h.store.Sweep(); swept > 0 {
		h.compact()
	}
	h.store.ClearTag(models.Updated)
}

// Run loads the live world and ticks until ctx is done.
func (h *Host) Run(ctx context.Context, sys System) error {
	h.LoadWorld(sys, h.live)

	ticker := time.NewTicker(h.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("host stopped", log.Uint64("ticks", h.Ticks()), log.Uint64("activations", h.Activations()))
			return nil
		case <-ticker.C:
			h.Tick(sys)
		}
	}
}

// compact drops destroyed buildings from the decay candidates.
func (h *Host) compact() {
	live := h.buildings[:0]
	for _, id := range h.buildings {
		if h.store.Exists(id) {
			live = append(live, id)
		}
	}
	h.buildings = live
}
