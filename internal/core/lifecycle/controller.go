// Package lifecycle tracks whether a workable world is loaded and gates the
// remediation engine accordingly.
package lifecycle

import (
	"fmt"
	"sync/atomic"

	"github.com/zeusync/remedy/internal/core/events"
	"github.com/zeusync/remedy/internal/core/events/bus"
	"github.com/zeusync/remedy/internal/core/models"
	"github.com/zeusync/remedy/internal/core/observability/log"
	"github.com/zeusync/remedy/internal/core/requests"
)

type State uint32

const (
	NoWorld State = iota
	WorldLoading
	WorldReady
)

func (s State) String() string {
	switch s {
	case NoWorld:
		return "no_world"
	case WorldLoading:
		return "world_loading"
	case WorldReady:
		return "world_ready"
	default:
		return fmt.Sprintf("state(%d)", uint32(s))
	}
}

// Host reports the mode the host is currently running.
type Host interface {
	CurrentMode() models.Mode
}

// Reporter is the part of the status aggregator the controller drives.
type Reporter interface {
	HasSink() bool
	ReportNoWorld()
}

// Transition is the payload of events.TypeLifecycleChanged.
type Transition struct {
	From    State
	To      State
	Mode    models.Mode
	Enabled bool
}

type Option func(*Controller)

func WithBus(b bus.EventBus) Option {
	return func(c *Controller) { c.bus = b }
}

func WithLogger(l log.Log) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller is the NoWorld -> WorldLoading -> WorldReady state machine.
// Host notifications and activations arrive on one goroutine; state reads
// are atomic so the operator surface may observe them concurrently.
type Controller struct {
	live       models.Mode
	state      atomic.Uint32
	enabled    atomic.Bool
	firstCount atomic.Bool

	requests *requests.Queue
	reporter Reporter
	bus      bus.EventBus
	logger   log.Log
}

func New(live models.Mode, reqs *requests.Queue, reporter Reporter, opts ...Option) *Controller {
	c := &Controller{
		live:     live,
		requests: reqs,
		reporter: reporter,
		logger:   log.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State          { return State(c.state.Load()) }
func (c *Controller) Enabled() bool         { return c.enabled.Load() }
func (c *Controller) WorldReady() bool      { return c.State() == WorldReady }
func (c *Controller) LiveMode() models.Mode { return c.live }

// OnPreload handles the host's "preload begins" notification.
func (c *Controller) OnPreload(mode models.Mode) {
	c.enabled.Store(mode == c.live)
	c.firstCount.Store(false)
	c.requests.Clear()
	c.transition(WorldLoading, mode)

	if c.reporter != nil && c.reporter.HasSink() {
		c.reporter.ReportNoWorld()
	}
}

// OnLoadComplete handles the host's "loading complete" notification.
func (c *Controller) OnLoadComplete(mode models.Mode) {
	if mode != c.live {
		c.enabled.Store(false)
		c.firstCount.Store(false)
		c.transition(NoWorld, mode)
		return
	}
	c.firstCount.Store(true)
	c.enabled.Store(true)
	c.transition(WorldReady, mode)
}

// CheckUnload runs at the start of an activation. It reports true when the
// host left the live mode, in which case the world is dropped, the status
// shows "no world loaded" and activation stays disabled until the next
// preload.
func (c *Controller) CheckUnload(current models.Mode) bool {
	if c.State() != WorldReady || current == c.live {
		return false
	}
	c.enabled.Store(false)
	c.firstCount.Store(false)
	c.transition(NoWorld, current)
	if c.reporter != nil {
		c.reporter.ReportNoWorld()
	}
	return true
}

// ShouldActivate gates an activation. Any raised request re-arms activation
// without touching the world-load state.
func (c *Controller) ShouldActivate() bool {
	if c.enabled.Load() {
		return true
	}
	if c.requests.Pending() {
		c.enabled.Store(true)
		c.logger.Debug("activation re-armed by operator request")
		return true
	}
	return false
}

// Disarm stops scheduled activation. Used after a request was served while
// no world is ready.
func (c *Controller) Disarm() {
	c.enabled.Store(false)
}

// ConsumeFirstCount returns true once per load.
func (c *Controller) ConsumeFirstCount() bool {
	return c.firstCount.Swap(false)
}

func (c *Controller) transition(to State, mode models.Mode) {
	from := State(c.state.Swap(uint32(to)))
	t := Transition{From: from, To: to, Mode: mode, Enabled: c.enabled.Load()}

	c.logger.Info("lifecycle transition",
		log.Stringer("from", from),
		log.Stringer("to", to),
		log.Stringer("mode", mode),
		log.Bool("enabled", t.Enabled),
	)
	if c.bus != nil {
		if err := c.bus.Publish(bus.NewEvent(events.TypeLifecycleChanged, "lifecycle", t)); err != nil {
			c.logger.Warn("lifecycle subscriber failed", log.Error(err))
		}
	}
}
