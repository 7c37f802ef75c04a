// Package injector wires remedyd together with google/wire.
package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/remedy/internal/config"
	"github.com/zeusync/remedy/internal/core/events/bus"
	"github.com/zeusync/remedy/internal/core/lifecycle"
	"github.com/zeusync/remedy/internal/core/notify"
	"github.com/zeusync/remedy/internal/core/observability/log"
	"github.com/zeusync/remedy/internal/core/requests"
	"github.com/zeusync/remedy/internal/core/status"
	"github.com/zeusync/remedy/internal/core/storage/memory"
	"github.com/zeusync/remedy/internal/core/systems/remediation"
	"github.com/zeusync/remedy/internal/host"
	"github.com/zeusync/remedy/internal/server"
)

// entitiesPerBuilding sizes the arena: the building, its owned children
// and a notification or two.
const entitiesPerBuilding = 8

// App is the fully wired daemon.
type App struct {
	Config config.Config
	Logger *log.Logger
	Bus    bus.EventBus
	Host   *host.Host
	Engine *remediation.Engine
	Server *server.Server
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	bus.New,
	ProvideStore,
	notify.NewSingleton,
	requests.New,
	ProvideHost,
	wire.Bind(new(lifecycle.Host), new(*host.Host)),
	wire.Bind(new(notify.Lookup), new(*notify.Singleton)),
	ProvideAggregator,
	ProvideEngine,
	ProvideServer,
	wire.Struct(new(App), "*"),
)

// ProvideLogger builds the process logger at the configured level. The
// cleanup flushes it.
func ProvideLogger(cfg config.Config) (*log.Logger, func()) {
	l := log.New(cfg.Level())
	return l, func() { _ = l.Sync() }
}

func ProvideStore(cfg config.Config) *memory.Store {
	return memory.NewWithCapacity(cfg.Host.Buildings * entitiesPerBuilding)
}

func ProvideHost(cfg config.Config, store *memory.Store, lookup *notify.Singleton, l log.Log) *host.Host {
	return host.New(cfg.Host, cfg.Mode(), store, lookup, host.WithLogger(l))
}

func ProvideAggregator(store *memory.Store, b bus.EventBus, l log.Log) *status.Aggregator {
	return status.New(store, status.WithBus(b), status.WithLogger(l.Named("status")))
}

func ProvideEngine(
	cfg config.Config,
	store *memory.Store,
	h lifecycle.Host,
	lookup notify.Lookup,
	reqs *requests.Queue,
	agg *status.Aggregator,
	b bus.EventBus,
	l log.Log,
) (*remediation.Engine, error) {
	return remediation.NewEngine(store, h, lookup, reqs, agg, cfg.Remediation,
		remediation.WithLiveMode(cfg.Mode()),
		remediation.WithBus(b),
		remediation.WithLogger(l),
	)
}

func ProvideServer(cfg config.Config, e *remediation.Engine, b bus.EventBus, l log.Log) *server.Server {
	return server.New(cfg.Server, e, server.WithBus(b), server.WithLogger(l))
}
