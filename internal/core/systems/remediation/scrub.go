package remediation

import (
	"time"

	"github.com/zeusync/remedy/internal/core/models"
	"github.com/zeusync/remedy/internal/core/query"
	"github.com/zeusync/remedy/internal/core/storage/interfaces"
	"github.com/zeusync/remedy/internal/core/systems"
)

// Scrubber removes notification entities whose owner is gone: null,
// missing from the store, or already PendingRemoval. An owner that merely
// lost a category tag keeps its notifications.
//
// The scrub is uncapped so every orphan present at the start of a run is
// marked within that run.
type Scrubber struct {
	store   interfaces.EntityStore
	query   query.Query
	metrics systems.Recorder
}

func NewScrubber(store interfaces.EntityStore) *Scrubber {
	return &Scrubber{
		store: store,
		query: query.New(store, query.Desc{
			All:  []models.Tag{models.Icon},
			None: []models.Tag{models.PendingRemoval},
		}),
	}
}

func (s *Scrubber) GetMetrics() systems.Metrics { return s.metrics.Snapshot() }

// Run marks every orphaned notification and returns how many it marked.
func (s *Scrubber) Run() int {
	start := time.Now()
	n := 0
	if s.query.Empty() {
		s.metrics.Observe(start, time.Since(start), 0)
		return 0
	}
	it := s.query.Iter()
	for it.Next() {
		icon := it.Entity()
		notification, ok := s.store.Notification(icon)
		if !ok || !s.orphaned(notification.Owner) {
			continue
		}
		if s.store.AddTag(icon, models.PendingRemoval) {
			n++
		}
	}
	s.metrics.Observe(start, time.Since(start), n)
	return n
}

func (s *Scrubber) orphaned(owner models.EntityID) bool {
	return owner == models.Nil ||
		!s.store.Exists(owner) ||
		s.store.Has(owner, models.PendingRemoval)
}
