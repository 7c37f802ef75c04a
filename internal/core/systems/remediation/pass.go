package remediation

import (
	"time"

	"github.com/zeusync/remedy/internal/core/models"
	"github.com/zeusync/remedy/internal/core/query"
	"github.com/zeusync/remedy/internal/core/storage/interfaces"
	"github.com/zeusync/remedy/internal/core/systems"
)

// Pass is one (category, action) remediation over the entities matching its
// query. Passes re-scan from the start each activation; entities they
// already handled drop out of the query (category tag cleared or marked
// PendingRemoval), so the next activation picks up where this one stopped.
type Pass struct {
	name     string
	category models.Category
	action   models.Action
	iconOnly bool
	query    query.Query
	metrics  systems.Recorder
}

func newPass(scanner interfaces.Scanner, c models.Category, a models.Action) *Pass {
	return &Pass{
		name:     a.String() + "_" + c.String(),
		category: c,
		action:   a,
		query: query.New(scanner, query.Desc{
			All:  []models.Tag{models.Building, c.Tag()},
			None: []models.Tag{models.PendingRemoval, models.Transient},
		}),
	}
}

// newIconPass matches buildings that lost the category tag but still carry
// the category's notification.
func newIconPass(scanner interfaces.Scanner, c models.Category, a models.Action) *Pass {
	return &Pass{
		name:     a.String() + "_" + c.String() + "_icons",
		category: c,
		action:   a,
		iconOnly: true,
		query: query.New(scanner, query.Desc{
			All:    []models.Tag{models.Building},
			None:   []models.Tag{c.Tag(), models.PendingRemoval, models.Transient},
			Buffer: query.WithBuffer(models.IconBuffer),
		}),
	}
}

func (p *Pass) Name() string                { return p.name }
func (p *Pass) Category() models.Category   { return p.category }
func (p *Pass) Action() models.Action       { return p.action }
func (p *Pass) IconOnly() bool              { return p.iconOnly }
func (p *Pass) Query() query.Query          { return p.query }
func (p *Pass) GetMetrics() systems.Metrics { return p.metrics.Snapshot() }

// Run applies the pass to at most limit matches and returns how many were
// processed. Zero means nothing matched.
func (p *Pass) Run(a *actor, limit int, deep bool) int {
	start := time.Now()
	n := 0
	if limit > 0 && !p.query.Empty() {
		if p.iconOnly {
			n = p.runIcons(a, limit, deep)
		} else {
			n = p.runPrimary(a, limit, deep)
		}
	}
	p.metrics.Observe(start, time.Since(start), n)
	return n
}

func (p *Pass) runPrimary(a *actor, limit int, deep bool) int {
	return p.query.Each(limit, func(id models.EntityID) bool {
		a.apply(id, p.category, p.action, deep)
		return true
	})
}

// runIcons needs the category-to-prefab lookup; without it the pass
// reports no work and is retried next activation.
func (p *Pass) runIcons(a *actor, limit int, deep bool) int {
	if a.lookup == nil {
		return 0
	}
	prefab, ok := a.lookup.Prefab(p.category)
	if !ok {
		return 0
	}

	n := 0
	it := p.query.Iter()
	for n < limit && it.Next() {
		id := it.Entity()
		if !a.hasNotification(id, prefab) {
			continue
		}
		a.apply(id, p.category, p.action, deep)
		if p.action == models.ActionRemove {
			a.commands.RemoveNotification(id, prefab)
		}
		n++
	}
	return n
}
