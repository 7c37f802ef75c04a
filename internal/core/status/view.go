package status

import (
	"fmt"
	"time"

	"github.com/zeusync/remedy/internal/core/models"
)

const (
	NoWorldLine = "No world loaded"
	staleHint   = "stale, refresh to recount"
	timeLayout  = "15:04:05"
)

// Counts holds one population per category.
type Counts struct {
	Abandoned int `json:"abandoned"`
	Condemned int `json:"condemned"`
	Collapsed int `json:"collapsed"`
}

func (c Counts) Get(cat models.Category) int {
	switch cat {
	case models.CategoryAbandoned:
		return c.Abandoned
	case models.CategoryCondemned:
		return c.Condemned
	case models.CategoryCollapsed:
		return c.Collapsed
	default:
		return 0
	}
}

func (c *Counts) set(cat models.Category, n int) {
	switch cat {
	case models.CategoryAbandoned:
		c.Abandoned = n
	case models.CategoryCondemned:
		c.Condemned = n
	case models.CategoryCollapsed:
		c.Collapsed = n
	}
}

// Line renders "Abandoned: A | Condemned: C | Collapsed: X".
func (c Counts) Line() string {
	return fmt.Sprintf("%s: %d | %s: %d | %s: %d",
		models.CategoryAbandoned.Label(), c.Abandoned,
		models.CategoryCondemned.Label(), c.Condemned,
		models.CategoryCollapsed.Label(), c.Collapsed,
	)
}

// View is what the operator surface shows.
type View struct {
	Line        string    `json:"line"`
	Counts      Counts    `json:"counts"`
	CountedAt   time.Time `json:"counted_at,omitzero"`
	CountedNow  bool      `json:"counted_now"`
	Stale       bool      `json:"stale"`
	WorldLoaded bool      `json:"world_loaded"`
}

// Text is the single human-readable status string.
func (v View) Text() string {
	switch {
	case !v.WorldLoaded:
		return v.Line
	case v.Stale:
		return v.Line + " (" + staleHint + ")"
	case !v.CountedAt.IsZero():
		return v.Line + " (updated " + v.CountedAt.Format(timeLayout) + ")"
	default:
		return v.Line
	}
}
