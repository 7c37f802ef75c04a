package host

import (
	"github.com/zeusync/remedy/internal/core/models"
)

// Seeding mix, as fractions of the configured building count.
const (
	seedCategorized  = 0.10
	seedStaleIcon    = 0.03
	seedTransient    = 0.02
	seedLinked       = 0.50
	childrenPerOwner = 2
)

var ownedKinds = [...]models.Tag{models.SubAreas, models.SubLanes, models.SubNets}

// seed populates a live world: healthy buildings with conditions, services,
// links and owned children, a share of them already abandoned, condemned or
// collapsed with their notifications, a few carrying a notification for a
// category they no longer have, and some transient ones.
func (h *Host) seed() {
	n := h.cfg.Buildings
	for i := 0; i < n; i++ {
		tags := models.Tags(models.Building, models.Condition, models.OnMarket)
		for _, svc := range models.ServiceTags {
			if h.rng.IntN(4) > 0 {
				tags = tags.With(svc)
			}
		}
		if h.rng.Float64() < seedTransient {
			tags = tags.With(models.Transient)
		}
		id := h.store.Create(tags)
		h.store.SetCondition(id, float32(h.rng.IntN(100)))

		for _, kind := range ownedKinds {
			for j := 0; j < childrenPerOwner; j++ {
				h.store.AddOwned(id, kind, h.store.Create(0))
			}
		}
		h.buildings = append(h.buildings, id)
	}

	for _, id := range h.buildings {
		if len(h.buildings) > 1 && h.rng.Float64() < seedLinked {
			h.store.SetLink(id, h.buildings[h.rng.IntN(len(h.buildings))])
		}
		switch r := h.rng.Float64(); {
		case r < seedCategorized:
			h.degrade(id, h.randomCategory())
		case r < seedCategorized+seedStaleIcon:
			c := h.randomCategory()
			h.store.AttachNotification(id, h.prefabs[c])
		}
	}
}

// decay moves random healthy buildings into a category each tick, and
// occasionally lets a categorized one recover on its own while keeping its
// notification.
func (h *Host) decay() {
	if len(h.buildings) == 0 || h.cfg.DecayChance <= 0 {
		return
	}
	if h.rng.Float64() >= h.cfg.DecayChance {
		return
	}
	id := h.buildings[h.rng.IntN(len(h.buildings))]
	tags := h.store.Tags(id)
	if tags.Has(models.PendingRemoval) {
		return
	}
	if tags.Intersects(models.CategoryTags) {
		for _, c := range models.Categories {
			h.store.RemoveTag(id, c.Tag())
		}
		return
	}
	h.degrade(id, h.randomCategory())
}

func (h *Host) degrade(id models.EntityID, c models.Category) {
	if !h.store.AddTag(id, c.Tag()) {
		return
	}
	h.store.RemoveTag(id, models.ToBeOnMarket)
	h.store.AttachNotification(id, h.prefabs[c])
}

func (h *Host) randomCategory() models.Category {
	return models.Categories[h.rng.IntN(len(models.Categories))]
}
