// Package notify maps remediation categories to the notification prefab
// the host spawns for them.
package notify

import (
	"sync/atomic"

	"github.com/zeusync/remedy/internal/core/models"
)

// Lookup resolves the notification prefab registered for a category.
// ok is false when the category has no prefab or the table is not loaded.
type Lookup interface {
	Prefab(models.Category) (models.PrefabID, bool)
}

// Table is a fixed category-to-prefab mapping.
type Table [models.CategoryCount]models.PrefabID

func (t Table) Prefab(c models.Category) (models.PrefabID, bool) {
	if c >= models.CategoryCount || t[c] == models.NoPrefab {
		return models.NoPrefab, false
	}
	return t[c], true
}

// Singleton is a Lookup that becomes available only once the host has
// published its table. Until then every category resolves to nothing.
type Singleton struct {
	table atomic.Pointer[Table]
}

func NewSingleton() *Singleton {
	return &Singleton{}
}

// Publish installs the table. A nil table makes the lookup unavailable.
func (s *Singleton) Publish(t *Table) {
	s.table.Store(t)
}

func (s *Singleton) Available() bool {
	return s.table.Load() != nil
}

func (s *Singleton) Prefab(c models.Category) (models.PrefabID, bool) {
	t := s.table.Load()
	if t == nil {
		return models.NoPrefab, false
	}
	return t.Prefab(c)
}
