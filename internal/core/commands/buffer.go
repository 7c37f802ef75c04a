package commands

import (
	"github.com/zeusync/remedy/internal/core/models"
	"github.com/zeusync/remedy/internal/core/storage/interfaces"
)

// RemoveNotification asks for every notification of Prefab attached to
// Owner to be removed.
type RemoveNotification struct {
	Owner  models.EntityID
	Prefab models.PrefabID
}

// Buffer accumulates notification removals while queries are iterating and
// applies them at a single synchronization point, so child lists are never
// mutated under an in-progress traversal.
type Buffer struct {
	pending []RemoveNotification
	queued  map[RemoveNotification]struct{}
}

func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		pending: make([]RemoveNotification, 0, capacity),
		queued:  make(map[RemoveNotification]struct{}, capacity),
	}
}

// RemoveNotification queues a removal. A removal already queued is not
// queued twice.
func (b *Buffer) RemoveNotification(owner models.EntityID, prefab models.PrefabID) {
	if owner == models.Nil || prefab == models.NoPrefab {
		return
	}
	cmd := RemoveNotification{Owner: owner, Prefab: prefab}
	if _, ok := b.queued[cmd]; ok {
		return
	}
	b.queued[cmd] = struct{}{}
	b.pending = append(b.pending, cmd)
}

func (b *Buffer) Len() int { return len(b.pending) }

// Queued reports whether a removal for (owner, prefab) is already pending.
func (b *Buffer) Queued(owner models.EntityID, prefab models.PrefabID) bool {
	_, ok := b.queued[RemoveNotification{Owner: owner, Prefab: prefab}]
	return ok
}

// Pending returns the queued commands. Callers must not retain the slice.
func (b *Buffer) Pending() []RemoveNotification { return b.pending }

// Discard drops every queued command.
func (b *Buffer) Discard() { b.reset() }

func (b *Buffer) reset() {
	b.pending = b.pending[:0]
	clear(b.queued)
}

// Flush applies and clears the queue. Each matching notification entity is
// marked PendingRemoval and unlinked from its owner. It returns how many
// notification entities were marked.
func (b *Buffer) Flush(store interfaces.EntityStore) int {
	removed := 0
	for _, cmd := range b.pending {
		removed += removeNotifications(store, cmd)
	}
	b.reset()
	return removed
}

func removeNotifications(store interfaces.EntityStore, cmd RemoveNotification) int {
	removed := 0
	icons := store.Notifications(cmd.Owner)
	for i := 0; i < len(icons); {
		icon := icons[i]
		n, ok := store.Notification(icon)
		if ok && n.Prefab != cmd.Prefab {
			i++
			continue
		}
		// Either a match or a dangling reference; both leave the list.
		if ok && store.AddTag(icon, models.PendingRemoval) {
			removed++
		}
		store.UnlinkNotification(cmd.Owner, icon)
		icons = store.Notifications(cmd.Owner)
	}
	return removed
}
