package remediation

import (
	"github.com/zeusync/remedy/internal/core/commands"
	"github.com/zeusync/remedy/internal/core/models"
	"github.com/zeusync/remedy/internal/core/notify"
	"github.com/zeusync/remedy/internal/core/storage/interfaces"
)

// ownedKinds are the child lists removed together with their owner.
var ownedKinds = [...]models.Tag{models.SubAreas, models.SubLanes, models.SubNets}

// actor holds the removal and restoration logic shared by every pass.
// Every mutation is presence-guarded by the store, so applying an action
// to an entity already in the target state changes nothing except the
// Updated nudges.
type actor struct {
	store    interfaces.EntityStore
	lookup   notify.Lookup
	commands *commands.Buffer
}

func (a *actor) apply(id models.EntityID, c models.Category, action models.Action, deep bool) {
	if action == models.ActionRemove {
		a.remove(id)
		return
	}
	a.restore(id, c, deep)
}

// remove marks id and its owned children PendingRemoval. The link neighbor
// is nudged first while the reference is still guaranteed readable.
func (a *actor) remove(id models.EntityID) {
	a.nudgeLink(id)
	a.store.AddTag(id, models.PendingRemoval)
	for _, kind := range ownedKinds {
		for _, child := range a.store.Owned(id, kind) {
			a.store.AddTag(child, models.PendingRemoval)
		}
	}
}

// restore converges id to a healthy, listed building.
func (a *actor) restore(id models.EntityID, c models.Category, deep bool) {
	a.store.RemoveTag(id, c.Tag())
	a.clearNotification(id, c)
	if deep {
		for _, other := range models.Categories {
			if other != c && a.store.RemoveTag(id, other.Tag()) {
				a.clearNotification(id, other)
			}
		}
	}

	a.store.RemoveTag(id, models.OnMarket)
	a.store.AddTag(id, models.ToBeOnMarket)

	if _, ok := a.store.Condition(id); ok {
		a.store.SetCondition(id, models.MinCondition)
	}
	for _, svc := range models.ServiceTags {
		a.store.AddService(id, models.ServicePresence{Tag: svc})
	}

	a.store.AddTag(id, models.Updated)
	a.nudgeLink(id)
}

func (a *actor) nudgeLink(id models.EntityID) {
	link := a.store.Link(id)
	if link == models.Nil || a.store.Has(link, models.PendingRemoval) || a.store.Has(link, models.Transient) {
		return
	}
	a.store.AddTag(link, models.Updated)
}

func (a *actor) clearNotification(id models.EntityID, c models.Category) {
	if a.lookup == nil {
		return
	}
	if prefab, ok := a.lookup.Prefab(c); ok && !a.commands.Queued(id, prefab) {
		a.commands.RemoveNotification(id, prefab)
	}
}

// hasNotification reports whether id still shows a live notification of
// prefab that is not already queued for removal this activation.
func (a *actor) hasNotification(id models.EntityID, prefab models.PrefabID) bool {
	if a.commands.Queued(id, prefab) {
		return false
	}
	for _, icon := range a.store.Notifications(id) {
		n, ok := a.store.Notification(icon)
		if ok && n.Prefab == prefab && !a.store.Has(icon, models.PendingRemoval) {
			return true
		}
	}
	return false
}
