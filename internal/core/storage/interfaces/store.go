package interfaces

import (
	"errors"

	"github.com/zeusync/remedy/internal/core/models"
)

var ErrEntityNotFound = errors.New("entity not found")

// Scanner is the read side a predicate query needs: positional access to
// every arena slot plus an accelerated cardinality count.
type Scanner interface {
	// Capacity is the number of arena slots, live or not.
	Capacity() int
	// EntityAt returns the handle and tags stored at slot index.
	// ok is false for free slots.
	EntityAt(index int) (id models.EntityID, tags models.TagSet, ok bool)
	// CountMatching counts live entities carrying all of all and none of none.
	CountMatching(all, none models.TagSet) int
}

// EntityStore is the shared, mutable collection of tagged entities.
// Every mutator reports whether it changed anything, so callers can stay
// idempotent by construction. Mutating a missing entity is a no-op.
type EntityStore interface {
	Scanner

	Exists(models.EntityID) bool
	Tags(models.EntityID) models.TagSet
	Has(models.EntityID, models.Tag) bool
	AddTag(models.EntityID, models.Tag) bool
	RemoveTag(models.EntityID, models.Tag) bool

	Condition(models.EntityID) (float32, bool)
	SetCondition(models.EntityID, float32) bool

	// AddService attaches a service marker with its payload if absent.
	AddService(models.EntityID, models.ServicePresence) bool

	// Link is the optional non-owning neighbor reference.
	Link(models.EntityID) models.EntityID

	// Notification returns the payload of a notification entity.
	Notification(models.EntityID) (models.Notification, bool)
	// Notifications is the owner's icon child list. Callers must not retain it.
	Notifications(owner models.EntityID) []models.EntityID
	// UnlinkNotification drops icon from the owner's child list.
	UnlinkNotification(owner, icon models.EntityID) bool

	// Owned returns the owned child list registered under one of
	// SubAreas, SubLanes or SubNets.
	Owned(models.EntityID, models.Tag) []models.EntityID
}
