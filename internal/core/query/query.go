// Package query implements reusable tag predicates over an entity store.
//
// A Query is declared once and evaluated many times. Neither iteration nor
// counting allocates: Iter returns a value-type cursor and Count defers to
// the store's per-tag-set bookkeeping.
package query

import (
	"github.com/zeusync/remedy/internal/core/models"
	"github.com/zeusync/remedy/internal/core/storage/interfaces"
)

// Query matches entities carrying every tag of All and none of None.
// A required child list is expressed by its presence tag in All.
type Query struct {
	scanner interfaces.Scanner
	all     models.TagSet
	none    models.TagSet
}

// Desc describes a query before it is bound to a store.
type Desc struct {
	All  []models.Tag
	None []models.Tag
	// Buffer, when set, requires the entity to carry that child list.
	Buffer *models.Tag
}

func New(scanner interfaces.Scanner, desc Desc) Query {
	all := models.Tags(desc.All...)
	if desc.Buffer != nil {
		all = all.With(*desc.Buffer)
	}
	return Query{
		scanner: scanner,
		all:     all,
		none:    models.Tags(desc.None...),
	}
}

// WithBuffer is a convenience for Desc.Buffer.
func WithBuffer(tag models.Tag) *models.Tag { return &tag }

func (q Query) All() models.TagSet  { return q.all }
func (q Query) None() models.TagSet { return q.none }

// Matches evaluates the predicate against a tag set.
func (q Query) Matches(tags models.TagSet) bool {
	return tags.Matches(q.all, q.none)
}

// Count returns the number of matching entities without traversing them.
func (q Query) Count() int {
	return q.scanner.CountMatching(q.all, q.none)
}

// Empty reports whether nothing matches.
func (q Query) Empty() bool {
	return q.Count() == 0
}

// Iter starts a lazy traversal over matches. The predicate is re-evaluated
// at every step, so tags changed mid-traversal are observed: an entity
// marked PendingRemoval ahead of the cursor is skipped.
func (q Query) Iter() Iter {
	return Iter{q: q, next: 0, cur: models.Nil}
}

// Each visits at most limit matches (limit <= 0 means unbounded) and
// returns how many were visited. fn returning false stops the traversal.
func (q Query) Each(limit int, fn func(models.EntityID) bool) int {
	n := 0
	it := q.Iter()
	for it.Next() {
		n++
		if !fn(it.Entity()) {
			break
		}
		if limit > 0 && n >= limit {
			break
		}
	}
	return n
}

// Iter is a restartable cursor over a Query's matches.
type Iter struct {
	q    Query
	next int
	cur  models.EntityID
}

// Next advances to the next match.
func (it *Iter) Next() bool {
	capacity := it.q.scanner.Capacity()
	for it.next < capacity {
		id, tags, ok := it.q.scanner.EntityAt(it.next)
		it.next++
		if ok && tags.Matches(it.q.all, it.q.none) {
			it.cur = id
			return true
		}
	}
	it.cur = models.Nil
	return false
}

// Entity is the current match.
func (it *Iter) Entity() models.EntityID { return it.cur }

// Reset rewinds the cursor to the beginning.
func (it *Iter) Reset() {
	it.next = 0
	it.cur = models.Nil
}
