package memory

import (
	"slices"

	"github.com/zeusync/remedy/internal/core/models"
	"github.com/zeusync/remedy/internal/core/storage/interfaces"
)

var _ interfaces.EntityStore = (*Store)(nil)

const ownedKinds = 3

type record struct {
	version uint32
	alive   bool
	tags    models.TagSet

	condition    float32
	link         models.EntityID
	notification models.Notification
	icons        []models.EntityID
	owned        [ownedKinds][]models.EntityID
	services     [len(models.ServiceTags)]models.ServicePresence
}

// Store is an arena-backed entity store. Slots are recycled with a bumped
// version so stale handles stop resolving. Per-tag-set population counts
// are kept so CountMatching is proportional to the number of distinct tag
// sets rather than the number of entities.
//
// Store is not safe for concurrent use; the host owns it.
type Store struct {
	records    []record
	free       []uint32
	archetypes map[models.TagSet]int
	alive      int
}

func New() *Store {
	return &Store{
		archetypes: make(map[models.TagSet]int),
	}
}

// NewWithCapacity preallocates the arena.
func NewWithCapacity(n int) *Store {
	s := New()
	s.records = make([]record, 0, n)
	return s
}

// Create allocates a live entity carrying tags.
func (s *Store) Create(tags models.TagSet) models.EntityID {
	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = uint32(len(s.records))
		s.records = append(s.records, record{})
	}

	r := &s.records[idx]
	version := r.version + 1
	*r = record{version: version, alive: true, tags: tags}
	if tags.Has(models.Condition) {
		r.condition = models.MinCondition
	}
	for i, t := range models.ServiceTags {
		if tags.Has(t) {
			r.services[i] = models.ServicePresence{Tag: t}
		}
	}

	s.archetypes[tags]++
	s.alive++
	return models.NewEntityID(idx, version)
}

// Destroy frees the slot. Stale handles stop resolving immediately.
func (s *Store) Destroy(id models.EntityID) bool {
	r := s.get(id)
	if r == nil {
		return false
	}
	s.dec(r.tags)
	version := r.version
	*r = record{version: version}
	s.free = append(s.free, id.Index())
	s.alive--
	return true
}

// Sweep destroys every PendingRemoval entity, as the host does at the end
// of a tick, and returns how many were destroyed.
func (s *Store) Sweep() int {
	n := 0
	for i := range s.records {
		r := &s.records[i]
		if !r.alive || !r.tags.Has(models.PendingRemoval) {
			continue
		}
		if s.Destroy(models.NewEntityID(uint32(i), r.version)) {
			n++
		}
	}
	return n
}

// ClearTag removes tag from every live entity and returns the count.
func (s *Store) ClearTag(tag models.Tag) int {
	n := 0
	for i := range s.records {
		r := &s.records[i]
		if r.alive && r.tags.Has(tag) {
			s.setTags(r, r.tags.Without(tag))
			n++
		}
	}
	return n
}

// Reset destroys every live entity, as a world unload does. Versions are
// kept so handles from the previous world never resolve again.
func (s *Store) Reset() int {
	n := 0
	for i := range s.records {
		r := &s.records[i]
		if r.alive && s.Destroy(models.NewEntityID(uint32(i), r.version)) {
			n++
		}
	}
	return n
}

func (s *Store) Len() int { return s.alive }

func (s *Store) Capacity() int { return len(s.records) }

func (s *Store) EntityAt(index int) (models.EntityID, models.TagSet, bool) {
	if index < 0 || index >= len(s.records) {
		return models.Nil, 0, false
	}
	r := &s.records[index]
	if !r.alive {
		return models.Nil, 0, false
	}
	return models.NewEntityID(uint32(index), r.version), r.tags, true
}

func (s *Store) CountMatching(all, none models.TagSet) int {
	n := 0
	for tags, count := range s.archetypes {
		if tags.Matches(all, none) {
			n += count
		}
	}
	return n
}

func (s *Store) Exists(id models.EntityID) bool {
	return s.get(id) != nil
}

func (s *Store) Tags(id models.EntityID) models.TagSet {
	if r := s.get(id); r != nil {
		return r.tags
	}
	return 0
}

func (s *Store) Has(id models.EntityID, tag models.Tag) bool {
	return s.Tags(id).Has(tag)
}

func (s *Store) AddTag(id models.EntityID, tag models.Tag) bool {
	r := s.get(id)
	if r == nil || r.tags.Has(tag) {
		return false
	}
	s.setTags(r, r.tags.With(tag))
	return true
}

func (s *Store) RemoveTag(id models.EntityID, tag models.Tag) bool {
	r := s.get(id)
	if r == nil || !r.tags.Has(tag) {
		return false
	}
	s.setTags(r, r.tags.Without(tag))
	if i := serviceIndex(tag); i >= 0 {
		r.services[i] = models.ServicePresence{}
	}
	return true
}

func (s *Store) Condition(id models.EntityID) (float32, bool) {
	r := s.get(id)
	if r == nil || !r.tags.Has(models.Condition) {
		return 0, false
	}
	return r.condition, true
}

// SetCondition writes the decay scalar, adding the Condition tag if needed.
func (s *Store) SetCondition(id models.EntityID, value float32) bool {
	r := s.get(id)
	if r == nil {
		return false
	}
	if r.tags.Has(models.Condition) && r.condition == value {
		return false
	}
	r.condition = value
	if !r.tags.Has(models.Condition) {
		s.setTags(r, r.tags.With(models.Condition))
	}
	return true
}

func (s *Store) AddService(id models.EntityID, svc models.ServicePresence) bool {
	i := serviceIndex(svc.Tag)
	r := s.get(id)
	if i < 0 || r == nil || r.tags.Has(svc.Tag) {
		return false
	}
	r.services[i] = svc
	s.setTags(r, r.tags.With(svc.Tag))
	return true
}

// Service returns the payload of a present service marker.
func (s *Store) Service(id models.EntityID, tag models.Tag) (models.ServicePresence, bool) {
	i := serviceIndex(tag)
	r := s.get(id)
	if i < 0 || r == nil || !r.tags.Has(tag) {
		return models.ServicePresence{}, false
	}
	return r.services[i], true
}

func (s *Store) Link(id models.EntityID) models.EntityID {
	if r := s.get(id); r != nil {
		return r.link
	}
	return models.Nil
}

func (s *Store) SetLink(id, neighbor models.EntityID) bool {
	r := s.get(id)
	if r == nil {
		return false
	}
	r.link = neighbor
	return true
}

// AttachNotification creates a notification entity owned by owner and
// appends it to the owner's icon list. A Nil owner creates an unowned icon.
func (s *Store) AttachNotification(owner models.EntityID, prefab models.PrefabID) models.EntityID {
	icon := s.Create(models.Tags(models.Icon))
	s.records[icon.Index()].notification = models.Notification{Owner: owner, Prefab: prefab}

	if r := s.get(owner); r != nil {
		r.icons = append(r.icons, icon)
		if !r.tags.Has(models.IconBuffer) {
			s.setTags(r, r.tags.With(models.IconBuffer))
		}
	}
	return icon
}

func (s *Store) Notification(id models.EntityID) (models.Notification, bool) {
	r := s.get(id)
	if r == nil || !r.tags.Has(models.Icon) {
		return models.Notification{}, false
	}
	return r.notification, true
}

func (s *Store) Notifications(owner models.EntityID) []models.EntityID {
	if r := s.get(owner); r != nil {
		return r.icons
	}
	return nil
}

// UnlinkNotification removes icon from the owner's list. The buffer tag
// stays even when the list becomes empty, matching a persistent child list.
func (s *Store) UnlinkNotification(owner, icon models.EntityID) bool {
	r := s.get(owner)
	if r == nil {
		return false
	}
	i := slices.Index(r.icons, icon)
	if i < 0 {
		return false
	}
	r.icons = slices.Delete(r.icons, i, i+1)
	return true
}

// AddOwned registers child under parent's owned list of the given kind.
func (s *Store) AddOwned(parent models.EntityID, kind models.Tag, child models.EntityID) bool {
	k := ownedIndex(kind)
	r := s.get(parent)
	if k < 0 || r == nil {
		return false
	}
	r.owned[k] = append(r.owned[k], child)
	if !r.tags.Has(kind) {
		s.setTags(r, r.tags.With(kind))
	}
	return true
}

func (s *Store) Owned(id models.EntityID, kind models.Tag) []models.EntityID {
	k := ownedIndex(kind)
	r := s.get(id)
	if k < 0 || r == nil {
		return nil
	}
	return r.owned[k]
}

func (s *Store) get(id models.EntityID) *record {
	if id == models.Nil {
		return nil
	}
	idx := int(id.Index())
	if idx >= len(s.records) {
		return nil
	}
	r := &s.records[idx]
	if !r.alive || r.version != id.Version() {
		return nil
	}
	return r
}

func (s *Store) setTags(r *record, tags models.TagSet) {
	s.dec(r.tags)
	s.archetypes[tags]++
	r.tags = tags
}

func (s *Store) dec(tags models.TagSet) {
	if n := s.archetypes[tags]; n <= 1 {
		delete(s.archetypes, tags)
	} else {
		s.archetypes[tags] = n - 1
	}
}

func serviceIndex(tag models.Tag) int {
	for i, t := range models.ServiceTags {
		if t == tag {
			return i
		}
	}
	return -1
}

func ownedIndex(kind models.Tag) int {
	switch kind {
	case models.SubAreas:
		return 0
	case models.SubLanes:
		return 1
	case models.SubNets:
		return 2
	default:
		return -1
	}
}
