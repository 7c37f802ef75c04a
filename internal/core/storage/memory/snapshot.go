package memory

import "github.com/zeusync/remedy/internal/core/models"

// Snapshot is a comparable copy of everything the engine may mutate on an
// entity. Tests diff snapshots to check idempotence.
type Snapshot struct {
	Exists    bool
	Tags      models.TagSet
	Condition float32
	Link      models.EntityID
	Icons     []models.EntityID
	Services  []models.ServicePresence
}

func (s *Store) Snapshot(id models.EntityID) Snapshot {
	r := s.get(id)
	if r == nil {
		return Snapshot{}
	}
	snap := Snapshot{
		Exists:    true,
		Tags:      r.tags,
		Condition: r.condition,
		Link:      r.link,
		Icons:     append([]models.EntityID(nil), r.icons...),
	}
	for i, t := range models.ServiceTags {
		if r.tags.Has(t) {
			snap.Services = append(snap.Services, r.services[i])
		}
	}
	return snap
}
