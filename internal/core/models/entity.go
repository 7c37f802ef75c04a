package models

import "fmt"

// EntityID is a versioned handle into an entity store.
// The low 32 bits hold the arena index, the high 32 bits the slot version.
// Version 0 is never issued, so the zero handle is always null.
type EntityID uint64

// Nil is the null entity handle.
const Nil EntityID = 0

// NewEntityID packs an arena index and a slot version into a handle.
func NewEntityID(index, version uint32) EntityID {
	return EntityID(uint64(version)<<32 | uint64(index))
}

func (id EntityID) Index() uint32   { return uint32(id) }
func (id EntityID) Version() uint32 { return uint32(id >> 32) }
func (id EntityID) IsNil() bool     { return id == Nil }

func (id EntityID) String() string {
	if id == Nil {
		return "entity(nil)"
	}
	return fmt.Sprintf("entity(%d:%d)", id.Index(), id.Version())
}

// PrefabID identifies the prefab a notification entity instantiates.
type PrefabID uint32

// NoPrefab is the zero prefab, never registered for a category.
const NoPrefab PrefabID = 0

// MinCondition is the floor of the decay scalar. Restoration resets to it.
const MinCondition float32 = 0

// Notification is the payload of a notification (icon) entity.
type Notification struct {
	Owner  EntityID
	Prefab PrefabID
}

// ServicePresence is the default payload added for a missing service marker.
type ServicePresence struct {
	Tag   Tag
	Level uint8
}

// Mode is the opaque host mode passed with lifecycle notifications.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeMainMenu
	ModeGame
	ModeEditor
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeMainMenu:
		return "main_menu"
	case ModeGame:
		return "game"
	case ModeEditor:
		return "editor"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, bool) {
	for m := ModeNone; m <= ModeEditor; m++ {
		if m.String() == s {
			return m, true
		}
	}
	return ModeNone, false
}
