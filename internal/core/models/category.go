package models

import "fmt"

// Category is an undesired state the engine remediates.
type Category uint8

const (
	CategoryAbandoned Category = iota
	CategoryCondemned
	CategoryCollapsed

	CategoryCount
)

// Categories lists every category in processing order.
var Categories = [CategoryCount]Category{CategoryAbandoned, CategoryCondemned, CategoryCollapsed}

// Tag returns the marker carried by entities in this category.
func (c Category) Tag() Tag {
	switch c {
	case CategoryAbandoned:
		return Abandoned
	case CategoryCondemned:
		return Condemned
	case CategoryCollapsed:
		return Collapsed
	default:
		panic(fmt.Sprintf("models: unknown category %d", uint8(c)))
	}
}

func (c Category) String() string {
	switch c {
	case CategoryAbandoned:
		return "abandoned"
	case CategoryCondemned:
		return "condemned"
	case CategoryCollapsed:
		return "collapsed"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// Label is the operator-facing name used in the status line.
func (c Category) Label() string {
	switch c {
	case CategoryAbandoned:
		return "Abandoned"
	case CategoryCondemned:
		return "Condemned"
	case CategoryCollapsed:
		return "Collapsed"
	default:
		return c.String()
	}
}

// CategoryTags is the set of all category markers.
var CategoryTags = Tags(Abandoned, Condemned, Collapsed)

// Action is what a pass does to a matched entity.
type Action uint8

const (
	ActionRestore Action = iota
	ActionRemove
)

func (a Action) String() string {
	switch a {
	case ActionRestore:
		return "restore"
	case ActionRemove:
		return "remove"
	default:
		return fmt.Sprintf("action(%d)", uint8(a))
	}
}
