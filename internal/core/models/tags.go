package models

import (
	"math/bits"
	"strings"
)

// Tag is a presence-only marker on an entity. Value components and child
// lists also register a Tag so queries can filter on their presence.
type Tag uint8

const (
	// Building marks an entity the engine is allowed to remediate.
	Building Tag = iota

	Abandoned
	Condemned
	Collapsed

	// PendingRemoval entities vanish at the end of the host tick.
	PendingRemoval
	// Transient entities are under construction or edit and never touched.
	Transient
	// Updated asks downstream systems to recompute derived state.
	Updated

	OnMarket
	ToBeOnMarket

	Condition

	GarbageProducer
	MailProducer
	ElectricityConsumer
	WaterConsumer

	Icon
	IconBuffer

	SubAreas
	SubLanes
	SubNets

	tagCount
)

var tagNames = [tagCount]string{
	Building:            "building",
	Abandoned:           "abandoned",
	Condemned:           "condemned",
	Collapsed:           "collapsed",
	PendingRemoval:      "pending_removal",
	Transient:           "transient",
	Updated:             "updated",
	OnMarket:            "on_market",
	ToBeOnMarket:        "to_be_on_market",
	Condition:           "condition",
	GarbageProducer:     "garbage_producer",
	MailProducer:        "mail_producer",
	ElectricityConsumer: "electricity_consumer",
	WaterConsumer:       "water_consumer",
	Icon:                "icon",
	IconBuffer:          "icon_buffer",
	SubAreas:            "sub_areas",
	SubLanes:            "sub_lanes",
	SubNets:             "sub_nets",
}

func (t Tag) String() string {
	if t < tagCount {
		return tagNames[t]
	}
	return "unknown"
}

// ServiceTags lists the service-presence markers restoration must ensure.
var ServiceTags = [...]Tag{GarbageProducer, MailProducer, ElectricityConsumer, WaterConsumer}

// TagSet is a bitset of tags.
type TagSet uint64

// Tags builds a set from the given tags.
func Tags(tags ...Tag) TagSet {
	var s TagSet
	for _, t := range tags {
		s |= 1 << t
	}
	return s
}

func (s TagSet) Has(t Tag) bool            { return s&(1<<t) != 0 }
func (s TagSet) With(t Tag) TagSet         { return s | 1<<t }
func (s TagSet) Without(t Tag) TagSet      { return s &^ (1 << t) }
func (s TagSet) Union(o TagSet) TagSet     { return s | o }
func (s TagSet) ContainsAll(o TagSet) bool { return s&o == o }
func (s TagSet) Intersects(o TagSet) bool  { return s&o != 0 }
func (s TagSet) Len() int                  { return bits.OnesCount64(uint64(s)) }
func (s TagSet) Empty() bool               { return s == 0 }

// Matches reports whether s carries every tag of all and none of none.
func (s TagSet) Matches(all, none TagSet) bool {
	return s&all == all && s&none == 0
}

func (s TagSet) String() string {
	if s == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for t := Tag(0); t < tagCount; t++ {
		if !s.Has(t) {
			continue
		}
		if !first {
			b.WriteByte(',')
		}
		b.WriteString(t.String())
		first = false
	}
	b.WriteByte('}')
	return b.String()
}
