package requests

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var ErrUnknownIntent = errors.New("unknown request intent")

// Intent is a distinct operator request.
type Intent uint8

const (
	RefreshCount Intent = iota
	RestoreAll
	RunNow
	ScrubOrphans

	intentCount
)

var intentNames = [intentCount]string{
	RefreshCount: "refresh",
	RestoreAll:   "restore-all",
	RunNow:       "run-now",
	ScrubOrphans: "scrub",
}

func (i Intent) String() string {
	if i < intentCount {
		return intentNames[i]
	}
	return fmt.Sprintf("intent(%d)", uint8(i))
}

// Intents lists every intent.
func Intents() []Intent {
	out := make([]Intent, intentCount)
	for i := range out {
		out[i] = Intent(i)
	}
	return out
}

// ParseIntent resolves the wire name of an intent.
func ParseIntent(name string) (Intent, error) {
	for i, n := range intentNames {
		if n == name {
			return Intent(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownIntent, name)
}

// Queue holds one single-slot flag per intent. Raising an already raised
// intent is a no-op and consuming clears it, so each raise fires at most
// once no matter how often it is raised or polled. Safe for concurrent use.
type Queue struct {
	flags [intentCount]atomic.Bool
}

func New() *Queue {
	return &Queue{}
}

// Raise sets the flag. It reports whether the flag was previously clear.
func (q *Queue) Raise(i Intent) bool {
	if i >= intentCount {
		return false
	}
	return q.flags[i].CompareAndSwap(false, true)
}

// TryConsume returns true at most once per raise.
func (q *Queue) TryConsume(i Intent) bool {
	if i >= intentCount {
		return false
	}
	return q.flags[i].Swap(false)
}

// Peek reports the flag without clearing it.
func (q *Queue) Peek(i Intent) bool {
	if i >= intentCount {
		return false
	}
	return q.flags[i].Load()
}

// Pending reports whether any intent is raised.
func (q *Queue) Pending() bool {
	for i := range q.flags {
		if q.flags[i].Load() {
			return true
		}
	}
	return false
}

// Clear drops every pending intent.
func (q *Queue) Clear() {
	for i := range q.flags {
		q.flags[i].Store(false)
	}
}
