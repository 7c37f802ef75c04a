// Package events names the event types the remediation engine publishes.
package events

import (
	"time"

	"github.com/zeusync/remedy/internal/core/models"
)

const (
	TypeLifecycleChanged = "lifecycle.changed"
	TypeStatusUpdated    = "status.updated"
	TypePassCompleted    = "remediation.pass_completed"
)

// PassCompleted is the payload of TypePassCompleted.
type PassCompleted struct {
	Pass      string
	Category  models.Category
	Action    models.Action
	IconOnly  bool
	Processed int
	Took      time.Duration
}
