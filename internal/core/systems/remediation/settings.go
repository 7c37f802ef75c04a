package remediation

import (
	"errors"
	"fmt"

	"github.com/zeusync/remedy/internal/core/models"
)

var ErrInvalidSettings = errors.New("invalid remediation settings")

const (
	DefaultBatchCap      = 20
	DefaultRestoreAllCap = 1000
)

// Toggles are the operator's per category and action switches. They are
// read once per activation.
type Toggles struct {
	RemoveAbandoned  bool `json:"remove_abandoned" yaml:"remove_abandoned" toml:"remove_abandoned"`
	RestoreAbandoned bool `json:"restore_abandoned" yaml:"restore_abandoned" toml:"restore_abandoned"`
	RemoveCondemned  bool `json:"remove_condemned" yaml:"remove_condemned" toml:"remove_condemned"`
	RestoreCondemned bool `json:"restore_condemned" yaml:"restore_condemned" toml:"restore_condemned"`
	RemoveCollapsed  bool `json:"remove_collapsed" yaml:"remove_collapsed" toml:"remove_collapsed"`
	RestoreCollapsed bool `json:"restore_collapsed" yaml:"restore_collapsed" toml:"restore_collapsed"`

	// IconOnly also runs the notification-only variant of every enabled pass.
	IconOnly bool `json:"icon_only" yaml:"icon_only" toml:"icon_only"`
	// DeepRestore clears every category tag, not just the pass's own.
	DeepRestore bool `json:"deep_restore" yaml:"deep_restore" toml:"deep_restore"`
	// ScrubOrphans runs the orphaned-notification cleanup each activation.
	ScrubOrphans bool `json:"scrub_orphans" yaml:"scrub_orphans" toml:"scrub_orphans"`
}

// Enabled reports whether the (category, action) pass is switched on.
func (t Toggles) Enabled(c models.Category, a models.Action) bool {
	switch c {
	case models.CategoryAbandoned:
		return pick(a, t.RestoreAbandoned, t.RemoveAbandoned)
	case models.CategoryCondemned:
		return pick(a, t.RestoreCondemned, t.RemoveCondemned)
	case models.CategoryCollapsed:
		return pick(a, t.RestoreCollapsed, t.RemoveCollapsed)
	default:
		return false
	}
}

// Set flips one (category, action) switch.
func (t *Toggles) Set(c models.Category, a models.Action, on bool) {
	var restore, remove *bool
	switch c {
	case models.CategoryAbandoned:
		restore, remove = &t.RestoreAbandoned, &t.RemoveAbandoned
	case models.CategoryCondemned:
		restore, remove = &t.RestoreCondemned, &t.RemoveCondemned
	case models.CategoryCollapsed:
		restore, remove = &t.RestoreCollapsed, &t.RemoveCollapsed
	default:
		return
	}
	if a == models.ActionRestore {
		*restore = on
	} else {
		*remove = on
	}
}

// ActionFor resolves which action runs for a category. Restore wins when
// both are switched on since it is the non-destructive choice.
func (t Toggles) ActionFor(c models.Category) (models.Action, bool) {
	switch {
	case t.Enabled(c, models.ActionRestore):
		return models.ActionRestore, true
	case t.Enabled(c, models.ActionRemove):
		return models.ActionRemove, true
	default:
		return 0, false
	}
}

func pick(a models.Action, restore, remove bool) bool {
	if a == models.ActionRestore {
		return restore
	}
	return remove
}

// Settings configure the engine.
type Settings struct {
	// Automatic runs the toggled passes every activation. When false they
	// only run on an explicit run-now request.
	Automatic bool `json:"automatic" yaml:"automatic" toml:"automatic"`
	// BatchCap bounds the entities a single pass touches per activation.
	BatchCap int `json:"batch_cap" yaml:"batch_cap" toml:"batch_cap"`
	// RestoreAllCap bounds each pass of a restore-all request.
	RestoreAllCap int `json:"restore_all_cap" yaml:"restore_all_cap" toml:"restore_all_cap"`

	Toggles Toggles `json:"toggles" yaml:"toggles" toml:"toggles"`
}

func DefaultSettings() Settings {
	return Settings{
		Automatic:     true,
		BatchCap:      DefaultBatchCap,
		RestoreAllCap: DefaultRestoreAllCap,
		Toggles: Toggles{
			RemoveAbandoned: true,
			RemoveCollapsed: true,
			ScrubOrphans:    true,
		},
	}
}

func (s Settings) Validate() error {
	if s.BatchCap <= 0 {
		return fmt.Errorf("%w: batch_cap must be positive, got %d", ErrInvalidSettings, s.BatchCap)
	}
	if s.RestoreAllCap <= 0 {
		return fmt.Errorf("%w: restore_all_cap must be positive, got %d", ErrInvalidSettings, s.RestoreAllCap)
	}
	return nil
}
