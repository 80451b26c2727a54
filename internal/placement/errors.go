package placement

import (
	"errors"
	"fmt"

	"sponsorgrid/internal/models"
)

// ErrUnknownSlot is returned for slot names outside the fixed enumeration.
var ErrUnknownSlot = errors.New("unknown slot")

// CapacityError reports a rejected reservation: either a full non-feed slot
// or an occupied feed cell. It is a deterministic validation failure, always
// recoverable by the caller choosing a different slot, cell, or window.
type CapacityError struct {
	Slot  string
	Limit int // non-feed slots only
	Tier  int // feed slot only
	Cell  int // feed slot only
}

func (e *CapacityError) Error() string {
	if e.Slot == models.SlotFeed {
		return fmt.Sprintf("Tier %d Slot %d is already taken", e.Tier, e.Cell)
	}
	return fmt.Sprintf("Slot %s is full (%d max)", e.Slot, e.Limit)
}

// ConfigError reports a malformed campaign draft: missing or out-of-range
// slot, tier, or cell. It is raised before any capacity check runs.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return e.Reason }

// IsCapacity reports whether err is a CapacityError.
func IsCapacity(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}

// IsConfig reports whether err is a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
