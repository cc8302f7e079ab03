package shared

import "errors"

// Period states reused outside the accounting module.
const (
	PeriodStateOpen   = "open"
	PeriodStateClosed = "closed"
	PeriodStateLocked = "locked"
)

// ErrInvalidPeriodTransition indicates status change not allowed.
var ErrInvalidPeriodTransition = errors.New("period transition invalid")

// ValidatePeriodTransition checks transitions according to policy.
// open -> closed and closed -> locked are the only forward moves; locked
// may drop back to closed only with an override.
func ValidatePeriodTransition(current, target string, hasOverride bool) error {
	if current == target {
		return ErrInvalidPeriodTransition
	}
	switch current {
	case PeriodStateOpen:
		if target == PeriodStateClosed {
			return nil
		}
	case PeriodStateClosed:
		if target == PeriodStateLocked {
			return nil
		}
	case PeriodStateLocked:
		if target == PeriodStateClosed && hasOverride {
			return nil
		}
	}
	return ErrInvalidPeriodTransition
}
