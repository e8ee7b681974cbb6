package conversion

import (
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/climb"
)

// Formatted is a display label and whether it is known to be exact.
type Formatted struct {
	Label       string `json:"label"`
	Approximate bool   `json:"approximate"`
}

// FormatGrade renders an attempt's grade in the target system.
//
// Resolution falls through three tiers:
//  1. the stored canonical value mapped exactly into the target;
//  2. a canonical value re-derived from the snapshot's original system and
//     label (approximate, the system may have changed since logging);
//  3. the raw stored grade (approximate).
//
// Displaying in the snapshot's own system returns the original label as
// logged. Snapshots taken from uncalibrated scales stay approximate in
// every other system.
func (e *Engine) FormatGrade(attempt climb.Attempt, targetSystemID string) Formatted {
	target := NormalizeSystemID(targetSystemID)
	snap := attempt.GradeSnapshot

	if snap != nil && snap.OriginalLabel != "" && NormalizeSystemID(snap.OriginalSystemID) == target {
		return Formatted{Label: snap.OriginalLabel}
	}

	if canonical, ok := attempt.Canonical(); ok {
		if entry, ok := e.FromCanonical(target, canonical); ok {
			approximate := entry.Approximate
			if snap != nil && snap.Approximate {
				approximate = true
			}
			return Formatted{Label: entry.Label, Approximate: approximate}
		}
	}

	if snap != nil {
		if canonical, ok := e.ToCanonical(snap.OriginalSystemID, snap.OriginalLabel); ok {
			if entry, ok := e.FromCanonical(target, canonical); ok {
				return Formatted{Label: entry.Label, Approximate: true}
			}
		}
	}

	return Formatted{Label: attempt.Grade, Approximate: true}
}
