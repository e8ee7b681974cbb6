// Package climb holds the logged-climb records that grades attach to.
package climb

import "time"

// GradeSnapshot is the provenance of a logged grade, fixed when the climb was
// recorded. Once attached to a persisted attempt it is only ever filled in
// when missing, never rewritten, so later edits to a grade system cannot
// reinterpret history.
type GradeSnapshot struct {
	OriginalSystemID      string `json:"originalSystemId" yaml:"originalSystemId"`
	OriginalSystemVersion int    `json:"originalSystemVersion" yaml:"originalSystemVersion"`
	OriginalLabel         string `json:"originalLabel" yaml:"originalLabel"`
	CanonicalValue        int    `json:"canonicalValue" yaml:"canonicalValue"`
	CanonicalLow          *int   `json:"canonicalLow,omitempty" yaml:"canonicalLow,omitempty"`
	CanonicalHigh         *int   `json:"canonicalHigh,omitempty" yaml:"canonicalHigh,omitempty"`
	// Approximate is set when the canonical value came from an uncalibrated
	// (ordinal) scale.
	Approximate bool `json:"approximate,omitempty" yaml:"approximate,omitempty"`
}

// Attempt is a single logged boulder problem.
type Attempt struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Grade is the raw label as entered. Always present.
	Grade         string         `json:"grade" yaml:"grade"`
	GradeSnapshot *GradeSnapshot `json:"gradeSnapshot,omitempty" yaml:"gradeSnapshot,omitempty"`
	// CanonicalValue duplicates GradeSnapshot.CanonicalValue for sorting and
	// filtering.
	CanonicalValue *int `json:"canonicalValue,omitempty" yaml:"canonicalValue,omitempty"`
	Flashed        bool `json:"flashed" yaml:"flashed"`
	// Attempts is the number of tries; zero means one.
	Attempts int       `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	LoggedAt time.Time `json:"loggedAt,omitzero" yaml:"loggedAt,omitempty"`
}

// Tries returns the attempt count, defaulting to one.
func (a Attempt) Tries() int {
	if a.Attempts <= 0 {
		return 1
	}
	return a.Attempts
}

// IsFlash reports whether the climb counts as a flash: either flagged, or
// sent on a single try.
func (a Attempt) IsFlash() bool {
	return a.Flashed || a.Tries() == 1
}

// Canonical returns the stored canonical value, preferring the denormalized
// copy over the snapshot.
func (a Attempt) Canonical() (int, bool) {
	if a.CanonicalValue != nil {
		return *a.CanonicalValue, true
	}
	if a.GradeSnapshot != nil {
		return a.GradeSnapshot.CanonicalValue, true
	}
	return 0, false
}

// Session is one visit to the wall.
type Session struct {
	ID            string    `json:"id,omitempty" yaml:"id,omitempty"`
	GradeSystemID string    `json:"gradeSystemId,omitempty" yaml:"gradeSystemId,omitempty"`
	StartedAt     time.Time `json:"startedAt,omitzero" yaml:"startedAt,omitempty"`
	Location      string    `json:"location,omitempty" yaml:"location,omitempty"`
	Attempts      []Attempt `json:"attempts" yaml:"attempts"`
}
