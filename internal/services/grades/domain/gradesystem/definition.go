// Package gradesystem defines grade scales and the registry that resolves
// them by id.
//
// A Definition is a named, versioned ladder of GradeEntry rungs. Builtin
// definitions (V-scale, Font) are built from the static ladder in the scale
// package and never change; user definitions are registered and removed at
// runtime by the custom system manager.
package gradesystem

import (
	"fmt"
	"slices"
)

// Scope distinguishes builtin scales from user-defined ones.
type Scope string

const (
	ScopeBuiltin Scope = "builtin"
	ScopeUser    Scope = "user"
)

// Discipline is the climbing style a scale grades.
type Discipline string

const (
	DisciplineBouldering Discipline = "bouldering"
	DisciplineRoute      Discipline = "route"
)

// GradeEntry is one rung of a scale.
type GradeEntry struct {
	// ID is stable within one version of a system.
	ID    string `json:"id"`
	Label string `json:"label"`
	// DisplayOrder ranks the entry within its own system; unique and
	// increasing with difficulty.
	DisplayOrder int `json:"displayOrder"`
	// CanonicalValue is the entry's position on the shared cross-system
	// ladder.
	CanonicalValue int `json:"canonicalValue"`
	// CanonicalLow and CanonicalHigh bound range grades such as "6A–6A+".
	// Conversion does not consume them yet.
	CanonicalLow  *int     `json:"canonicalLow,omitempty"`
	CanonicalHigh *int     `json:"canonicalHigh,omitempty"`
	Aliases       []string `json:"aliases,omitempty"`
	Color         string   `json:"color,omitempty"`
	// Approximate marks entries whose canonical value was derived rather
	// than calibrated.
	Approximate bool `json:"approximate,omitempty"`
}

// Definition is a named, versioned grade scale.
type Definition struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Discipline Discipline   `json:"discipline"`
	Version    int          `json:"version"`
	Scope      Scope        `json:"scope"`
	Grades     []GradeEntry `json:"grades"`
	IsDefault  bool         `json:"isDefault,omitempty"`
	// Active is nil or true for live systems. False keeps a deprecated
	// system resolvable for historical records.
	Active *bool `json:"active,omitempty"`
}

// IsActive reports whether the definition is offered for new logs.
func (d Definition) IsActive() bool {
	return d.Active == nil || *d.Active
}

// IsBuiltin reports whether the definition is one of the seeded scales.
func (d Definition) IsBuiltin() bool {
	return d.Scope == ScopeBuiltin
}

// Clone returns a deep copy so callers cannot mutate registry state.
func (d Definition) Clone() Definition {
	out := d
	if d.Active != nil {
		active := *d.Active
		out.Active = &active
	}
	out.Grades = make([]GradeEntry, len(d.Grades))
	for i, entry := range d.Grades {
		out.Grades[i] = entry.clone()
	}
	return out
}

func (e GradeEntry) clone() GradeEntry {
	out := e
	out.Aliases = slices.Clone(e.Aliases)
	if e.CanonicalLow != nil {
		low := *e.CanonicalLow
		out.CanonicalLow = &low
	}
	if e.CanonicalHigh != nil {
		high := *e.CanonicalHigh
		out.CanonicalHigh = &high
	}
	return out
}

// CheckOrdering verifies that display orders are unique and that canonical
// values never decrease as display order increases.
func (d Definition) CheckOrdering() error {
	sorted := slices.Clone(d.Grades)
	slices.SortFunc(sorted, func(a, b GradeEntry) int { return a.DisplayOrder - b.DisplayOrder })
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.DisplayOrder == cur.DisplayOrder {
			return fmt.Errorf("system %s: display order %d used by %q and %q", d.ID, cur.DisplayOrder, prev.Label, cur.Label)
		}
		if cur.CanonicalValue < prev.CanonicalValue {
			return fmt.Errorf("system %s: canonical value decreases from %q to %q", d.ID, prev.Label, cur.Label)
		}
	}
	return nil
}
