package gradesystem

import (
	"strings"

	"github.com/louisbranch/boulderlog/internal/services/grades/domain/scale"
)

const builtinVersion = 1

// Builtins returns the seeded scales in their fixed order: V-scale first
// (the default), then Font.
func Builtins() []Definition {
	return []Definition{VScale(), Font()}
}

// VScale returns the builtin Hueco V-scale definition.
func VScale() Definition {
	rungs := scale.Ladder()
	grades := make([]GradeEntry, len(rungs))
	for i, rung := range rungs {
		grades[i] = GradeEntry{
			ID:             strings.ToLower(rung.V),
			Label:          rung.V,
			DisplayOrder:   i,
			CanonicalValue: rung.Canonical,
			Aliases:        rung.VAliases,
		}
	}
	return Definition{
		ID:         scale.VScaleID,
		Name:       "V-Scale",
		Discipline: DisciplineBouldering,
		Version:    builtinVersion,
		Scope:      ScopeBuiltin,
		Grades:     grades,
		IsDefault:  true,
	}
}

// Font returns the builtin Fontainebleau definition. Range grades are one
// entry at the rung both halves share, with the bounds carried alongside.
func Font() Definition {
	rungs := scale.Ladder()
	grades := make([]GradeEntry, len(rungs))
	for i, rung := range rungs {
		entry := GradeEntry{
			ID:             fontEntryID(rung.Font),
			Label:          rung.Font,
			DisplayOrder:   i,
			CanonicalValue: rung.Canonical,
			Aliases:        rung.FontAliases,
		}
		if rung.IsFontRange() {
			low, high := rung.Canonical, rung.Canonical
			entry.CanonicalLow = &low
			entry.CanonicalHigh = &high
		}
		grades[i] = entry
	}
	return Definition{
		ID:         scale.FontID,
		Name:       "Fontainebleau",
		Discipline: DisciplineBouldering,
		Version:    builtinVersion,
		Scope:      ScopeBuiltin,
		Grades:     grades,
	}
}

// fontEntryID turns "6C–6C+" into "font-6c-6c-plus".
func fontEntryID(label string) string {
	id := strings.ToLower(label)
	id = strings.ReplaceAll(id, "+", "-plus")
	id = strings.ReplaceAll(id, scale.RangeSeparator, "-")
	return "font-" + id
}

// IsBuiltinID reports whether id names a seeded scale.
func IsBuiltinID(id string) bool {
	return id == scale.VScaleID || id == scale.FontID
}
