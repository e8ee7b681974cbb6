package custom

import (
	"fmt"
	"slices"
	"strings"

	"github.com/louisbranch/boulderlog/internal/services/grades/domain/gradesystem"
	"github.com/louisbranch/boulderlog/internal/services/grades/storage"
)

// ToDefinition validates input and derives its registry definition.
//
// Canonical values are the grade's index (0, 1, 2, ...). They are ordinal
// placeholders rather than calibrated against the builtin ladder, so every
// entry is marked approximate.
func ToDefinition(input storage.CustomGradeSystem) (gradesystem.Definition, error) {
	system, err := Normalize(input)
	if err != nil {
		return gradesystem.Definition{}, err
	}
	return definitionOf(system), nil
}

// definitionOf expects a normalized system.
func definitionOf(system storage.CustomGradeSystem) gradesystem.Definition {
	version := system.Version
	if version < 1 {
		version = 1
	}
	grades := make([]gradesystem.GradeEntry, len(system.Grades))
	taken := make(map[string]bool, len(system.Grades))
	for i, grade := range system.Grades {
		entryID := gradeEntryID(grade.Name, i, taken)
		taken[entryID] = true
		grades[i] = gradesystem.GradeEntry{
			ID:             entryID,
			Label:          grade.Name,
			DisplayOrder:   i,
			CanonicalValue: i,
			Color:          grade.Color,
			Approximate:    true,
		}
	}
	return gradesystem.Definition{
		ID:         system.ID,
		Name:       system.Name,
		Discipline: gradesystem.DisciplineBouldering,
		Version:    version,
		Scope:      gradesystem.ScopeUser,
		Grades:     grades,
	}
}

// gradeEntryID slugs a grade name, spelling "+" as "-plus" so "5" and "5+"
// stay distinct. Names that slug to nothing or to an id already in taken
// get an index suffix.
func gradeEntryID(name string, index int, taken map[string]bool) string {
	base := Slugify(strings.ReplaceAll(name, "+", " plus "))
	if base != "" && !taken[base] {
		return base
	}
	if base == "" {
		base = "grade"
	}
	for n := index; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if !taken[candidate] {
			return candidate
		}
	}
}

// sameGrades reports whether a and b list the same grades in the same order.
func sameGrades(a, b []storage.CustomGrade) bool {
	return slices.Equal(a, b)
}
