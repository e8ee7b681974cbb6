package stats

import (
	"slices"
	"strings"

	"github.com/louisbranch/boulderlog/internal/services/grades/domain/climb"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/conversion"
)

// PyramidLevel counts sends at one grade.
type PyramidLevel struct {
	Grade   string `json:"grade"`
	Sends   int    `json:"sends"`
	Flashes int    `json:"flashes"`
	// Resolved is false for grades the system does not recognise.
	Resolved bool `json:"resolved"`
}

// BuildGradePyramid groups attempts by grade in the given system, hardest
// first. Unresolved grades follow the resolved ones in reverse lexical
// order.
func (a *Aggregator) BuildGradePyramid(attempts []climb.Attempt, gradeSystemID string) []PyramidLevel {
	systemID := conversion.NormalizeSystemID(gradeSystemID)
	_, known := a.engine.System(systemID)

	type bucket struct {
		level PyramidLevel
		grade rankedGrade
	}
	buckets := map[string]*bucket{}
	for _, attempt := range attempts {
		grade := a.rank(attempt, systemID, known)
		b, ok := buckets[grade.label]
		if !ok {
			b = &bucket{level: PyramidLevel{Grade: grade.label, Resolved: grade.ranked}, grade: grade}
			buckets[grade.label] = b
		}
		b.level.Sends++
		if attempt.IsFlash() {
			b.level.Flashes++
		}
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	slices.SortFunc(ordered, func(x, y *bucket) int {
		if x.grade.outranks(y.grade) {
			return -1
		}
		if y.grade.outranks(x.grade) {
			return 1
		}
		return strings.Compare(x.level.Grade, y.level.Grade)
	})

	out := make([]PyramidLevel, len(ordered))
	for i, b := range ordered {
		out[i] = b.level
	}
	return out
}
