// Package stats derives session summaries from logged attempts.
//
// Everything here is a pure function of its inputs and the registry state
// at call time; nothing is cached or persisted.
package stats

import (
	"strings"

	"github.com/louisbranch/boulderlog/internal/services/grades/domain/climb"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/conversion"
)

// SessionStats summarizes one session.
type SessionStats struct {
	// Volume is the total number of tries.
	Volume int `json:"volume"`
	// Problems is the number of attempt records.
	Problems  int     `json:"problems"`
	Flashes   int     `json:"flashes"`
	FlashRate float64 `json:"flashRate"`
	MaxGrade  string  `json:"maxGrade,omitempty"`
}

// Aggregator computes stats, resolving grades through a conversion engine.
type Aggregator struct {
	engine *conversion.Engine
}

// NewAggregator creates an aggregator over engine.
func NewAggregator(engine *conversion.Engine) *Aggregator {
	return &Aggregator{engine: engine}
}

// BuildSessionStats summarizes attempts, reporting the hardest grade in the
// given grade system.
func (a *Aggregator) BuildSessionStats(attempts []climb.Attempt, gradeSystemID string) SessionStats {
	var out SessionStats
	if len(attempts) == 0 {
		return out
	}
	for _, attempt := range attempts {
		out.Volume += attempt.Tries()
		out.Problems++
		if attempt.IsFlash() {
			out.Flashes++
		}
	}
	out.FlashRate = float64(out.Flashes) / float64(out.Problems)
	out.MaxGrade = a.maxGrade(attempts, gradeSystemID)
	return out
}

// rankedGrade is an attempt's grade expressed in the comparison system.
type rankedGrade struct {
	label  string
	order  int
	ranked bool
}

// outranks reports whether g is harder than other. Resolved grades compare
// by display order and beat unresolved ones; two unresolved grades compare
// lexically.
func (g rankedGrade) outranks(other rankedGrade) bool {
	switch {
	case g.ranked && other.ranked:
		return g.order > other.order
	case g.ranked:
		return true
	case other.ranked:
		return false
	default:
		return strings.Compare(g.label, other.label) > 0
	}
}

func (a *Aggregator) maxGrade(attempts []climb.Attempt, gradeSystemID string) string {
	systemID := conversion.NormalizeSystemID(gradeSystemID)
	_, known := a.engine.System(systemID)

	best := a.rank(attempts[0], systemID, known)
	for _, attempt := range attempts[1:] {
		candidate := a.rank(attempt, systemID, known)
		if candidate.outranks(best) {
			best = candidate
		}
	}
	return best.label
}

// rank resolves an attempt in the comparison system: by its label, then by
// its stored canonical value, then by converting the label from whichever
// system recognises it.
func (a *Aggregator) rank(attempt climb.Attempt, systemID string, known bool) rankedGrade {
	raw := rankedGrade{label: attempt.Grade}
	if !known {
		return raw
	}
	if entry, ok := a.engine.Lookup(systemID, attempt.Grade); ok {
		return rankedGrade{label: entry.Label, order: entry.DisplayOrder, ranked: true}
	}
	if canonical, ok := attempt.Canonical(); ok {
		if entry, ok := a.engine.FromCanonical(systemID, canonical); ok {
			return rankedGrade{label: entry.Label, order: entry.DisplayOrder, ranked: true}
		}
	}
	converted := a.engine.ConvertGrade(attempt.Grade, systemID)
	if converted != attempt.Grade {
		if entry, ok := a.engine.Lookup(systemID, converted); ok {
			return rankedGrade{label: entry.Label, order: entry.DisplayOrder, ranked: true}
		}
	}
	return raw
}
