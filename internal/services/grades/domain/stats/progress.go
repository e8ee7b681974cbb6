package stats

import (
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/louisbranch/boulderlog/internal/services/grades/domain/climb"
)

// SessionPoint is one session on a progress chart.
type SessionPoint struct {
	SessionID     string    `json:"sessionId,omitempty"`
	StartedAt     time.Time `json:"startedAt,omitzero"`
	Samples       int       `json:"samples"`
	MaxCanonical  int       `json:"maxCanonical"`
	MeanCanonical float64   `json:"meanCanonical"`
}

// ProgressSummary describes canonical grade levels across sessions.
// Attempts without a canonical value are left out.
type ProgressSummary struct {
	Sessions         int            `json:"sessions"`
	Samples          int            `json:"samples"`
	MeanCanonical    float64        `json:"meanCanonical"`
	StdDevCanonical  float64        `json:"stdDevCanonical"`
	MedianCanonical  float64        `json:"medianCanonical"`
	HardestCanonical int            `json:"hardestCanonical"`
	Points           []SessionPoint `json:"points"`
}

// SummarizeProgress computes canonical-value statistics over sessions,
// ordered by start time. Attempts should be enriched first.
func SummarizeProgress(sessions []climb.Session) ProgressSummary {
	ordered := slices.Clone(sessions)
	slices.SortStableFunc(ordered, func(a, b climb.Session) int {
		return a.StartedAt.Compare(b.StartedAt)
	})

	summary := ProgressSummary{Sessions: len(ordered), Points: make([]SessionPoint, 0, len(ordered))}
	var all []float64
	for _, session := range ordered {
		point := SessionPoint{SessionID: session.ID, StartedAt: session.StartedAt}
		var values []float64
		for _, attempt := range session.Attempts {
			canonical, ok := attempt.Canonical()
			if !ok {
				continue
			}
			values = append(values, float64(canonical))
			if point.Samples == 0 || canonical > point.MaxCanonical {
				point.MaxCanonical = canonical
			}
			point.Samples++
		}
		if len(values) > 0 {
			point.MeanCanonical = stat.Mean(values, nil)
		}
		all = append(all, values...)
		summary.Points = append(summary.Points, point)
	}

	summary.Samples = len(all)
	if len(all) == 0 {
		return summary
	}
	summary.MeanCanonical = stat.Mean(all, nil)
	if len(all) > 1 {
		summary.StdDevCanonical = stat.StdDev(all, nil)
	}
	slices.Sort(all)
	summary.MedianCanonical = stat.Quantile(0.5, stat.Empirical, all, nil)
	summary.HardestCanonical = int(math.Round(all[len(all)-1]))
	return summary
}
