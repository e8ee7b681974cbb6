// Package snapshot stamps logged grades with their provenance.
package snapshot

import (
	"strings"

	"github.com/louisbranch/boulderlog/internal/services/grades/domain/climb"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/conversion"
)

// Builder creates grade snapshots and backfills them on legacy attempts.
type Builder struct {
	engine *conversion.Engine
}

// NewBuilder creates a builder over engine.
func NewBuilder(engine *conversion.Engine) *Builder {
	return &Builder{engine: engine}
}

// ResolveSystemID maps a loose or legacy system identifier to a registered
// system id: short codes are normalized, ids unknown to the registry fall
// back to the default system.
func (b *Builder) ResolveSystemID(legacySystemID string) string {
	normalized := conversion.NormalizeSystemID(legacySystemID)
	if normalized != "" {
		if _, ok := b.engine.Registry().Get(normalized); ok {
			return normalized
		}
	}
	def, err := b.engine.Registry().Default()
	if err != nil {
		return normalized
	}
	return def.ID
}

// Build returns the snapshot for label in the resolved system, or false
// when the label is not found there.
func (b *Builder) Build(label, legacySystemID string) (climb.GradeSnapshot, bool) {
	systemID := b.ResolveSystemID(legacySystemID)
	def, ok := b.engine.Registry().Get(systemID)
	if !ok {
		return climb.GradeSnapshot{}, false
	}
	entry, ok := b.engine.Lookup(systemID, label)
	if !ok {
		return climb.GradeSnapshot{}, false
	}
	snap := climb.GradeSnapshot{
		OriginalSystemID:      def.ID,
		OriginalSystemVersion: def.Version,
		OriginalLabel:         strings.TrimSpace(label),
		CanonicalValue:        entry.CanonicalValue,
		Approximate:           entry.Approximate,
	}
	if entry.CanonicalLow != nil {
		low := *entry.CanonicalLow
		snap.CanonicalLow = &low
	}
	if entry.CanonicalHigh != nil {
		high := *entry.CanonicalHigh
		snap.CanonicalHigh = &high
	}
	return snap, true
}

// Enrich attaches a snapshot to attempt when it has none and backfills the
// denormalized canonical value from an existing snapshot. An existing
// snapshot is never modified. Enrich mutates and returns attempt; calling
// it again makes no further change.
func (b *Builder) Enrich(attempt *climb.Attempt, legacySystemID string) *climb.Attempt {
	if attempt == nil {
		return nil
	}
	if attempt.GradeSnapshot == nil {
		snap, ok := b.Build(attempt.Grade, legacySystemID)
		if !ok {
			return attempt
		}
		attempt.GradeSnapshot = &snap
		canonical := snap.CanonicalValue
		attempt.CanonicalValue = &canonical
		return attempt
	}
	if attempt.CanonicalValue == nil {
		canonical := attempt.GradeSnapshot.CanonicalValue
		attempt.CanonicalValue = &canonical
	}
	return attempt
}

// EnrichAll enriches every attempt of a session in place, using the
// session's grade system for attempts without a snapshot.
func (b *Builder) EnrichAll(session *climb.Session) {
	if session == nil {
		return
	}
	for i := range session.Attempts {
		b.Enrich(&session.Attempts[i], session.GradeSystemID)
	}
}

// Regrade applies an explicit user edit: the grade label is replaced and
// the snapshot re-derived. It returns false, leaving attempt untouched,
// when the new label does not resolve.
func (b *Builder) Regrade(attempt *climb.Attempt, label, systemID string) bool {
	if attempt == nil {
		return false
	}
	snap, ok := b.Build(label, systemID)
	if !ok {
		return false
	}
	attempt.Grade = snap.OriginalLabel
	attempt.GradeSnapshot = &snap
	canonical := snap.CanonicalValue
	attempt.CanonicalValue = &canonical
	return true
}
