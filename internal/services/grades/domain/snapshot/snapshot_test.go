package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/louisbranch/boulderlog/internal/services/grades/domain/climb"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/conversion"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/gradesystem"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/scale"
)

func newTestBuilder() *Builder {
	return NewBuilder(conversion.NewEngine(gradesystem.NewRegistry()))
}

func TestResolveSystemID(t *testing.T) {
	builder := newTestBuilder()
	tests := map[string]string{
		"V":             scale.VScaleID,
		"Font":          scale.FontID,
		"Fontainebleau": scale.FontID,
		"font":          scale.FontID,
		"":              scale.VScaleID,
		"user-deleted":  scale.VScaleID,
	}
	for input, want := range tests {
		if got := builder.ResolveSystemID(input); got != want {
			t.Fatalf("ResolveSystemID(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestBuildStampsProvenance(t *testing.T) {
	builder := newTestBuilder()
	snap, ok := builder.Build("6B+", "Font")
	if !ok {
		t.Fatal("expected snapshot")
	}
	if snap.OriginalSystemID != scale.FontID || snap.OriginalSystemVersion != 1 {
		t.Fatalf("provenance = %s v%d", snap.OriginalSystemID, snap.OriginalSystemVersion)
	}
	if snap.OriginalLabel != "6B+" {
		t.Fatalf("original label = %q, want the label as logged", snap.OriginalLabel)
	}
	if snap.CanonicalValue != 5 {
		t.Fatalf("canonical = %d, want 5", snap.CanonicalValue)
	}
	if snap.CanonicalLow == nil || *snap.CanonicalLow != 5 {
		t.Fatal("expected range bounds copied from entry")
	}
}

func TestBuildMissesUnknownLabel(t *testing.T) {
	builder := newTestBuilder()
	if _, ok := builder.Build("Purple", "V"); ok {
		t.Fatal("expected unknown label to produce no snapshot")
	}
}

func TestEnrichAttachesSnapshot(t *testing.T) {
	builder := newTestBuilder()
	attempt := &climb.Attempt{Grade: "V4", Attempts: 3}

	got := builder.Enrich(attempt, "V")
	if got != attempt {
		t.Fatal("expected Enrich to return the same attempt")
	}
	if attempt.GradeSnapshot == nil || attempt.CanonicalValue == nil {
		t.Fatal("expected snapshot and canonical value")
	}
	if *attempt.CanonicalValue != attempt.GradeSnapshot.CanonicalValue || *attempt.CanonicalValue != 5 {
		t.Fatalf("canonical = %d, want 5", *attempt.CanonicalValue)
	}
}

func TestEnrichIsIdempotent(t *testing.T) {
	builder := newTestBuilder()
	attempt := &climb.Attempt{Grade: "7A", Flashed: true}

	builder.Enrich(attempt, "Font")
	once, err := json.Marshal(attempt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	builder.Enrich(attempt, "V")
	twice, err := json.Marshal(attempt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(once) != string(twice) {
		t.Fatalf("second enrich changed attempt:\n%s\n%s", once, twice)
	}
}

func TestEnrichBackfillsCanonicalWithoutTouchingSnapshot(t *testing.T) {
	builder := newTestBuilder()
	snap := climb.GradeSnapshot{OriginalSystemID: "user-gone", OriginalSystemVersion: 3, OriginalLabel: "Teal", CanonicalValue: 2, Approximate: true}
	attempt := &climb.Attempt{Grade: "Teal", GradeSnapshot: &snap}

	builder.Enrich(attempt, "V")

	if attempt.CanonicalValue == nil || *attempt.CanonicalValue != 2 {
		t.Fatal("expected canonical value backfilled from snapshot")
	}
	if *attempt.GradeSnapshot != snap {
		t.Fatal("expected snapshot to stay unchanged")
	}
}

func TestEnrichLeavesUnresolvableAttemptAlone(t *testing.T) {
	builder := newTestBuilder()
	attempt := &climb.Attempt{Grade: "Purple"}
	builder.Enrich(attempt, "V")
	if attempt.GradeSnapshot != nil || attempt.CanonicalValue != nil {
		t.Fatal("expected no snapshot for unresolvable grade")
	}
	if builder.Enrich(nil, "V") != nil {
		t.Fatal("expected nil passthrough")
	}
}

func TestEnrichAllUsesSessionSystem(t *testing.T) {
	builder := newTestBuilder()
	session := &climb.Session{GradeSystemID: "Font", Attempts: []climb.Attempt{{Grade: "7A"}, {Grade: "6C"}}}
	builder.EnrichAll(session)
	for _, attempt := range session.Attempts {
		if attempt.GradeSnapshot == nil || attempt.GradeSnapshot.OriginalSystemID != scale.FontID {
			t.Fatalf("attempt %q not enriched from font: %+v", attempt.Grade, attempt.GradeSnapshot)
		}
	}
}

func TestRegradeReplacesSnapshot(t *testing.T) {
	builder := newTestBuilder()
	attempt := &climb.Attempt{Grade: "V3"}
	builder.Enrich(attempt, "V")

	if !builder.Regrade(attempt, "V6", "V") {
		t.Fatal("expected regrade to succeed")
	}
	if attempt.Grade != "V6" || attempt.GradeSnapshot.OriginalLabel != "V6" || *attempt.CanonicalValue != 7 {
		t.Fatalf("regraded attempt = %+v", attempt)
	}
	if builder.Regrade(attempt, "Nope", "V") {
		t.Fatal("expected unresolvable regrade to fail")
	}
	if attempt.Grade != "V6" {
		t.Fatal("expected failed regrade to leave attempt untouched")
	}
}
