package gradesystem

import (
	"testing"

	"github.com/louisbranch/boulderlog/internal/services/grades/domain/scale"
)

func TestBuiltinsAreWellOrdered(t *testing.T) {
	for _, def := range Builtins() {
		if err := def.CheckOrdering(); err != nil {
			t.Fatalf("check ordering: %v", err)
		}
		if !def.IsActive() {
			t.Fatalf("builtin %s should be active", def.ID)
		}
		if !IsBuiltinID(def.ID) {
			t.Fatalf("IsBuiltinID(%s) = false", def.ID)
		}
	}
}

func TestFontRangeEntriesCarryBounds(t *testing.T) {
	font := Font()
	entry := font.Grades[6]
	if entry.Label != "6C–6C+" {
		t.Fatalf("label = %q, want 6C–6C+", entry.Label)
	}
	if entry.ID != "font-6c-6c-plus" {
		t.Fatalf("id = %q, want font-6c-6c-plus", entry.ID)
	}
	if entry.CanonicalLow == nil || entry.CanonicalHigh == nil {
		t.Fatal("expected range bounds")
	}
	if *entry.CanonicalLow != 6 || *entry.CanonicalHigh != 6 {
		t.Fatalf("bounds = %d..%d, want 6..6", *entry.CanonicalLow, *entry.CanonicalHigh)
	}
	if font.Grades[7].CanonicalLow != nil {
		t.Fatal("expected single grade to carry no bounds")
	}
}

func TestVScaleMatchesLadder(t *testing.T) {
	vscale := VScale()
	if vscale.ID != scale.VScaleID {
		t.Fatalf("id = %s", vscale.ID)
	}
	if got := vscale.Grades[6]; got.Label != "V5" || got.CanonicalValue != 6 {
		t.Fatalf("grade[6] = %+v, want V5 at canonical 6", got)
	}
}

func TestCheckOrderingRejectsDuplicateDisplayOrder(t *testing.T) {
	def := Definition{ID: "user-x", Grades: []GradeEntry{
		{Label: "a", DisplayOrder: 0},
		{Label: "b", DisplayOrder: 0},
	}}
	if err := def.CheckOrdering(); err == nil {
		t.Fatal("expected duplicate display order error")
	}
}

func TestCheckOrderingRejectsDecreasingCanonical(t *testing.T) {
	def := Definition{ID: "user-x", Grades: []GradeEntry{
		{Label: "a", DisplayOrder: 0, CanonicalValue: 3},
		{Label: "b", DisplayOrder: 1, CanonicalValue: 2},
	}}
	if err := def.CheckOrdering(); err == nil {
		t.Fatal("expected decreasing canonical error")
	}
}

func TestCloneIsDeep(t *testing.T) {
	active := false
	low := 1
	def := Definition{ID: "x", Active: &active, Grades: []GradeEntry{{Label: "a", Aliases: []string{"A"}, CanonicalLow: &low}}}
	clone := def.Clone()
	*clone.Active = true
	clone.Grades[0].Aliases[0] = "changed"
	*clone.Grades[0].CanonicalLow = 9

	if *def.Active || def.Grades[0].Aliases[0] != "A" || *def.Grades[0].CanonicalLow != 1 {
		t.Fatal("expected clone to be independent")
	}
	if def.IsActive() {
		t.Fatal("expected deprecated definition to be inactive")
	}
}
