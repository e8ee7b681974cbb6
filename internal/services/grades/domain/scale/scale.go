// Package scale holds the static builtin bouldering grade ladder.
//
// Every rung pairs a Hueco (V-scale) label with its Fontainebleau
// equivalent and a canonical integer. Canonical values are the shared
// cross-system ladder used by conversion; they start at 0 and increase by
// one per rung.
package scale

import "strings"

// Builtin system identifiers.
const (
	VScaleID = "vscale"
	FontID   = "font"
)

// RangeSeparator joins the halves of a Font range grade such as "6A–6A+".
const RangeSeparator = "–"

// Rung is one step of the builtin ladder.
type Rung struct {
	Canonical int
	V         string
	VAliases  []string
	Font      string
	// FontAliases are alternate Font spellings that resolve to this rung,
	// including each half of a range grade.
	FontAliases []string
}

// IsFontRange reports whether the Font label of this rung spans two grades.
func (r Rung) IsFontRange() bool {
	return strings.Contains(r.Font, RangeSeparator)
}

var ladder = []Rung{
	{Canonical: 0, V: "VB", VAliases: []string{"VE", "V-Easy"}, Font: "3", FontAliases: []string{"3+"}},
	{Canonical: 1, V: "V0", VAliases: []string{"V0-", "V0+"}, Font: "4", FontAliases: []string{"4+"}},
	{Canonical: 2, V: "V1", Font: "5"},
	{Canonical: 3, V: "V2", Font: "5+"},
	{Canonical: 4, V: "V3", Font: "6A–6A+", FontAliases: []string{"6A", "6A+", "6A-6A+"}},
	{Canonical: 5, V: "V4", Font: "6B–6B+", FontAliases: []string{"6B", "6B+", "6B-6B+"}},
	{Canonical: 6, V: "V5", Font: "6C–6C+", FontAliases: []string{"6C", "6C+", "6C-6C+"}},
	{Canonical: 7, V: "V6", Font: "7A"},
	{Canonical: 8, V: "V7", Font: "7A+"},
	{Canonical: 9, V: "V8", Font: "7B–7B+", FontAliases: []string{"7B", "7B+", "7B-7B+"}},
	{Canonical: 10, V: "V9", Font: "7C"},
	{Canonical: 11, V: "V10", Font: "7C+"},
	{Canonical: 12, V: "V11", Font: "8A"},
	{Canonical: 13, V: "V12", Font: "8A+"},
	{Canonical: 14, V: "V13", Font: "8B"},
	{Canonical: 15, V: "V14", Font: "8B+"},
	{Canonical: 16, V: "V15", Font: "8C"},
	{Canonical: 17, V: "V16", Font: "8C+"},
	{Canonical: 18, V: "V17", Font: "9A"},
}

// MinCanonical and MaxCanonical bound the builtin ladder.
const (
	MinCanonical = 0
	MaxCanonical = 18
)

// Ladder returns a copy of the builtin ladder ordered easiest first.
func Ladder() []Rung {
	out := make([]Rung, len(ladder))
	for i, rung := range ladder {
		rung.VAliases = append([]string(nil), rung.VAliases...)
		rung.FontAliases = append([]string(nil), rung.FontAliases...)
		out[i] = rung
	}
	return out
}

// VLabels returns the V-scale labels easiest first.
func VLabels() []string {
	out := make([]string, len(ladder))
	for i, rung := range ladder {
		out[i] = rung.V
	}
	return out
}

// FontLabels returns the Font labels easiest first.
func FontLabels() []string {
	out := make([]string, len(ladder))
	for i, rung := range ladder {
		out[i] = rung.Font
	}
	return out
}
