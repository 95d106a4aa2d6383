package reconcile

import (
	"reflect"
	"testing"

	"github.com/simerusm/emr-dashboard/section"
)

// ---------------------------------------------------------------------------
// Normalize
// ---------------------------------------------------------------------------

func TestNormalizeValidChangeKept(t *testing.T) {
	in := []section.Section{{
		Title: "Assessment",
		Content: section.Content{
			section.Literal("Patient has "),
			&section.Change{Original: "htn and dm", Suggested: "hypertension and diabetes mellitus", Reason: "Expanded abbreviations."},
			section.Literal("."),
		},
	}}

	out, anomalies := Normalize(in, "Patient has htn and dm.")
	if len(anomalies) != 0 {
		t.Fatalf("anomalies = %v, want none", anomalies)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("Normalize changed a valid section: %#v", out)
	}

	// Invariants: every change has non-empty, unequal sides.
	for _, sec := range out {
		for _, sp := range sec.Content {
			if c, ok := sp.(*section.Change); ok {
				if c.Original == "" || c.Suggested == "" {
					t.Errorf("change has empty side: %#v", c)
				}
				if c.Original == c.Suggested {
					t.Errorf("change with equal sides survived: %#v", c)
				}
			}
		}
	}
}

func TestNormalizeSelfHealing(t *testing.T) {
	// A no-op edit must come out as a literal, never a Change.
	in := []section.Section{{
		Title: "Plan",
		Content: section.Content{
			section.Literal("Continue "),
			&section.Change{Original: "metformin", Suggested: "metformin", Reason: "no change"},
			section.Literal(" daily."),
		},
	}}

	out, anomalies := Normalize(in, "")
	want := section.Content{section.Literal("Continue metformin daily.")}
	if !reflect.DeepEqual(out[0].Content, want) {
		t.Errorf("Content = %#v, want %#v", out[0].Content, want)
	}
	if len(anomalies) != 1 || anomalies[0].Kind != AnomalyDemoted {
		t.Errorf("anomalies = %v, want one demotion", anomalies)
	}
}

func TestNormalizeMergesAdjacentLiterals(t *testing.T) {
	in := []section.Section{{
		Title: "History",
		Content: section.Content{
			section.Literal("Smoker "),
			section.Literal("for 10 years"),
			section.Literal("."),
		},
	}}

	out, _ := Normalize(in, "")
	want := section.Content{section.Literal("Smoker for 10 years.")}
	if !reflect.DeepEqual(out[0].Content, want) {
		t.Errorf("Content = %#v, want %#v", out[0].Content, want)
	}
}

func TestNormalizeDropRules(t *testing.T) {
	tests := []struct {
		name        string
		change      *section.Change
		wantContent section.Content
		wantKind    AnomalyKind
	}{
		{
			name:        "both sides empty",
			change:      &section.Change{Original: "", Suggested: "", Reason: "r"},
			wantContent: nil,
			wantKind:    AnomalyDropped,
		},
		{
			name:        "deletion claim",
			change:      &section.Change{Original: "redundant phrase", Suggested: "", Reason: "remove"},
			wantContent: nil,
			wantKind:    AnomalyDropped,
		},
		{
			name:        "insertion claim",
			change:      &section.Change{Original: "", Suggested: "added text", Reason: "insert"},
			wantContent: section.Content{section.Literal("added text")},
			wantKind:    AnomalyDemoted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []section.Section{{Title: "S", Content: section.Content{tt.change}}}
			out, anomalies := Normalize(in, "")
			if !reflect.DeepEqual(out[0].Content, tt.wantContent) {
				t.Errorf("Content = %#v, want %#v", out[0].Content, tt.wantContent)
			}
			if len(anomalies) != 1 || anomalies[0].Kind != tt.wantKind {
				t.Errorf("anomalies = %v, want one %s", anomalies, tt.wantKind)
			}
		})
	}
}

func TestNormalizeUnverifiedOriginalKept(t *testing.T) {
	in := []section.Section{{
		Title: "Assessment",
		Content: section.Content{
			&section.Change{Original: "not in source", Suggested: "replacement", Reason: "r"},
		},
	}}

	out, anomalies := Normalize(in, "completely different extracted text")

	// The change survives as declared: the model output is the authority.
	if !reflect.DeepEqual(out[0].Content, in[0].Content) {
		t.Errorf("Content = %#v, want unchanged", out[0].Content)
	}
	if len(anomalies) != 1 || anomalies[0].Kind != AnomalyUnverified {
		t.Errorf("anomalies = %v, want one unverified flag", anomalies)
	}
}

func TestContainsLoose(t *testing.T) {
	tests := []struct {
		haystack string
		needle   string
		want     bool
	}{
		{"Patient has htn and dm.", "htn and dm", true},
		{"Patient has HTN  and\ndm.", "htn and dm", true},
		{"Patient has hypertension.", "htn", false},
		{"BP 120/80", "bp120/80", true},
	}

	for _, tt := range tests {
		if got := containsLoose(tt.haystack, tt.needle); got != tt.want {
			t.Errorf("containsLoose(%q, %q) = %v, want %v", tt.haystack, tt.needle, got, tt.want)
		}
	}
}

// TestNormalizeIdempotent verifies that reconciliation of already-valid
// output is a fixed point: no further merging or demotion.
func TestNormalizeIdempotent(t *testing.T) {
	in := []section.Section{{
		Title: "Assessment",
		Content: section.Content{
			section.Literal("Start "),
			section.Literal("of note. "),
			&section.Change{Original: "pt", Suggested: "patient", Reason: "expand"},
			&section.Change{Original: "rx", Suggested: "rx", Reason: "noop"},
			section.Literal(""),
			section.Literal(" End."),
		},
	}}

	first, _ := Normalize(in, "start of note. pt rx end.")
	second, anomalies := Normalize(first, "start of note. pt rx end.")

	if !reflect.DeepEqual(second, first) {
		t.Errorf("second pass changed output:\nfirst  = %#v\nsecond = %#v", first, second)
	}
	for _, a := range anomalies {
		if a.Kind == AnomalyDemoted || a.Kind == AnomalyDropped {
			t.Errorf("second pass recorded mutation anomaly: %v", a)
		}
	}
}

// TestLosslessReconstruction verifies that visible text survives
// normalization exactly for sections whose spans are individually valid.
func TestLosslessReconstruction(t *testing.T) {
	in := []section.Section{{
		Title: "Assessment",
		Content: section.Content{
			section.Literal("Patient has "),
			&section.Change{Original: "htn and dm", Suggested: "hypertension and diabetes mellitus", Reason: "Expanded abbreviations."},
			section.Literal("."),
			&section.Change{Original: "same", Suggested: "same", Reason: "noop"},
		},
	}}

	wantVisible := in[0].Visible()
	out, _ := Normalize(in, "")
	if got := out[0].Visible(); got != wantVisible {
		t.Errorf("Visible() after Normalize = %q, want %q", got, wantVisible)
	}
}

// ---------------------------------------------------------------------------
// Assemble
// ---------------------------------------------------------------------------

func TestAssembleDropsEmptySections(t *testing.T) {
	in := []section.Section{
		{Title: "Keep", Content: section.Content{section.Literal("text")}},
		{Title: "", Content: section.Content{section.Literal("orphan")}},
		{Title: "Empty", Content: nil},
	}

	out, anomalies := Assemble(in)
	if len(out) != 1 || out[0].Title != "Keep" {
		t.Errorf("sections = %#v, want only Keep", out)
	}
	if len(anomalies) != 2 {
		t.Fatalf("anomalies = %v, want 2", anomalies)
	}
	for _, a := range anomalies {
		if a.Kind != AnomalySectionDropped {
			t.Errorf("anomaly kind = %s, want %s", a.Kind, AnomalySectionDropped)
		}
	}
}

// TestScenarioAssessment runs the full reconcile+assemble path on the
// canonical abbreviation-expansion example.
func TestScenarioAssessment(t *testing.T) {
	declared := []section.Section{{
		Title: "Assessment",
		Content: section.Content{
			section.Literal("Patient has "),
			&section.Change{Original: "htn and dm", Suggested: "hypertension and diabetes mellitus", Reason: "Expanded abbreviations."},
			section.Literal("."),
		},
	}}

	normalized, anomalies := Normalize(declared, "Patient has htn and dm.")
	sections, dropped := Assemble(normalized)
	anomalies = append(anomalies, dropped...)

	if len(anomalies) != 0 {
		t.Errorf("anomalies = %v, want none", anomalies)
	}
	if len(sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(sections))
	}

	changes := 0
	for _, sp := range sections[0].Content {
		if _, ok := sp.(*section.Change); ok {
			changes++
		}
	}
	if changes != 1 {
		t.Errorf("changes = %d, want 1", changes)
	}
	if got := sections[0].Visible(); got != "Patient has hypertension and diabetes mellitus." {
		t.Errorf("Visible() = %q", got)
	}
}
