// Package reconcile validates the model-declared sections and normalizes
// them into the final renderable form.
//
// The model's structured output is the authority for what changed; this
// package does schema validation and self-consistency checks, not an
// independent diff. Entries that fail validation are demoted or dropped and
// recorded as anomalies; partial structured output beats total failure.
package reconcile

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/simerusm/emr-dashboard/section"
)

// AnomalyKind classifies a reconciliation diagnostic.
type AnomalyKind string

const (
	// AnomalyDemoted: a declared change was converted to a literal span.
	AnomalyDemoted AnomalyKind = "demoted"

	// AnomalyDropped: a span was removed without affecting visible text.
	AnomalyDropped AnomalyKind = "dropped"

	// AnomalyUnverified: a change's original text was not found in the
	// extracted source. The change is kept as declared.
	AnomalyUnverified AnomalyKind = "unverified"

	// AnomalySectionDropped: a whole section was removed at assembly.
	AnomalySectionDropped AnomalyKind = "section_dropped"
)

// Anomaly is one recorded reconciliation diagnostic. Anomalies are never
// fatal; they exist so no demotion or drop happens silently.
type Anomaly struct {
	Section string
	Kind    AnomalyKind
	Detail  string
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s [%s]: %s", a.Kind, a.Section, a.Detail)
}

// Normalize validates every declared span against the span invariants and
// returns the cleaned sections plus the anomalies recorded along the way.
// sourceText is the extracted document text used for the containment check
// on declared originals; pass "" to skip that check.
//
// Normalize is idempotent: running it over its own output records no further
// anomalies and returns the sections unchanged.
func Normalize(secs []section.Section, sourceText string) ([]section.Section, []Anomaly) {
	var anomalies []Anomaly
	out := make([]section.Section, 0, len(secs))

	for _, sec := range secs {
		content, secAnoms := normalizeContent(sec.Title, sec.Content, sourceText)
		anomalies = append(anomalies, secAnoms...)
		out = append(out, section.Section{
			Title:   strings.TrimSpace(sec.Title),
			Content: content,
		})
	}

	return out, anomalies
}

func normalizeContent(title string, spans section.Content, sourceText string) (section.Content, []Anomaly) {
	var (
		out       section.Content
		anomalies []Anomaly
	)

	appendLiteral := func(text string) {
		if text == "" {
			return
		}
		// Structurally adjacent literals merge into one span.
		if len(out) > 0 {
			if prev, ok := out[len(out)-1].(section.Literal); ok {
				out[len(out)-1] = prev + section.Literal(text)
				return
			}
		}
		out = append(out, section.Literal(text))
	}

	for _, sp := range spans {
		switch v := sp.(type) {
		case section.Literal:
			if v == "" {
				anomalies = append(anomalies, Anomaly{
					Section: title,
					Kind:    AnomalyDropped,
					Detail:  "empty literal span",
				})
				continue
			}
			appendLiteral(string(v))

		case *section.Change:
			switch {
			case v.Original == "" && v.Suggested == "":
				anomalies = append(anomalies, Anomaly{
					Section: title,
					Kind:    AnomalyDropped,
					Detail:  "change with empty original and suggested",
				})

			case v.Suggested == "":
				// A deletion claim. A Change needs both sides; dropping
				// the span leaves the visible text identical.
				anomalies = append(anomalies, Anomaly{
					Section: title,
					Kind:    AnomalyDropped,
					Detail:  fmt.Sprintf("deletion claim for %q", v.Original),
				})

			case v.Original == "":
				anomalies = append(anomalies, Anomaly{
					Section: title,
					Kind:    AnomalyDemoted,
					Detail:  fmt.Sprintf("insertion claim demoted to literal %q", v.Suggested),
				})
				appendLiteral(v.Suggested)

			case v.Original == v.Suggested:
				// Self-healing: a no-op edit must not be reified as a Change.
				anomalies = append(anomalies, Anomaly{
					Section: title,
					Kind:    AnomalyDemoted,
					Detail:  fmt.Sprintf("no-op change demoted to literal %q", v.Suggested),
				})
				appendLiteral(v.Suggested)

			default:
				if sourceText != "" && !containsLoose(sourceText, v.Original) {
					// Kept as declared: the model's structured output is the
					// authority for what changed, the check is advisory.
					anomalies = append(anomalies, Anomaly{
						Section: title,
						Kind:    AnomalyUnverified,
						Detail:  fmt.Sprintf("original %q not found in extracted text", v.Original),
					})
				}
				c := *v
				out = append(out, &c)
			}
		}
	}

	return out, anomalies
}

// containsLoose reports whether needle occurs in haystack under case- and
// whitespace-insensitive comparison.
func containsLoose(haystack, needle string) bool {
	return strings.Contains(foldForSearch(haystack), foldForSearch(needle))
}

func foldForSearch(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
