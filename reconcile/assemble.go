package reconcile

import (
	"fmt"

	"github.com/simerusm/emr-dashboard/section"
)

// Assemble produces the final section list from normalized sections. Every
// emitted section has a non-empty title and at least one content span; a
// section failing that is dropped with a recorded diagnostic rather than
// emitted as a dangling empty entry.
func Assemble(secs []section.Section) ([]section.Section, []Anomaly) {
	var anomalies []Anomaly
	out := make([]section.Section, 0, len(secs))

	for i, sec := range secs {
		if sec.Title == "" {
			anomalies = append(anomalies, Anomaly{
				Section: fmt.Sprintf("#%d", i),
				Kind:    AnomalySectionDropped,
				Detail:  "section without title",
			})
			continue
		}
		if len(sec.Content) == 0 {
			anomalies = append(anomalies, Anomaly{
				Section: sec.Title,
				Kind:    AnomalySectionDropped,
				Detail:  "section with empty content after validation",
			})
			continue
		}
		out = append(out, sec)
	}

	return out, anomalies
}
