package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestObserveAnswerExtractionCountsByStatus(t *testing.T) {
	before := counterValue(t, "hybridqa_answer_extractions_total", "status", "not_found")
	ObserveAnswerExtraction("not_found")
	ObserveAnswerExtraction("not_found")
	ObserveAnswerExtraction("failed")
	if got := counterValue(t, "hybridqa_answer_extractions_total", "status", "not_found"); got != before+2 {
		t.Fatalf("not_found count = %v, want %v", got, before+2)
	}
	if got := counterValue(t, "hybridqa_answer_extractions_total", "status", "failed"); got < 1 {
		t.Fatalf("failed count = %v", got)
	}
}

func counterValue(t *testing.T, name, label, value string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
