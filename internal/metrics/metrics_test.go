package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ubp-service/internal/ubp/model"
)

// counterValue reads a counter/gauge sample from the default registry.
func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func TestMetrics(t *testing.T) {
	Init()
	Init()

	ObserveCalculation("", 20*time.Millisecond)
	ObserveCalculation(ResultError, time.Millisecond)
	assert.Equal(t, 1.0, counterValue(t, "ubp_calculation_total", map[string]string{"result": "success"}))
	assert.Equal(t, 1.0, counterValue(t, "ubp_calculation_total", map[string]string{"result": "error"}))

	ObserveComponents(model.CalculationResults{Components: []model.ComponentResult{
		{MaterialMatched: true, MatchType: model.MatchExact, Coating: "feuerverzinkt", CoatingMatched: true},
		{MaterialMatched: true, MatchType: model.MatchTypeOverride},
		{MatchType: model.MatchNone, UnmatchedReason: model.ReasonNoMapping, Coating: "eloxiert"},
		{MatchType: model.MatchNone, UnmatchedReason: model.ReasonEmpty},
	}})
	assert.Equal(t, 1.0, counterValue(t, "ubp_components_total", map[string]string{"outcome": "exact"}))
	assert.Equal(t, 1.0, counterValue(t, "ubp_components_total", map[string]string{"outcome": "type_override"}))
	assert.Equal(t, 1.0, counterValue(t, "ubp_components_total", map[string]string{"outcome": "no_mapping"}))
	assert.Equal(t, 1.0, counterValue(t, "ubp_components_total", map[string]string{"outcome": "empty"}))
	assert.Equal(t, 1.0, counterValue(t, "ubp_coatings_total", map[string]string{"outcome": "matched"}))
	assert.Equal(t, 1.0, counterValue(t, "ubp_coatings_total", map[string]string{"outcome": "unmatched"}))

	IncExport("pdf", "")
	IncExport("", ResultError)
	assert.Equal(t, 1.0, counterValue(t, "ubp_export_total", map[string]string{"format": "pdf", "result": "success"}))
	assert.Equal(t, 1.0, counterValue(t, "ubp_export_total", map[string]string{"format": "unknown", "result": "error"}))

	SetMappingEntries("materials", 11)
	assert.Equal(t, 11.0, counterValue(t, "ubp_mapping_entries", map[string]string{"table": "materials"}))

	IncPanic()
	assert.Equal(t, 1.0, counterValue(t, "ubp_http_panics_total", nil))
}
