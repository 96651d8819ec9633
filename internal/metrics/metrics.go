package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ubp-service/internal/ubp/model"
)

const (
	metricPrefix = "ubp_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	calculationTotal   *prometheus.CounterVec
	calculationLatency *prometheus.HistogramVec
	componentsTotal    *prometheus.CounterVec
	coatingsTotal      *prometheus.CounterVec
	exportTotal        *prometheus.CounterVec
	mappingEntries     *prometheus.GaugeVec
	panicsTotal        prometheus.Counter
)

// Init registers the service metrics with the default registry. Safe to call twice.
func Init() {
	registerOnce.Do(func() {
		calculationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "calculation_total",
				Help: "Total calculation runs by result",
			},
			[]string{"result"},
		)
		calculationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "calculation_latency_seconds",
				Help:    "Upload parse plus calculation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		componentsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "components_total",
				Help: "Calculated components by material match outcome",
			},
			[]string{"outcome"},
		)
		coatingsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "coatings_total",
				Help: "Coated components by coating match outcome",
			},
			[]string{"outcome"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total exports by format and result",
			},
			[]string{"format", "result"},
		)
		mappingEntries = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "mapping_entries",
				Help: "Loaded mapping rules by table",
			},
			[]string{"table"},
		)
		panicsTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_panics_total",
				Help: "Recovered handler panics",
			},
		)

		prometheus.MustRegister(
			calculationTotal,
			calculationLatency,
			componentsTotal,
			coatingsTotal,
			exportTotal,
			mappingEntries,
			panicsTotal,
		)
	})
}

// ObserveCalculation records one calculation run.
func ObserveCalculation(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if calculationTotal != nil {
		calculationTotal.WithLabelValues(result).Inc()
	}
	if calculationLatency != nil {
		calculationLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveComponents counts match outcomes of a finished run.
func ObserveComponents(res model.CalculationResults) {
	if componentsTotal == nil || coatingsTotal == nil {
		return
	}
	for _, c := range res.Components {
		outcome := string(c.MatchType)
		if !c.MaterialMatched && c.UnmatchedReason != model.ReasonNone {
			outcome = string(c.UnmatchedReason)
		}
		componentsTotal.WithLabelValues(outcome).Inc()

		if c.Coating == "" {
			continue
		}
		if c.CoatingMatched {
			coatingsTotal.WithLabelValues("matched").Inc()
		} else {
			coatingsTotal.WithLabelValues("unmatched").Inc()
		}
	}
}

// IncExport counts an export by format and result.
func IncExport(format, result string) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
}

// SetMappingEntries publishes the size of each loaded rule table.
func SetMappingEntries(table string, n int) {
	if mappingEntries != nil {
		mappingEntries.WithLabelValues(table).Set(float64(n))
	}
}

// IncPanic counts a recovered handler panic.
func IncPanic() {
	if panicsTotal != nil {
		panicsTotal.Inc()
	}
}
