package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AngelCh415/PPC_GO/internal/models"
)

// Collectors are the Prometheus series fed by every analysis run.
type Collectors struct {
	Analyses        prometheus.Counter
	Recommendations *prometheus.CounterVec
	WastedSpend     *prometheus.GaugeVec
	Duration        prometheus.Histogram
}

func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		Analyses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ppc_analyses_total",
			Help: "Analysis runs completed.",
		}),
		Recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ppc_recommendations_total",
			Help: "Recommendations emitted, by primary action or trend flag.",
		}, []string{"action"}),
		WastedSpend: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ppc_wasted_spend",
			Help: "Estimated wasted spend of the latest run, by category.",
		}, []string{"category"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ppc_analysis_duration_seconds",
			Help:    "Time spent aggregating and evaluating one analysis set.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	reg.MustRegister(c.Analyses, c.Recommendations, c.WastedSpend, c.Duration)
	return c
}

func (c *Collectors) Observe(res models.AnalysisResult, report models.WASPReport, took time.Duration) {
	c.Analyses.Inc()
	c.Duration.Observe(took.Seconds())
	for action, n := range res.Summary {
		c.Recommendations.WithLabelValues(string(action)).Add(float64(n))
	}
	for _, cat := range report.Categories {
		c.WastedSpend.WithLabelValues(cat.ID).Set(cat.EstimatedWaste)
	}
}
