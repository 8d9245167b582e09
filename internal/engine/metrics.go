package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medgemma",
			Subsystem: "engine",
			Name:      "generations_total",
			Help:      "Total generations by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medgemma",
			Subsystem: "engine",
			Name:      "generation_duration_seconds",
			Help:      "Wall-clock duration of generations in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"backend"},
	)

	tokensGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medgemma",
			Subsystem: "engine",
			Name:      "tokens_generated_total",
			Help:      "Total tokens generated",
		},
		[]string{"backend"},
	)

	modelReady = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "medgemma",
			Subsystem: "engine",
			Name:      "model_ready",
			Help:      "1 when a model is loaded and ready to generate",
		},
	)

	loadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medgemma",
			Subsystem: "engine",
			Name:      "load_duration_seconds",
			Help:      "Duration of model loads in seconds",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"backend", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(generationsTotal, generationDuration, tokensGeneratedTotal, modelReady, loadDuration)
}

func observeGeneration(backend, outcome string, seconds float64, tokens int) {
	generationsTotal.WithLabelValues(backend, outcome).Inc()
	generationDuration.WithLabelValues(backend).Observe(seconds)
	if tokens > 0 {
		tokensGeneratedTotal.WithLabelValues(backend).Add(float64(tokens))
	}
}
