// Package metrics holds the Prometheus collectors for the chat pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// turnsTotal counts chat turns by outcome (ok, model_error, persist_error).
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contact_assistant",
		Subsystem: "chat",
		Name:      "turns_total",
		Help:      "Chat turns by outcome",
	}, []string{"outcome"})

	// evidenceTierTotal counts which evidence tier grounded a turn
	// (confirmed, heuristic, recent, none).
	evidenceTierTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contact_assistant",
		Subsystem: "grounding",
		Name:      "evidence_tier_total",
		Help:      "Turns by the evidence tier used to ground them",
	}, []string{"tier"})

	// crmLookupsTotal counts CRM provider lookups by provider and outcome
	// (hit, empty, no_credential, error).
	crmLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contact_assistant",
		Subsystem: "crm",
		Name:      "lookups_total",
		Help:      "CRM provider lookups by provider and outcome",
	}, []string{"provider", "outcome"})

	// modelAttemptsTotal counts model calls by provider and outcome
	// (success, retry, failure).
	modelAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contact_assistant",
		Subsystem: "llm",
		Name:      "attempts_total",
		Help:      "Model call attempts by provider and outcome",
	}, []string{"provider", "outcome"})

	// titleJobsTotal counts title jobs by outcome
	// (generated, fallback, already_titled, cancelled, duplicate).
	titleJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contact_assistant",
		Subsystem: "title",
		Name:      "jobs_total",
		Help:      "Thread title jobs by outcome",
	}, []string{"outcome"})

	modelLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "contact_assistant",
		Subsystem: "llm",
		Name:      "turn_latency_seconds",
		Help:      "Model latency per chat turn including retries",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"provider"})
)

func RecordTurn(outcome string) {
	turnsTotal.WithLabelValues(outcome).Inc()
}

func RecordEvidenceTier(tier string) {
	evidenceTierTotal.WithLabelValues(tier).Inc()
}

func RecordCRMLookup(provider, outcome string) {
	crmLookupsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordModelAttempt matches llm.AttemptObserver.
func RecordModelAttempt(provider, outcome string) {
	modelAttemptsTotal.WithLabelValues(provider, outcome).Inc()
}

func RecordModelLatency(provider string, seconds float64) {
	modelLatencySeconds.WithLabelValues(provider).Observe(seconds)
}

func RecordTitleJob(outcome string) {
	titleJobsTotal.WithLabelValues(outcome).Inc()
}
