// Package metrics holds the Prometheus collectors shared by the engines,
// the dispatcher and the HTTP server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RecomputeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moodlog_prompt_recompute_total",
		Help: "Prompt scheduler passes by result.",
	}, []string{"result"})

	PromptsScheduled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moodlog_prompts_pending",
		Help: "Prompt notifications registered by the last successful recompute.",
	})

	RuleEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moodlog_rule_events_total",
		Help: "Rule events recorded, by rule type.",
	}, []string{"type"})

	MoodsLogged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moodlog_moods_logged_total",
		Help: "Mood readings logged, by source.",
	}, []string{"source"})

	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moodlog_deliveries_total",
		Help: "Notification delivery attempts by channel and result.",
	}, []string{"channel", "result"})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moodlog_errors_total",
		Help: "Errors reported by background passes, by context.",
	}, []string{"context"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
