// Package metrics defines and registers all custom Prometheus metrics for the
// exhibitor portal. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "exhibitor"

// ── Token metrics ─────────────────────────────────────────────────────────────

// TokensIssuedTotal counts activation tokens handed out.
// Label:
//   - purpose: "activation" or "email_change"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of activation tokens issued, by purpose.",
	},
	[]string{"purpose"},
)

// TokensConsumedTotal counts redemption attempts.
// Labels:
//   - purpose: "activation" or "email_change"
//   - result: "ok" or "rejected"
var TokensConsumedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_consumed_total",
		Help:      "Total number of token redemption attempts, by purpose and result.",
	},
	[]string{"purpose", "result"},
)

// TokensSweptTotal counts expired tokens removed by the sweeper.
var TokensSweptTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_swept_total",
		Help:      "Total number of expired tokens deleted by the background sweeper.",
	},
)

// ── Account metrics ───────────────────────────────────────────────────────────

// SignupsTotal counts accounts created through the sign-up form.
var SignupsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of exhibitor sign-ups.",
	},
)

// NotificationsTotal counts outbound notifications.
// Labels:
//   - template: "verification", "email_change" or "email_changed"
//   - result: "sent" or "failed"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of notifications handed to the transport, by template and result.",
	},
	[]string{"template", "result"},
)

// ── Survey metrics ────────────────────────────────────────────────────────────

// SurveyAnswersTotal counts stored answer rows.
// Label:
//   - survey_id: the survey the answers belong to
var SurveyAnswersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "survey_answers_total",
		Help:      "Total number of survey answer rows recorded.",
	},
	[]string{"survey_id"},
)

// SweepDuration measures one sweeper pass.
var SweepDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "token_sweep_duration_seconds",
		Help:      "Duration of one expired-token sweep.",
		Buckets:   prometheus.DefBuckets,
	},
)
