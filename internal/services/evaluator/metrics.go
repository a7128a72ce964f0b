package evaluator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evaluator_sweeps_total", Help: "Sweeps by outcome (ok, failed, skipped_locked).",
	}, []string{"outcome"})
	mDue = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evaluator_users_due_total", Help: "Users fetched as due for evaluation.",
	})
	mSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evaluator_notifications_sent_total", Help: "Notifications delivered by kind.",
	}, []string{"kind"})
	mErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evaluator_user_errors_total", Help: "Per-user failures by stage.",
	}, []string{"stage"})
	mDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "evaluator_sweep_duration_seconds", Help: "Sweep duration.",
		Buckets: prometheus.DefBuckets,
	})
)
