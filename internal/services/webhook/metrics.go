package webhook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mCounted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhook_pushes_counted_total", Help: "Push events added to a daily counter.",
	})
	mDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhook_duplicate_deliveries_total", Help: "Deliveries dropped as already seen.",
	})
	mIgnored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_ignored_total", Help: "Signed non-push events acknowledged without counting.",
	}, []string{"event"})
	mRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_rejected_total", Help: "Deliveries rejected before counting.",
	}, []string{"reason"})
)
