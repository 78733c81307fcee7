package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsAdmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "redactd_uploads_admitted_total",
		Help: "Uploads that passed validation and were persisted",
	})

	uploadsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redactd_uploads_rejected_total",
		Help: "Uploads rejected by the content validator",
	}, []string{"reason"})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "redactd_item_retries_total",
		Help: "User-invoked retry operations that queued new work",
	})

	queuePublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "redactd_queue_publish_failures_total",
		Help: "Queue gateway hand-offs that failed after the job row was persisted",
	})
)
