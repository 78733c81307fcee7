package statusd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	workerEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redactd_statusd_worker_events_total",
		Help: "Worker events applied, by subject.",
	}, []string{"subject"})

	staleWorkerEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "redactd_statusd_stale_worker_events_total",
		Help: "Worker events dropped because the row had already moved past them.",
	})
)
