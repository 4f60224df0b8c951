// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsQueue holds the Prometheus metrics for the ingest queue.
type metricsQueue struct {
	once sync.Once

	enqueued prometheus.Counter
	deduped  prometheus.Counter
	shed     prometheus.Counter
	batches  prometheus.Counter
}

var queueMetrics = func() *metricsQueue {
	m := &metricsQueue{}
	m.init()
	return m
}()

func (m *metricsQueue) init() {
	m.once.Do(func() {
		m.enqueued = prometheus.NewCounter(prometheus.CounterOpts{Name: "soulagent_ingest_enqueued_total", Help: "Items accepted into the ingest queue"})
		m.deduped = prometheus.NewCounter(prometheus.CounterOpts{Name: "soulagent_ingest_deduped_total", Help: "Items dropped inside the dedup window"})
		m.shed = prometheus.NewCounter(prometheus.CounterOpts{Name: "soulagent_ingest_shed_total", Help: "Items dropped because the queue was over its pending limit"})
		m.batches = prometheus.NewCounter(prometheus.CounterOpts{Name: "soulagent_ingest_batches_total", Help: "Batches drained by the pipeline consumer"})

		prometheus.MustRegister(m.enqueued, m.deduped, m.shed, m.batches)
	})
}
