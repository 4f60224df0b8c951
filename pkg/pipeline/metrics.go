// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsPipeline holds the Prometheus metrics for the consumer.
type metricsPipeline struct {
	once sync.Once

	processed  prometheus.Counter
	sinkErrors *prometheus.CounterVec
}

var pipelineMetrics = func() *metricsPipeline {
	m := &metricsPipeline{}
	m.init()
	return m
}()

func (m *metricsPipeline) init() {
	m.once.Do(func() {
		m.processed = prometheus.NewCounter(prometheus.CounterOpts{Name: "soulagent_pipeline_processed_total", Help: "Classified items persisted by the pipeline"})
		m.sinkErrors = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "soulagent_pipeline_sink_errors_total", Help: "Per-sink persistence failures"}, []string{"sink"})

		prometheus.MustRegister(m.processed, m.sinkErrors)
	})
}
