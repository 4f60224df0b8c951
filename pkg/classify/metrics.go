// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsClassifier holds the Prometheus metrics for classification.
type metricsClassifier struct {
	once sync.Once

	fallbacks prometheus.Counter
}

var classifierMetrics = func() *metricsClassifier {
	m := &metricsClassifier{}
	m.init()
	return m
}()

func (m *metricsClassifier) init() {
	m.once.Do(func() {
		m.fallbacks = prometheus.NewCounter(prometheus.CounterOpts{Name: "soulagent_classify_fallbacks_total", Help: "Items classified by the rule table instead of the LLM"})

		prometheus.MustRegister(m.fallbacks)
	})
}
