// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type metricsJanitor struct {
	once sync.Once

	archived prometheus.Counter
}

var janitorMetrics = func() *metricsJanitor {
	m := &metricsJanitor{}
	m.init()
	return m
}()

func (m *metricsJanitor) init() {
	m.once.Do(func() {
		m.archived = prometheus.NewCounter(prometheus.CounterOpts{Name: "soulagent_janitor_archived_total", Help: "Expired resources moved to the archive"})

		prometheus.MustRegister(m.archived)
	})
}
