// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"net/http"
	"time"

	"github.com/luxfi/metric"
)

const (
	methodLabel = "method"
	baseLabel   = "base"
)

var requestLabels = []string{methodLabel, baseLabel}

type serverMetrics struct {
	requests metric.CounterVec
	duration metric.GaugeVec
	inflight metric.Gauge
}

func newMetrics(reg metric.Metrics) *serverMetrics {
	return &serverMetrics{
		requests: reg.NewCounterVec(
			"requests",
			"number of API requests",
			requestLabels,
		),
		duration: reg.NewGaugeVec(
			"request_duration",
			"time (in ns) spent handling API requests",
			requestLabels,
		),
		inflight: reg.NewGauge(
			"requests_inflight",
			"number of inflight API requests",
		),
	}
}

func (m *serverMetrics) wrapHandler(base string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		labels := metric.Labels{
			methodLabel: r.Method,
			baseLabel:   base,
		}
		m.inflight.Inc()
		defer m.inflight.Dec()

		start := time.Now()
		handler.ServeHTTP(w, r)
		m.requests.With(labels).Inc()
		m.duration.With(labels).Add(float64(time.Since(start)))
	})
}
