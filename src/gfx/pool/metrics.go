// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Allocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "koru_pool_allocations_total",
			Help: "Physical resources allocated because no pooled one was compatible",
		},
		[]string{"pool"},
	)

	Reuses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "koru_pool_reuses_total",
			Help: "Acquire calls satisfied by a pooled resource",
		},
		[]string{"pool"},
	)

	Evictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "koru_pool_evictions_total",
			Help: "Pooled resources destroyed on expiry or clear",
		},
		[]string{"pool"},
	)

	Entries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "koru_pool_entries",
			Help: "Resources currently held by the pool",
		},
		[]string{"pool"},
	)
)

type poolMetrics struct {
	allocations prometheus.Counter
	reuses      prometheus.Counter
	evictions   prometheus.Counter
	entries     prometheus.Gauge
}

func newPoolMetrics(name string) poolMetrics {
	return poolMetrics{
		allocations: Allocations.WithLabelValues(name),
		reuses:      Reuses.WithLabelValues(name),
		evictions:   Evictions.WithLabelValues(name),
		entries:     Entries.WithLabelValues(name),
	}
}
