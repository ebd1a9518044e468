// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoutingTableSize tracks the current number of contacts held
	// across all buckets (spec section 3).
	RoutingTableSize = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "table_size",
			Help:      "Current number of contacts in the routing table",
		},
	)

	// RoutingBucketSplits tracks how often a bucket covering the
	// local id's prefix splits on overflow.
	RoutingBucketSplits = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "bucket_splits_total",
			Help:      "Total number of bucket splits",
		},
	)

	// RoutingEvictionPings tracks the least-recently-seen-head ping
	// AddContact issues before evicting on a full, non-local bucket.
	RoutingEvictionPings = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "eviction_pings_total",
			Help:      "Total number of eviction pings issued by result",
		},
		[]string{"result"}, // head_alive, head_evicted
	)
)
