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
	// CrawlLookups tracks iterative lookups by kind and whether they
	// found their target (spec section 4.4/4.5).
	CrawlLookups = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "lookups_total",
			Help:      "Total number of iterative lookups by kind and result",
		},
		[]string{"kind", "result"}, // find_node/find_value, found/not_found
	)

	// CrawlRounds tracks the number of α-parallel rounds a lookup
	// took to converge.
	CrawlRounds = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "rounds",
			Help:      "Number of alpha-parallel rounds per lookup",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		},
	)

	// CrawlLookupDuration tracks total lookup wall-clock time.
	CrawlLookupDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "lookup_duration_seconds",
			Help:      "Iterative lookup duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)

	// CrawlReconciliations tracks value reconciliation outcomes
	// (spec section 4.5/4.6) across a get_concat fan-in.
	CrawlReconciliations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "reconciliations_total",
			Help:      "Total number of multi-response reconciliations by strategy",
		},
		[]string{"strategy"}, // set_union, majority_vote
	)
)
