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
	// StorageKeysHeld tracks the current number of keys held locally.
	StorageKeysHeld = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "keys_held",
			Help:      "Current number of keys held in local storage",
		},
	)

	// StorageOperations tracks local storage operations by verb
	// (store/append/remove/get_concat) and whether the key was
	// within reach (spec section 4.8's replication rule).
	StorageOperations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Total number of local storage operations",
		},
		[]string{"verb", "within_reach"},
	)

	// StorageCulled tracks keys dropped by Forgetful's TTL/capacity
	// eviction.
	StorageCulled = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "culled_total",
			Help:      "Total number of keys culled from local storage",
		},
		[]string{"reason"}, // ttl_expired, capacity
	)

	// StorageSetOpConflicts counts append/remove operations that found
	// an already-stored value which did not parse as a JSON array; that
	// value is then treated as an empty set.
	StorageSetOpConflicts = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "set_op_conflicts_total",
			Help:      "Total number of append/remove operations whose stored value did not parse as a JSON array",
		},
	)
)
