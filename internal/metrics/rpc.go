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
	// RPCCallsTotal tracks outbound RPC calls by verb and outcome
	// (spec section 4's six signed verbs, protocol.Outcome's five
	// values).
	RPCCallsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Total number of outbound RPC calls by verb and outcome",
		},
		[]string{"verb", "outcome"}, // ping/find_node/find_value/store/append/remove, ok/nack/bad_signature/timeout/policy_error
	)

	// RPCCallDuration tracks outbound RPC call latency.
	RPCCallDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "Outbound RPC call duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"verb"},
	)

	// RPCSignatureFailures tracks inbound requests that failed
	// signature verification, the one failure mode that never
	// produces a response on the wire.
	RPCSignatureFailures = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "signature_failures_total",
			Help:      "Total number of inbound requests dropped for a bad signature",
		},
	)

	// RPCPrivilegedBootstraps tracks how often the privileged
	// bootstrap case (unknown sender on ping/find_value) fires.
	RPCPrivilegedBootstraps = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "privileged_bootstraps_total",
			Help:      "Total number of privileged-bootstrap certificate acceptances by result",
		},
		[]string{"result"}, // accepted, rejected
	)
)
