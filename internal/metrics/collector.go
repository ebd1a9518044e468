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

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package metrics exposes a node's Prometheus metrics: one Registry
// shared by every collector file in this package (rpc, routing,
// storage, crawl), served over HTTP by Handler/StartServer.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "dht"

// Registry is the collector registry every metric in this package
// registers against, rather than the global prometheus.DefaultRegisterer,
// so a node embedding this package doesn't collide with a host
// process's own metrics.
var Registry = prometheus.NewRegistry()
