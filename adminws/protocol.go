// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package adminws implements the admin/operator surface (spec section
// 4.11): a gorilla/websocket connection, separate from the DHT's UDP
// wire protocol and outside its signed-RPC trust boundary, that
// serves read-only routing-table and storage snapshots and proxies
// manual get/set/append/remove/get_concat calls straight to a
// dht.Node for operator debugging.
//
// Grounded on the teacher's pkg/agent/transport/websocket client/server
// pair, retargeted from carrying SecureMessage/Response frames to
// carrying these snapshot and proxy-call shapes.
package adminws

import "time"

// Op identifies one admin-surface request (spec section 4.11).
type Op string

const (
	OpRoutingSnapshot Op = "routing_snapshot"
	OpStorageSnapshot Op = "storage_snapshot"
	OpGet             Op = "get"
	OpSet             Op = "set"
	OpAppend          Op = "append"
	OpRemove          Op = "remove"
	OpGetConcat       Op = "get_concat"
)

// Request is one admin-surface call. Key/Value are only meaningful
// for the per-key ops (Get/Set/Append/Remove/GetConcat); Value is
// raw bytes, a JSON array for Append/Remove's set semantics or an
// opaque scalar for Set.
type Request struct {
	ID    string `json:"id"`
	Op    Op     `json:"op"`
	Key   string `json:"key,omitempty"`
	Value []byte `json:"value,omitempty"`
}

// Response answers a Request by ID. At most one of the trailing
// snapshot/value fields is populated, depending on the request's Op;
// Set/Append/Remove and error responses populate none of them.
type Response struct {
	ID      string           `json:"id"`
	OK      bool             `json:"ok"`
	Error   string           `json:"error,omitempty"`
	Found   bool             `json:"found,omitempty"`
	Value   []byte           `json:"value,omitempty"`
	Routing *RoutingSnapshot `json:"routing,omitempty"`
	Storage *StorageSnapshot `json:"storage,omitempty"`
}

// RoutingSnapshot answers OpRoutingSnapshot: the routing table's
// known contacts, one entry per node currently held in any bucket.
type RoutingSnapshot struct {
	LocalID string           `json:"local_id"`
	Count   int              `json:"count"`
	Nodes   []RoutingContact `json:"nodes"`
}

// RoutingContact is one routing-table entry in a snapshot.
type RoutingContact struct {
	ID   string `json:"id"`
	Addr string `json:"addr"`
}

// StorageSnapshot answers OpStorageSnapshot: metadata for every live
// locally-held key.
type StorageSnapshot struct {
	Count int              `json:"count"`
	Keys  []StorageKeyInfo `json:"keys"`
}

// StorageKeyInfo is one stored key's metadata in a snapshot.
type StorageKeyInfo struct {
	Key          string        `json:"key"`
	IsSet        bool          `json:"is_set"`
	TTLRemaining time.Duration `json:"ttl_remaining"`
}
