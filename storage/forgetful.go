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

// Package storage implements component 4, the Local Storage: a
// capacity-bounded, TTL-bounded key-value map that lazily culls
// expired entries on read, plus the set of keys known to carry
// JSON-array set semantics.
package storage

import (
	"sync"
	"time"

	"github.com/sage-x-project/dht/internal/metrics"
)

const (
	// DefaultCapacity is the default entry cap before the oldest
	// entries are evicted on the next cull.
	DefaultCapacity = 1000
	// DefaultTTL is the default entry lifetime.
	DefaultTTL = 24 * time.Hour
)

// Entry is a StorageEntry: a value and the instant it was inserted.
type Entry struct {
	Value      []byte
	InsertedAt time.Time
}

// Forgetful is the ForgetfulStorage of spec section 3: bounded,
// TTL-driven, culled on every read. It also tracks SetKeys, the set
// of keys whose value is maintained as a JSON-encoded set rather than
// a plain scalar (spec section 4.3's append/remove semantics).
//
// Grounded on the teacher's sync.RWMutex-guarded in-memory map
// (crypto/storage/memory.go), generalized with TTL expiry and a
// capacity-bounded eviction-by-age cull.
type Forgetful struct {
	mu       sync.RWMutex
	entries  map[string]Entry
	setKeys  map[string]bool
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// New returns an empty Forgetful store with the given capacity and TTL.
func New(capacity int, ttl time.Duration) *Forgetful {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Forgetful{
		entries:  make(map[string]Entry),
		setKeys:  make(map[string]bool),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// cull removes expired entries and, if still over capacity, evicts
// the oldest entries until back within bounds. Callers must hold mu.
func (f *Forgetful) cull() {
	defer func() { metrics.StorageKeysHeld.Set(float64(len(f.entries))) }()

	now := f.now()
	for k, e := range f.entries {
		if now.Sub(e.InsertedAt) > f.ttl {
			delete(f.entries, k)
			delete(f.setKeys, k)
			metrics.StorageCulled.WithLabelValues("ttl_expired").Inc()
		}
	}
	for len(f.entries) > f.capacity {
		var oldestKey string
		var oldestAt time.Time
		first := true
		for k, e := range f.entries {
			if first || e.InsertedAt.Before(oldestAt) {
				oldestKey, oldestAt, first = k, e.InsertedAt, false
			}
		}
		if first {
			break
		}
		delete(f.entries, oldestKey)
		delete(f.setKeys, oldestKey)
		metrics.StorageCulled.WithLabelValues("capacity").Inc()
	}
}

// Get implements get(k) → (found, value). It never errors on absence
// (spec section 3).
func (f *Forgetful) Get(key string) (found bool, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cull()
	e, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	return true, e.Value
}

// Put stores value under key, marking its insertion instant as now.
func (f *Forgetful) Put(key string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = Entry{Value: value, InsertedAt: f.now()}
	f.cull()
}

// MarkSetKey records that key carries JSON-array set semantics (spec
// section 4.3: "mark the key as a set key").
func (f *Forgetful) MarkSetKey(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setKeys[key] = true
}

// IsSetKey reports whether key is known to carry set semantics.
func (f *Forgetful) IsSetKey(key string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.setKeys[key]
}

// Delete removes key unconditionally, used by certstore mismatch
// rejection and tests.
func (f *Forgetful) Delete(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	delete(f.setKeys, key)
}

// Keys returns a snapshot of all live (non-expired) keys, culling
// first. Used by Maintenance for republish and by the admin surface
// for read-only snapshots.
func (f *Forgetful) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cull()
	keys := make([]string, 0, len(f.entries))
	for k := range f.entries {
		keys = append(keys, k)
	}
	return keys
}

// Len reports the number of live entries, culling first.
func (f *Forgetful) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cull()
	return len(f.entries)
}

// SetClock overrides the store's notion of "now", for deterministic
// TTL tests.
func (f *Forgetful) SetClock(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// SnapshotEntry describes one locally-held key for the admin surface's
// storage snapshot (spec section 4.11): its set-vs-scalar kind and the
// TTL remaining before it is culled.
type SnapshotEntry struct {
	Key          string
	IsSet        bool
	TTLRemaining time.Duration
}

// Snapshot returns metadata for every live key, culling first.
func (f *Forgetful) Snapshot() []SnapshotEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cull()
	now := f.now()
	out := make([]SnapshotEntry, 0, len(f.entries))
	for k, e := range f.entries {
		remaining := f.ttl - now.Sub(e.InsertedAt)
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, SnapshotEntry{Key: k, IsSet: f.setKeys[k], TTLRemaining: remaining})
	}
	return out
}
