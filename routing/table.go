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

// Package routing implements component 3, the k-bucket routing table
// keyed by XOR distance, as a binary trie of buckets rooted at the
// local node's id range.
package routing

import (
	"errors"
	"sort"
	"sync"

	"github.com/sage-x-project/dht/internal/metrics"
	"github.com/sage-x-project/dht/kadid"
)

// K is the bucket width (spec section 4, "k=20").
const K = 20

// ErrAddLocalNode is a programming-logic violation (spec section 7):
// the local node must never be added to its own routing table.
var ErrAddLocalNode = errors.New("routing: refusing to add local node to its own table")

// trieNode is either a leaf (bucket != nil) or an internal split node
// with two children covering the 0/1 branch at the next bit.
type trieNode struct {
	bucket      *bucket
	left, right *trieNode
}

func newLeaf() *trieNode { return &trieNode{bucket: newBucket()} }

// Table is the binary-trie routing table of spec section 3.
//
// The event-loop model of spec section 5 serializes every caller of
// Table through one goroutine per node — except the iterative
// crawler, which issues its α-parallel RPCs from several goroutines
// at once, each of which promotes its respondent into this same
// table on success. mu guards against that concurrent access; it is
// released for the duration of the eviction Pinger call so a
// reentrant AddContact (the probed node itself answering and being
// promoted) cannot deadlock against it.
type Table struct {
	local kadid.Node
	root  *trieNode
	mu    sync.Mutex
}

// New returns an empty Table for the given local node.
func New(local kadid.Node) *Table {
	return &Table{local: local, root: newLeaf()}
}

func bitAt(id kadid.ID, depth int) int {
	byteIdx := depth / 8
	bitIdx := 7 - uint(depth%8)
	return int((id[byteIdx] >> bitIdx) & 1)
}

// leafFor walks the trie to the bucket that would hold id, along with
// the depth (number of bits consumed) at which it was found.
func (t *Table) leafFor(id kadid.ID) (*trieNode, int) {
	node := t.root
	depth := 0
	for node.bucket == nil {
		if bitAt(id, depth) == 0 {
			node = node.left
		} else {
			node = node.right
		}
		depth++
	}
	return node, depth
}

// coversLocal reports whether the bucket range found at depth (the
// number of bits already fixed matching local's id) still contains
// the local node's own id — i.e. whether every id sharing that prefix
// with id also shares it with t.local.ID.
func coversLocal(local kadid.ID, id kadid.ID, depth int) bool {
	for i := 0; i < depth; i++ {
		if bitAt(local, i) != bitAt(id, i) {
			return false
		}
	}
	return true
}

// Pinger blocks until it knows whether n answered a ping. AddContact
// calls it with mu released, so a reentrant AddContact triggered by
// the probe's own success (the probed node being promoted back into
// this table) proceeds normally instead of deadlocking.
type Pinger func(n kadid.Node) bool

// AddContact implements addContact (spec section 4.2). It mutates the
// table in place; ping is invoked at most once, only when a target
// bucket is both full and outside the local node's own range.
func (t *Table) AddContact(n kadid.Node, ping Pinger) error {
	if n.ID == t.local.ID {
		return ErrAddLocalNode
	}
	defer t.updateSizeMetric()

	t.mu.Lock()
	for {
		leaf, depth := t.leafFor(n.ID)

		if leaf.bucket.touch(n) {
			t.mu.Unlock()
			return nil
		}
		if !leaf.bucket.full() {
			leaf.bucket.appendNew(n)
			t.mu.Unlock()
			return nil
		}
		if coversLocal(t.local.ID, n.ID, depth) {
			t.split(leaf, depth)
			continue // retry insert into the freshly split children
		}

		head, ok := leaf.bucket.head()
		if !ok {
			leaf.bucket.appendNew(n)
			t.mu.Unlock()
			return nil
		}

		t.mu.Unlock()
		alive := ping(head)
		t.mu.Lock()

		// The bucket may have changed while unlocked (n or head may
		// already have been promoted by a concurrent caller); resolve
		// against current state rather than the snapshot above.
		leaf, _ = t.leafFor(n.ID)
		if leaf.bucket.touch(n) {
			t.mu.Unlock()
			return nil
		}
		if alive {
			leaf.bucket.touch(head)
			metrics.RoutingEvictionPings.WithLabelValues("head_alive").Inc()
		} else if !leaf.bucket.full() {
			leaf.bucket.appendNew(n)
			metrics.RoutingEvictionPings.WithLabelValues("head_evicted").Inc()
		} else {
			leaf.bucket.replaceHead(n)
			metrics.RoutingEvictionPings.WithLabelValues("head_evicted").Inc()
		}
		t.mu.Unlock()
		return nil
	}
}

// split divides a full leaf bucket into two children at the next bit
// and redistributes its nodes between them.
func (t *Table) split(leaf *trieNode, depth int) {
	leaf.left = newLeaf()
	leaf.right = newLeaf()
	for _, n := range leaf.bucket.all() {
		if bitAt(n.ID, depth) == 0 {
			leaf.left.bucket.appendNew(n)
		} else {
			leaf.right.bucket.appendNew(n)
		}
	}
	leaf.bucket = nil
	metrics.RoutingBucketSplits.Inc()
}

// updateSizeMetric recomputes and publishes the routing table's total
// contact count. Called via defer rather than threaded through every
// AddContact/RemoveContact return path.
func (t *Table) updateSizeMetric() {
	t.mu.Lock()
	count := 0
	t.walk(t.root, func(kadid.Node) { count++ })
	t.mu.Unlock()
	metrics.RoutingTableSize.Set(float64(count))
}

// RemoveContact implements removeContact (spec section 4.2).
func (t *Table) RemoveContact(id kadid.ID) {
	defer t.updateSizeMetric()
	t.mu.Lock()
	defer t.mu.Unlock()
	leaf, _ := t.leafFor(id)
	leaf.bucket.remove(id)
}

// IsNewNode implements isNewNode (spec section 4.2): true iff no
// bucket currently contains n.
func (t *Table) IsNewNode(id kadid.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	leaf, _ := t.leafFor(id)
	return leaf.bucket.find(id) == -1
}

// FindNeighbors implements findNeighbors (spec section 4.2): the k
// closest known nodes to target, excluding any id in exclude.
func (t *Table) FindNeighbors(target kadid.ID, k int, exclude map[kadid.ID]bool) []kadid.Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	var all []kadid.Node
	t.walk(t.root, func(n kadid.Node) {
		if exclude != nil && exclude[n.ID] {
			return
		}
		all = append(all, n)
	})

	sort.Slice(all, func(i, j int) bool {
		return kadid.CloserTo(target, all[i].ID, all[j].ID)
	})
	if len(all) > k {
		all = all[:k]
	}
	return all
}

func (t *Table) walk(node *trieNode, visit func(kadid.Node)) {
	if node.bucket != nil {
		for _, n := range node.bucket.all() {
			visit(n)
		}
		return
	}
	t.walk(node.left, visit)
	t.walk(node.right, visit)
}

// Size returns the total number of nodes held across all buckets.
func (t *Table) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	count := 0
	t.walk(t.root, func(kadid.Node) { count++ })
	return count
}

// All returns every node held across all buckets, used by the admin
// surface's routing-table snapshot (spec section 4.11).
func (t *Table) All() []kadid.Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []kadid.Node
	t.walk(t.root, func(n kadid.Node) { out = append(out, n) })
	return out
}

// LeastRecentlySeen returns, for every bucket, its least-recently-seen
// node — used by Maintenance as the targets of its bucket-refresh
// find_node crawls (spec section 4.10).
func (t *Table) LeastRecentlySeen() []kadid.Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []kadid.Node
	var visit func(node *trieNode)
	visit = func(node *trieNode) {
		if node.bucket != nil {
			if head, ok := node.bucket.head(); ok {
				out = append(out, head)
			}
			return
		}
		visit(node.left)
		visit(node.right)
	}
	visit(t.root)
	return out
}
