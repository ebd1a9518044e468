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

// Package crawl implements the Iterative Crawler: the α-parallel
// find_node/find_value/value-list lookups the Server Facade and
// Bootstrap flow drive to converge a routing table or resolve a key.
package crawl

import (
	"container/heap"
	"sync"

	"github.com/sage-x-project/dht/kadid"
)

type heapEntry struct {
	node kadid.Node
	dist kadid.ID
}

// nodeHeapImpl is a min-heap over heapEntry ordered by distance,
// satisfying container/heap.Interface. The nearest entry is always at
// the root, so repeatedly popping it yields ascending distance order.
type nodeHeapImpl []heapEntry

func (h nodeHeapImpl) Len() int { return len(h) }
func (h nodeHeapImpl) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return kadid.Less(h[i].dist, h[j].dist)
	}
	return kadid.Less(h[i].node.ID, h[j].node.ID)
}
func (h nodeHeapImpl) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeapImpl) Push(x any)   { *h = append(*h, x.(heapEntry)) }
func (h *nodeHeapImpl) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// NodeHeap tracks the nearest-to-target nodes seen during a crawl,
// capped at a fixed capacity with push-time eviction of the farthest
// entry once full (spec section 4.4: "NodeHeap nearest of capacity
// (k+1)*k").
type NodeHeap struct {
	mu       sync.Mutex
	target   kadid.ID
	capacity int
	h        nodeHeapImpl
	known    map[kadid.ID]bool
}

// NewNodeHeap builds an empty heap ordered by distance to target.
func NewNodeHeap(target kadid.ID, capacity int) *NodeHeap {
	return &NodeHeap{
		target:   target,
		capacity: capacity,
		known:    make(map[kadid.ID]bool),
	}
}

// Push adds n if not already known. Reports whether it was actually
// added (false if it was a duplicate, or was farther than every
// occupied slot in a full heap).
func (nh *NodeHeap) Push(n kadid.Node) bool {
	nh.mu.Lock()
	defer nh.mu.Unlock()

	if nh.known[n.ID] {
		return false
	}
	entry := heapEntry{node: n, dist: kadid.XOR(nh.target, n.ID)}

	if nh.h.Len() < nh.capacity {
		heap.Push(&nh.h, entry)
		nh.known[n.ID] = true
		return true
	}

	farthestIdx := nh.farthestIndex()
	if !kadid.Less(entry.dist, nh.h[farthestIdx].dist) {
		return false
	}
	evicted := nh.h[farthestIdx]
	heap.Remove(&nh.h, farthestIdx)
	delete(nh.known, evicted.node.ID)
	heap.Push(&nh.h, entry)
	nh.known[n.ID] = true
	return true
}

func (nh *NodeHeap) farthestIndex() int {
	worst := 0
	for i := 1; i < nh.h.Len(); i++ {
		if kadid.Less(nh.h[worst].dist, nh.h[i].dist) {
			worst = i
		}
	}
	return worst
}

// Len reports the number of entries currently tracked.
func (nh *NodeHeap) Len() int {
	nh.mu.Lock()
	defer nh.mu.Unlock()
	return nh.h.Len()
}

// Nearest returns up to n of the closest tracked nodes, ascending by
// distance.
func (nh *NodeHeap) Nearest(n int) []kadid.Node {
	nh.mu.Lock()
	defer nh.mu.Unlock()
	cp := make(nodeHeapImpl, len(nh.h))
	copy(cp, nh.h)
	heap.Init(&cp)

	out := make([]kadid.Node, 0, n)
	for cp.Len() > 0 && len(out) < n {
		out = append(out, heap.Pop(&cp).(heapEntry).node)
	}
	return out
}

// UncontactedNearest returns up to n of the closest tracked nodes
// whose id is not present in contacted.
func (nh *NodeHeap) UncontactedNearest(n int, contacted map[kadid.ID]bool) []kadid.Node {
	nh.mu.Lock()
	defer nh.mu.Unlock()
	cp := make(nodeHeapImpl, len(nh.h))
	copy(cp, nh.h)
	heap.Init(&cp)

	out := make([]kadid.Node, 0, n)
	for cp.Len() > 0 && len(out) < n {
		e := heap.Pop(&cp).(heapEntry)
		if contacted[e.node.ID] {
			continue
		}
		out = append(out, e.node)
	}
	return out
}
