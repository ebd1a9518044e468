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

package routing

import "github.com/sage-x-project/dht/kadid"

// bucket holds up to K nodes, least-recently-seen first (spec section
// 3, "Bucket").
type bucket struct {
	nodes []kadid.Node
}

func newBucket() *bucket {
	return &bucket{nodes: make([]kadid.Node, 0, K)}
}

func (b *bucket) len() int { return len(b.nodes) }

func (b *bucket) full() bool { return len(b.nodes) >= K }

// find returns the index of id in the bucket, or -1.
func (b *bucket) find(id kadid.ID) int {
	for i, n := range b.nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// touch moves the node with id to the tail (most-recently-seen), if
// present, reporting whether it was found.
func (b *bucket) touch(n kadid.Node) bool {
	i := b.find(n.ID)
	if i == -1 {
		return false
	}
	b.nodes = append(append(b.nodes[:i], b.nodes[i+1:]...), n)
	return true
}

// appendNew appends n to the tail unconditionally. Callers must check
// full() first.
func (b *bucket) appendNew(n kadid.Node) {
	b.nodes = append(b.nodes, n)
}

// head returns the least-recently-seen node (index 0).
func (b *bucket) head() (kadid.Node, bool) {
	if len(b.nodes) == 0 {
		return kadid.Node{}, false
	}
	return b.nodes[0], true
}

// replaceHead evicts the head and appends n at the tail.
func (b *bucket) replaceHead(n kadid.Node) {
	if len(b.nodes) == 0 {
		b.nodes = append(b.nodes, n)
		return
	}
	b.nodes = append(b.nodes[1:], n)
}

// remove deletes the node with id, reporting whether it was present.
func (b *bucket) remove(id kadid.ID) bool {
	i := b.find(id)
	if i == -1 {
		return false
	}
	b.nodes = append(b.nodes[:i], b.nodes[i+1:]...)
	return true
}

// all returns a copy of the bucket's nodes.
func (b *bucket) all() []kadid.Node {
	out := make([]kadid.Node, len(b.nodes))
	copy(out, b.nodes)
	return out
}
