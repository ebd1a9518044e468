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

package dht

import (
	"context"

	"github.com/sage-x-project/dht/kadid"
)

// OwnedKeys implements maintenance.NodeFacade: every key this node
// currently holds a copy of. withinReach already decided, at set/
// append/remove time, whether this node should keep a copy — so
// "currently stored locally" is exactly "owned" for republish
// purposes (spec section 4.10).
func (n *Node) OwnedKeys() []kadid.ID {
	var out []kadid.ID
	n.submit(func() {
		for _, keyHex := range n.store.Keys() {
			id, err := kadid.ParseHex(keyHex)
			if err != nil {
				continue
			}
			out = append(out, id)
		}
	})
	return out
}

// ValueFor implements maintenance.NodeFacade: the locally-stored value
// for key, if any.
func (n *Node) ValueFor(key kadid.ID) ([]byte, bool) {
	var found bool
	var value []byte
	n.submit(func() {
		found, value = n.store.Get(key.Hex())
	})
	return value, found
}

// RefreshBucket implements maintenance.NodeFacade: crawl for target,
// which pulls contacts discovered along the way into the routing
// table (spec section 4.10's bucket refresh).
func (n *Node) RefreshBucket(ctx context.Context, target kadid.ID) {
	n.submit(func() {
		n.crawl.FindNode(ctx, target)
	})
}

// BucketRefreshTargets implements maintenance.NodeFacade: one refresh
// target per currently-known bucket, taken from each bucket's
// least-recently-seen contact so the refresh crawl traffic lands in
// the region of every live bucket.
func (n *Node) BucketRefreshTargets() []kadid.ID {
	var out []kadid.ID
	n.submit(func() {
		for _, contact := range n.rt.LeastRecentlySeen() {
			out = append(out, contact.ID)
		}
	})
	return out
}

// CullStorage implements maintenance.NodeFacade: Forgetful already
// culls lazily on every read, so a dedicated pass just forces one by
// calling Keys; it exists as a hook so a Scheduler tick has
// observable periodic behavior even on an otherwise idle node.
func (n *Node) CullStorage() {
	n.submit(func() {
		n.store.Keys()
	})
}
