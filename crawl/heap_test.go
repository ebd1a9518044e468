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

package crawl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/dht/kadid"
)

func TestNodeHeapNearestAscendingByDistance(t *testing.T) {
	target := idAt(0)
	nh := NewNodeHeap(target, 10)
	for _, b := range []byte{5, 1, 9, 3} {
		require.True(t, nh.Push(nodeAt(b)))
	}
	nearest := nh.Nearest(4)
	require.Len(t, nearest, 4)
	for i := 1; i < len(nearest); i++ {
		d1 := kadid.XOR(target, nearest[i-1].ID)
		d2 := kadid.XOR(target, nearest[i].ID)
		require.False(t, kadid.Less(d2, d1), "nearest must be non-decreasing in distance")
	}
}

func TestNodeHeapRejectsDuplicate(t *testing.T) {
	nh := NewNodeHeap(idAt(0), 10)
	n := nodeAt(1)
	require.True(t, nh.Push(n))
	require.False(t, nh.Push(n))
	require.Equal(t, 1, nh.Len())
}

func TestNodeHeapEvictsFarthestWhenFull(t *testing.T) {
	target := idAt(0)
	nh := NewNodeHeap(target, 2)
	require.True(t, nh.Push(nodeAt(200)))
	require.True(t, nh.Push(nodeAt(201)))
	require.Equal(t, 2, nh.Len())

	// A much closer node should evict the farthest of the two.
	require.True(t, nh.Push(nodeAt(1)))
	require.Equal(t, 2, nh.Len())

	nearest := nh.Nearest(2)
	ids := map[kadid.ID]bool{nearest[0].ID: true, nearest[1].ID: true}
	require.True(t, ids[idAt(1)])

	// A farther node than everything held must be rejected outright.
	require.False(t, nh.Push(nodeAt(255)))
}

func TestNodeHeapUncontactedNearestSkipsContacted(t *testing.T) {
	target := idAt(0)
	nh := NewNodeHeap(target, 10)
	nh.Push(nodeAt(1))
	nh.Push(nodeAt(2))
	nh.Push(nodeAt(3))

	contacted := map[kadid.ID]bool{idAt(1): true}
	got := nh.UncontactedNearest(10, contacted)
	require.Len(t, got, 2)
	for _, n := range got {
		require.NotEqual(t, idAt(1), n.ID)
	}
}
