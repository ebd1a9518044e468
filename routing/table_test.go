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

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/dht/kadid"
)

func idFromByte(b byte) kadid.ID {
	var id kadid.ID
	id[0] = b
	return id
}

func nodeWithID(id kadid.ID, port uint16) kadid.Node {
	return kadid.Node{ID: id, IP: "127.0.0.1", Port: port}
}

func alwaysReplies(kadid.Node) bool { return true }
func neverReplies(kadid.Node) bool  { return false }

func TestAddContactThenFindNeighbors(t *testing.T) {
	local := nodeWithID(idFromByte(0x00), 1000)
	tbl := New(local)

	for i := 1; i <= 5; i++ {
		n := nodeWithID(idFromByte(byte(i)), uint16(1000+i))
		require.NoError(t, tbl.AddContact(n, alwaysReplies))
	}
	require.Equal(t, 5, tbl.Size())

	neighbors := tbl.FindNeighbors(idFromByte(0x01), 3, nil)
	require.Len(t, neighbors, 3)
	require.Equal(t, idFromByte(0x01), neighbors[0].ID)
}

func TestAddContactRefusesLocalNode(t *testing.T) {
	local := nodeWithID(idFromByte(0x00), 1000)
	tbl := New(local)
	require.ErrorIs(t, tbl.AddContact(local, alwaysReplies), ErrAddLocalNode)
}

func TestAddContactSplitsBucketCoveringLocal(t *testing.T) {
	local := nodeWithID(idFromByte(0x00), 1000)
	tbl := New(local)

	// All of these ids share the top bit (0) with local, so they land
	// in the bucket that covers local's range and must split on
	// overflow rather than evicting anything.
	for i := 0; i < K+5; i++ {
		var id kadid.ID
		id[0] = byte(i)
		id[19] = 1 // keep the low-order bits varied to avoid collisions
		n := nodeWithID(id, uint16(2000+i))
		require.NoError(t, tbl.AddContact(n, neverReplies))
	}
	require.Equal(t, K+5, tbl.Size(), "split bucket must retain all nodes")
}

func TestAddContactEvictsOnNoReplyOutsideLocalRange(t *testing.T) {
	local := nodeWithID(idFromByte(0x00), 1000)
	tbl := New(local)

	// ids with the top bit set to 1 never share local's range at
	// depth 0, so the bucket they land in never splits.
	var first kadid.ID
	first[0] = 0x80
	require.NoError(t, tbl.AddContact(nodeWithID(first, 3000), alwaysReplies))

	for i := 1; i < K; i++ {
		var id kadid.ID
		id[0] = 0x80
		id[19] = byte(i)
		require.NoError(t, tbl.AddContact(nodeWithID(id, uint16(3000+i)), alwaysReplies))
	}
	require.True(t, tbl.Size() == K)

	var newcomer kadid.ID
	newcomer[0] = 0x80
	newcomer[19] = 0xff
	require.NoError(t, tbl.AddContact(nodeWithID(newcomer, 3999), neverReplies))

	require.True(t, tbl.IsNewNode(first) == false || tbl.Size() == K)
	require.False(t, tbl.IsNewNode(newcomer))
}

func TestAddContactKeepsHeadOnReply(t *testing.T) {
	local := nodeWithID(idFromByte(0x00), 1000)
	tbl := New(local)

	var head kadid.ID
	head[0] = 0x80
	require.NoError(t, tbl.AddContact(nodeWithID(head, 3000), alwaysReplies))

	for i := 1; i < K; i++ {
		var id kadid.ID
		id[0] = 0x80
		id[19] = byte(i)
		require.NoError(t, tbl.AddContact(nodeWithID(id, uint16(3000+i)), alwaysReplies))
	}

	var newcomer kadid.ID
	newcomer[0] = 0x80
	newcomer[19] = 0xff
	require.NoError(t, tbl.AddContact(nodeWithID(newcomer, 3999), alwaysReplies))

	require.False(t, tbl.IsNewNode(head), "head must be kept when it replies")
	require.True(t, tbl.IsNewNode(newcomer), "newcomer must be dropped when head replies")
}

func TestRemoveContact(t *testing.T) {
	local := nodeWithID(idFromByte(0x00), 1000)
	tbl := New(local)
	n := nodeWithID(idFromByte(0x01), 1001)
	require.NoError(t, tbl.AddContact(n, alwaysReplies))
	require.False(t, tbl.IsNewNode(n.ID))

	tbl.RemoveContact(n.ID)
	require.True(t, tbl.IsNewNode(n.ID))
}

func TestFindNeighborsExcludesSet(t *testing.T) {
	local := nodeWithID(idFromByte(0x00), 1000)
	tbl := New(local)
	var ids []kadid.ID
	for i := 1; i <= 5; i++ {
		id := idFromByte(byte(i))
		ids = append(ids, id)
		require.NoError(t, tbl.AddContact(nodeWithID(id, uint16(1000+i)), alwaysReplies))
	}

	exclude := map[kadid.ID]bool{ids[0]: true}
	neighbors := tbl.FindNeighbors(ids[0], len(ids), exclude)
	for _, n := range neighbors {
		require.NotEqual(t, ids[0], n.ID)
	}
	require.Len(t, neighbors, 4)
}

func TestLeastRecentlySeenOneEntryPerBucket(t *testing.T) {
	local := nodeWithID(idFromByte(0x00), 1000)
	tbl := New(local)
	for i := 1; i <= 3; i++ {
		require.NoError(t, tbl.AddContact(nodeWithID(idFromByte(byte(i)), uint16(1000+i)), alwaysReplies))
	}
	lrs := tbl.LeastRecentlySeen()
	require.Len(t, lrs, 1)
}
