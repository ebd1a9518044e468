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
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/dht/certstore"
	"github.com/sage-x-project/dht/kadid"
	"github.com/sage-x-project/dht/protocol"
	"github.com/sage-x-project/dht/routing"
	"github.com/sage-x-project/dht/storage"
)

// fakeNetwork is a complete graph of routing tables used to drive the
// crawler without a real transport or protocol instance: every node
// knows every other node directly.
type fakeNetwork struct {
	mu    sync.Mutex
	nodes map[kadid.ID]*routing.Table
}

func (f *fakeNetwork) findNeighbors(id, target kadid.ID, k int) ([]kadid.Node, bool) {
	f.mu.Lock()
	rt, ok := f.nodes[id]
	f.mu.Unlock()
	if !ok {
		return nil, false
	}
	return rt.FindNeighbors(target, k, nil), true
}

type fakeProto struct {
	net *fakeNetwork
	k   int
}

func (f *fakeProto) CallFindNode(_ context.Context, target kadid.Node, targetID kadid.ID) (protocol.Outcome, []kadid.Node, error) {
	neighbors, ok := f.net.findNeighbors(target.ID, targetID, f.k)
	if !ok {
		return protocol.OutcomeTimeout, nil, nil
	}
	return protocol.OutcomeOK, neighbors, nil
}

func (f *fakeProto) CallFindValue(_ context.Context, target kadid.Node, key kadid.ID, _ []byte) (protocol.Outcome, protocol.FindValueResult, error) {
	return protocol.OutcomeOK, protocol.FindValueResult{}, nil
}

func (f *fakeProto) CallStore(context.Context, kadid.Node, kadid.ID, []byte) (protocol.Outcome, error) {
	return protocol.OutcomeOK, nil
}

func (f *fakeProto) CallAppend(context.Context, kadid.Node, kadid.ID, []byte) (protocol.Outcome, error) {
	return protocol.OutcomeOK, nil
}

func idAt(b byte) kadid.ID {
	var id kadid.ID
	id[kadid.Size-1] = b
	return id
}

func nodeAt(b byte) kadid.Node {
	return kadid.Node{ID: idAt(b), IP: "10.0.0.1", Port: uint16(b) + 1000}
}

// buildRing constructs a complete graph of n nodes, each with a
// routing table seeded with every other node, plus an "always
// present" certstore so the crawler never detours into a cert fetch.
func buildRing(t *testing.T, n int) (*fakeNetwork, []kadid.Node, *certstore.Store) {
	t.Helper()
	net := &fakeNetwork{nodes: make(map[kadid.ID]*routing.Table)}
	nodes := make([]kadid.Node, n)
	for i := 0; i < n; i++ {
		nodes[i] = nodeAt(byte(i + 1))
	}
	for _, n := range nodes {
		net.nodes[n.ID] = routing.New(n)
	}
	for _, from := range nodes {
		rt := net.nodes[from.ID]
		for _, to := range nodes {
			if to.ID == from.ID {
				continue
			}
			_ = rt.AddContact(to, func(kadid.Node) bool { return true })
		}
	}

	mem := storage.New(1000, time.Hour)
	certs := certstore.New(mem, nil, nil)
	for _, n := range nodes {
		mem.Put(kadid.CertKey(n.ID.Hex()).Hex(), []byte("dummy"))
	}
	return net, nodes, certs
}

func closestK(nodes []kadid.Node, target kadid.ID, k int) []kadid.Node {
	cp := make([]kadid.Node, len(nodes))
	copy(cp, nodes)
	sort.Slice(cp, func(i, j int) bool {
		return kadid.CloserTo(target, cp[i].ID, cp[j].ID)
	})
	if len(cp) > k {
		cp = cp[:k]
	}
	return cp
}

func TestFindNodeConvergesToTrueNearest(t *testing.T) {
	net, nodes, certs := buildRing(t, 12)
	local := nodes[0]

	c := New(local, net.nodes[local.ID], &fakeProto{net: net, k: 4}, certs)
	c.k = 4
	c.alpha = 2

	target := idAt(200)
	got := c.FindNode(context.Background(), target)

	want := closestK(nodes[1:], target, c.k)
	require.Len(t, got, len(want))

	gotSet := make(map[kadid.ID]bool, len(got))
	for _, n := range got {
		gotSet[n.ID] = true
	}
	for _, w := range want {
		require.True(t, gotSet[w.ID], "expected nearest node %s to be found", w.ID.Hex())
	}
}

func TestFindNodeNearestIsMonotoneNonIncreasing(t *testing.T) {
	net, nodes, certs := buildRing(t, 10)
	local := nodes[0]
	target := idAt(123)

	nh := NewNodeHeap(target, (4+1)*4)
	for _, n := range net.nodes[local.ID].FindNeighbors(target, 4, nil) {
		nh.Push(n)
	}
	bestSoFar := nh.Nearest(1)[0].Distance(kadid.Node{ID: target})

	contacted := map[kadid.ID]bool{local.ID: true}
	for round := 0; round < 5; round++ {
		batch := nh.UncontactedNearest(2, contacted)
		if len(batch) == 0 {
			break
		}
		for _, cand := range batch {
			contacted[cand.ID] = true
			neighbors, _ := net.findNeighbors(cand.ID, target, 4)
			for _, n := range neighbors {
				nh.Push(n)
			}
		}
		next := nh.Nearest(1)[0].Distance(kadid.Node{ID: target})
		require.False(t, kadid.Less(bestSoFar, next), "nearest distance must not regress across rounds")
		bestSoFar = next
	}
}

func TestFetchCertDedupesConcurrentCalls(t *testing.T) {
	net, nodes, certs := buildRing(t, 4)
	local := nodes[0]
	c := New(local, net.nodes[local.ID], &fakeProto{net: net, k: 3}, certs)

	unknown := idAt(250)
	c.fetchingCert[unknown] = true
	require.False(t, c.FetchCert(context.Background(), unknown))
}
