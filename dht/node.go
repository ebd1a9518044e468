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

// Package dht wires components 1-9 into the Server Facade (spec
// section 4.8): the node-level get/set/append/remove/get_concat/
// bootstrap operations a caller or the admin surface drives.
//
// Inbound RPC dispatch and every public operation (Get, Set, Append,
// Remove, GetConcat, Bootstrap) run as a single closure submitted onto
// the node's own event loop (spec section 5), one at a time; the caller
// blocks for the whole operation's duration. This is the same
// cooperative, non-preemptive model as the teacher's session/health
// ticker goroutines. The loop is not the only goroutine that touches
// node state, though: a crawl started inside a closure fans its RPCs
// out to parallel goroutines, which promote responders into the
// routing table and can fire the key-handoff hook, and the admin
// surface reads the routing table and storage directly. Both of those
// therefore guard themselves with their own mutexes.
package dht

import (
	"context"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/sage-x-project/dht/certstore"
	"github.com/sage-x-project/dht/crawl"
	"github.com/sage-x-project/dht/identity"
	"github.com/sage-x-project/dht/internal/metrics"
	"github.com/sage-x-project/dht/kadid"
	"github.com/sage-x-project/dht/protocol"
	"github.com/sage-x-project/dht/routing"
	"github.com/sage-x-project/dht/storage"
	"github.com/sage-x-project/dht/transport"
)

// BootstrapRetryInterval is how long Bootstrap waits before retrying
// a seed whose transport has not yet come up (spec section 4.7).
const BootstrapRetryInterval = time.Second

// BootstrapMaxAttempts bounds the defer-and-retry loop per seed.
const BootstrapMaxAttempts = 5

// Seed describes a bootstrap contact: its address and the DER-encoded
// certificate presented out of band (e.g. via a signed seed bundle).
type Seed struct {
	ID      kadid.ID
	Addr    string
	CertDER []byte
}

// Node is a single DHT participant: the Server Facade bound to one
// identity, routing table, pair of storages, protocol, and crawler.
type Node struct {
	local kadid.Node
	id    *identity.Adapter
	certs *certstore.Store
	store *storage.Forgetful
	rt    *routing.Table
	tr    transport.Transport
	proto *protocol.Protocol
	crawl *crawl.Crawler

	cmds chan func()
	done chan struct{}
}

// New builds a Node and starts its event loop. local is the node's own
// id and address; id its identity adapter (certificate, signer and
// chain validation); store its local storage, which also backs the
// in-memory certificate cache; certSink the persistent certificate
// sink; tr the transport it sends and receives on.
func New(
	local kadid.Node,
	id *identity.Adapter,
	store *storage.Forgetful,
	certSink certstore.Sink,
	tr transport.Transport,
) *Node {
	rt := routing.New(local)
	certs := certstore.New(store, certSink, identity.IDFromCert)
	proto := protocol.New(local, id, certs, store, rt, tr)
	crawler := crawl.New(local, rt, proto, certs)
	proto.SetCertFetcher(crawler)

	n := &Node{
		local: local,
		id:    id,
		certs: certs,
		store: store,
		rt:    rt,
		tr:    tr,
		proto: proto,
		crawl: crawler,
		cmds:  make(chan func()),
		done:  make(chan struct{}),
	}
	proto.SetOnNewNode(n.onNewNode)
	go n.loop()
	return n
}

// loop is the single goroutine that owns every piece of mutable
// node state (spec section 5). Every closure submitted via submit
// runs here, one at a time, in submission order.
func (n *Node) loop() {
	for {
		select {
		case fn := <-n.cmds:
			fn()
		case <-n.done:
			return
		}
	}
}

// submit runs fn on the event loop and blocks until it completes.
func (n *Node) submit(fn func()) {
	done := make(chan struct{})
	n.cmds <- func() {
		fn()
		close(done)
	}
	<-done
}

// Close stops the event loop. In-flight submits that were already
// enqueued still run; no new submit may be issued afterward.
func (n *Node) Close() {
	close(n.done)
}

// LocalID returns the node's own id.
func (n *Node) LocalID() kadid.ID { return n.local.ID }

// RoutingTable exposes the node's routing table read-only to the admin
// surface (spec section 4.11); every method on *routing.Table is
// already safe for concurrent use from outside the event loop.
func (n *Node) RoutingTable() *routing.Table { return n.rt }

// Storage exposes the node's local storage read-only to the admin
// surface, for the same reason as RoutingTable.
func (n *Node) Storage() *storage.Forgetful { return n.store }

// HandleRequest is the transport.Handler for this node: it serializes
// inbound RPC dispatch through the same event loop as every public
// method, so a concurrent inbound store and a local Set can never
// race on the storage map (spec section 5).
func (n *Node) HandleRequest(ctx context.Context, fromAddr string, req transport.Message) transport.Message {
	var resp transport.Message
	n.submit(func() {
		resp = n.proto.HandleRequest(ctx, fromAddr, req)
	})
	return resp
}

// onNewNode implements the key-handoff hook of spec section 4.6:
// when a previously-unseen node joins the routing table, push it the
// first locally-held key for which the new node is closer than the
// farthest of the key's other known neighbors and we are closer than
// the nearest of them (or no other neighbor is known). At most one key
// is handed off per new node. It runs synchronously inside promote, in
// whichever goroutine promoted the node: the event loop for inbound
// requests, or one of a crawl's parallel RPC goroutines.
func (n *Node) onNewNode(newNeighbor kadid.Node) {
	for _, keyHex := range n.store.Keys() {
		keyID, err := kadid.ParseHex(keyHex)
		if err != nil {
			continue
		}
		neighbors := n.rt.FindNeighbors(keyID, routing.K, map[kadid.ID]bool{newNeighbor.ID: true})
		if len(neighbors) > 0 {
			newNodeClose := kadid.CloserTo(keyID, newNeighbor.ID, neighbors[len(neighbors)-1].ID)
			localClosest := kadid.CloserTo(keyID, n.local.ID, neighbors[0].ID)
			if !newNodeClose || !localClosest {
				continue
			}
		}
		found, value := n.store.Get(keyHex)
		if !found {
			continue
		}
		if n.store.IsSetKey(keyHex) {
			_, _ = n.proto.CallAppend(context.Background(), newNeighbor, keyID, value)
		} else {
			_, _ = n.proto.CallStore(context.Background(), newNeighbor, keyID, value)
		}
		return
	}
}

// Get implements the get operation (spec section 4.8): return the
// locally-held value if present, else resolve it via a find_value
// crawl.
func (n *Node) Get(ctx context.Context, key kadid.ID) ([]byte, bool) {
	var found bool
	var value []byte
	n.submit(func() {
		if found, value = n.store.Get(key.Hex()); found {
			return
		}
		result := n.crawl.FindValue(ctx, key)
		found, value = result.Found, result.Value
	})
	return value, found
}

// GetConcat implements get_concat (spec section 4.8): always crawl
// every nearest candidate's value and reconcile, folding in the
// locally-held value (if any) as an anonymous response.
func (n *Node) GetConcat(ctx context.Context, key kadid.ID) []byte {
	var out []byte
	n.submit(func() {
		found, local := n.store.Get(key.Hex())
		responses := n.crawl.FindValueList(ctx, key)
		if found {
			responses = append(responses, local)
		}
		out = crawl.Reconcile(responses)
	})
	return out
}

// Set implements set (spec section 4.8): crawl for the k nodes
// nearest key, store the value on each, and additionally store it
// locally iff the local node's own distance to key is no farther than
// the farthest selected neighbor's ("store locally iff own distance ≤
// farthest selected neighbor").
func (n *Node) Set(ctx context.Context, key kadid.ID, value []byte) {
	n.submit(func() {
		neighbors := n.crawl.FindNode(ctx, key)
		for _, target := range neighbors {
			_, _ = n.proto.CallStore(ctx, target, key, value)
		}
		withinReach := n.withinReach(key, neighbors)
		metrics.StorageOperations.WithLabelValues("store", boolLabel(withinReach)).Inc()
		if withinReach {
			n.store.Put(key.Hex(), value)
		}
	})
}

// Append implements append (spec section 4.8): crawl for the k
// nearest nodes, push the union there, and locally apply the same
// union rule when in reach, marking the key as set-typed.
func (n *Node) Append(ctx context.Context, key kadid.ID, jsonList []byte) {
	n.submit(func() {
		neighbors := n.crawl.FindNode(ctx, key)
		for _, target := range neighbors {
			_, _ = n.proto.CallAppend(ctx, target, key, jsonList)
		}
		withinReach := n.withinReach(key, neighbors)
		metrics.StorageOperations.WithLabelValues("append", boolLabel(withinReach)).Inc()
		if !withinReach {
			return
		}
		keyHex := key.Hex()
		n.store.MarkSetKey(keyHex)
		_, stored := n.store.Get(keyHex)
		merged, err := protocol.ApplyUnion(stored, jsonList)
		if err == nil {
			n.store.Put(keyHex, merged)
		}
	})
}

// Remove implements remove (spec section 4.8): the set-difference
// mirror of Append.
func (n *Node) Remove(ctx context.Context, key kadid.ID, jsonList []byte) {
	n.submit(func() {
		neighbors := n.crawl.FindNode(ctx, key)
		for _, target := range neighbors {
			_, _ = n.proto.CallRemove(ctx, target, key, jsonList)
		}
		withinReach := n.withinReach(key, neighbors)
		metrics.StorageOperations.WithLabelValues("remove", boolLabel(withinReach)).Inc()
		if !withinReach {
			return
		}
		keyHex := key.Hex()
		_, stored := n.store.Get(keyHex)
		merged, err := protocol.ApplyDifference(stored, jsonList)
		if err == nil {
			n.store.Put(keyHex, merged)
		}
	})
}

// boolLabel renders a boolean as the "true"/"false" Prometheus label
// value StorageOperations' within_reach label expects.
func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// withinReach implements the local-storage admission rule of spec
// section 4.8: the local node keeps a copy whenever it is at least as
// close to key as the farthest of the neighbors the crawl selected
// (including the degenerate case of an empty crawl result, e.g. the
// very first node in a fresh network).
func (n *Node) withinReach(key kadid.ID, neighbors []kadid.Node) bool {
	if len(neighbors) == 0 {
		return true
	}
	farthest := neighbors[0]
	for _, cand := range neighbors[1:] {
		if kadid.CloserTo(key, farthest.ID, cand.ID) {
			farthest = cand
		}
	}
	return kadid.CloserTo(key, n.local.ID, farthest.ID) || n.local.ID == farthest.ID
}

// Bootstrap implements spec section 4.7: for every given seed, defer
// and retry while the transport warms up, persist its certificate,
// privileged-ping it to mutually authenticate and learn its id, then
// crawl find_node on the local id to warm the routing table.
//
// The spec's step 3 ("for every respondent...") is read as applying
// to every seed given, not only the first: each seed is independently
// pinged and its certificate persisted, which is the more useful
// generalization for a multi-seed bundle.
func (n *Node) Bootstrap(ctx context.Context, seeds []Seed) error {
	if len(seeds) == 0 {
		return fmt.Errorf("dht: bootstrap: no seeds given")
	}

	reached := 0
	for _, seed := range seeds {
		if err := n.bootstrapSeed(ctx, seed); err != nil {
			continue
		}
		reached++
	}
	if reached == 0 {
		return fmt.Errorf("dht: bootstrap: no seed could be reached")
	}

	n.submit(func() {
		n.crawl.FindNode(ctx, n.local.ID)
	})
	return nil
}

// bootstrapSeed runs the defer-and-retry ping loop for a single seed.
// The retry's sleep deliberately happens outside any submitted
// closure so a slow seed never blocks this node's own inbound
// dispatch or other operations between attempts; only the ping call
// itself (and the cert persist before it) run on the loop.
func (n *Node) bootstrapSeed(ctx context.Context, seed Seed) error {
	cert, err := x509.ParseCertificate(seed.CertDER)
	if err != nil {
		return fmt.Errorf("dht: bootstrap: parse seed cert: %w", err)
	}
	claimedID, err := identity.IDFromCert(cert)
	if err != nil || claimedID != seed.ID {
		return fmt.Errorf("dht: bootstrap: seed id does not match its certificate")
	}

	target, err := kadid.NodeFromAddr(seed.ID, seed.Addr)
	if err != nil {
		return fmt.Errorf("dht: bootstrap: seed address: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < BootstrapMaxAttempts; attempt++ {
		var outcome protocol.Outcome
		var callErr error
		n.submit(func() {
			_ = n.certs.StoreCert(seed.ID, seed.CertDER)
			outcome, _, callErr = n.proto.CallPing(ctx, target, true)
		})
		if callErr == nil && outcome == protocol.OutcomeOK {
			return nil
		}
		lastErr = fmt.Errorf("dht: bootstrap: seed %s unreachable (outcome=%v)", seed.Addr, outcome)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(BootstrapRetryInterval):
		}
	}
	return lastErr
}
