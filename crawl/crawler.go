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
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sage-x-project/dht/certstore"
	"github.com/sage-x-project/dht/internal/metrics"
	"github.com/sage-x-project/dht/kadid"
	"github.com/sage-x-project/dht/protocol"
	"github.com/sage-x-project/dht/routing"
)

// DefaultAlpha is the crawl's per-round concurrency (spec section 4.4).
const DefaultAlpha = 3

// ProtoClient is the subset of *protocol.Protocol the crawler drives.
// Declared here, rather than imported as a concrete type, so tests can
// exercise the crawl logic against an in-memory fake network of
// protocol instances or a hand-written stub.
type ProtoClient interface {
	CallFindNode(ctx context.Context, target kadid.Node, targetID kadid.ID) (protocol.Outcome, []kadid.Node, error)
	CallFindValue(ctx context.Context, target kadid.Node, key kadid.ID, explicitCert []byte) (protocol.Outcome, protocol.FindValueResult, error)
	CallStore(ctx context.Context, target kadid.Node, key kadid.ID, value []byte) (protocol.Outcome, error)
	CallAppend(ctx context.Context, target kadid.Node, key kadid.ID, jsonList []byte) (protocol.Outcome, error)
}

// Crawler runs the iterative find_node/find_value/value-list lookups
// that converge the routing table and resolve keys. It also
// implements protocol.CertFetcher so the Signed-RPC Protocol can
// resolve an unknown peer's certificate via a find_value crawl
// (spec section 4.7 step 3, "callCertFindValue").
type Crawler struct {
	local kadid.Node
	rt    *routing.Table
	proto ProtoClient
	certs *certstore.Store

	k     int
	alpha int

	certMu      sync.Mutex
	fetchingCert map[kadid.ID]bool
}

// New builds a Crawler seeded from rt's current contacts.
func New(local kadid.Node, rt *routing.Table, proto ProtoClient, certs *certstore.Store) *Crawler {
	return &Crawler{
		local:        local,
		rt:           rt,
		proto:        proto,
		certs:        certs,
		k:            routing.K,
		alpha:        DefaultAlpha,
		fetchingCert: make(map[kadid.ID]bool),
	}
}

type roundResult struct {
	outcome protocol.Outcome
	nodes   []kadid.Node
}

// FindNode converges the routing table's view of the k nodes nearest
// target, returning them in ascending distance order.
func (c *Crawler) FindNode(ctx context.Context, target kadid.ID) []kadid.Node {
	start := time.Now()
	rounds := 0
	defer func() {
		metrics.CrawlLookupDuration.Observe(time.Since(start).Seconds())
		metrics.CrawlRounds.Observe(float64(rounds))
	}()

	nh := NewNodeHeap(target, (c.k+1)*c.k)
	for _, n := range c.rt.FindNeighbors(target, c.k, nil) {
		nh.Push(n)
	}

	contacted := map[kadid.ID]bool{c.local.ID: true}
	var mu sync.Mutex

	for {
		rounds++
		batch := nh.UncontactedNearest(c.alpha, withLock(&mu, contacted))
		if len(batch) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.alpha)
		results := make(chan roundResult, len(batch))
		for _, cand := range batch {
			cand := cand
			mu.Lock()
			contacted[cand.ID] = true
			mu.Unlock()
			g.Go(func() error {
				outcome, nodes, _ := c.proto.CallFindNode(gctx, cand, target)
				results <- roundResult{outcome: outcome, nodes: nodes}
				return nil
			})
		}
		_ = g.Wait()
		close(results)

		improved := false
		for r := range results {
			if r.outcome != protocol.OutcomeOK {
				continue
			}
			for _, n := range r.nodes {
				if n.ID == c.local.ID {
					continue
				}
				if !c.certs.Has(n.ID.Hex()) {
					go func(n kadid.Node) { _ = c.FetchCert(context.Background(), n.ID) }(n)
					continue
				}
				if nh.Push(n) {
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}

	nearest := nh.Nearest(c.k)
	if len(nearest) > 0 {
		metrics.CrawlLookups.WithLabelValues("find_node", "found").Inc()
	} else {
		metrics.CrawlLookups.WithLabelValues("find_node", "not_found").Inc()
	}
	return nearest
}

func withLock(mu *sync.Mutex, m map[kadid.ID]bool) map[kadid.ID]bool {
	mu.Lock()
	defer mu.Unlock()
	cp := make(map[kadid.ID]bool, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// FindValueResult is the outcome of a find_value crawl.
type FindValueResult struct {
	Found bool
	Value []byte
}

// FindValue implements the find_value crawl of spec section 4.4:
// terminate as soon as α responses carry the value (returning the
// first one seen), else return not-found once every nearest candidate
// has been contacted. On success, the single closest respondent that
// answered without the value is pushed the resolved value via its
// natural write (callAppend for a JSON-array value, else callStore).
func (c *Crawler) FindValue(ctx context.Context, key kadid.ID) FindValueResult {
	start := time.Now()
	rounds := 0
	defer func() {
		metrics.CrawlLookupDuration.Observe(time.Since(start).Seconds())
		metrics.CrawlRounds.Observe(float64(rounds))
	}()

	nh := NewNodeHeap(key, (c.k+1)*c.k)
	for _, n := range c.rt.FindNeighbors(key, c.k, nil) {
		nh.Push(n)
	}

	contacted := map[kadid.ID]bool{c.local.ID: true}
	var mu sync.Mutex
	var foundValues [][]byte
	var nearestWithoutValue *kadid.Node
	var nearestWithoutDist kadid.ID

	for {
		rounds++
		batch := nh.UncontactedNearest(c.alpha, withLock(&mu, contacted))
		if len(batch) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.alpha)
		type found struct {
			outcome protocol.Outcome
			result  protocol.FindValueResult
			from    kadid.Node
		}
		results := make(chan found, len(batch))
		for _, cand := range batch {
			cand := cand
			mu.Lock()
			contacted[cand.ID] = true
			mu.Unlock()
			g.Go(func() error {
				outcome, result, _ := c.proto.CallFindValue(gctx, cand, key, nil)
				results <- found{outcome: outcome, result: result, from: cand}
				return nil
			})
		}
		_ = g.Wait()
		close(results)

		for r := range results {
			if r.outcome != protocol.OutcomeOK {
				continue
			}
			if r.result.Found {
				foundValues = append(foundValues, r.result.Value)
				continue
			}
			dist := kadid.XOR(key, r.from.ID)
			if nearestWithoutValue == nil || kadid.Less(dist, nearestWithoutDist) {
				n := r.from
				nearestWithoutValue = &n
				nearestWithoutDist = dist
			}
			for _, n := range r.result.Bucket {
				if n.ID == c.local.ID {
					continue
				}
				if !c.certs.Has(n.ID.Hex()) {
					go func(n kadid.Node) { _ = c.FetchCert(context.Background(), n.ID) }(n)
					continue
				}
				nh.Push(n)
			}
		}

		if len(foundValues) >= c.alpha {
			break
		}
	}

	if len(foundValues) == 0 {
		metrics.CrawlLookups.WithLabelValues("find_value", "not_found").Inc()
		return FindValueResult{Found: false}
	}

	metrics.CrawlLookups.WithLabelValues("find_value", "found").Inc()
	value := foundValues[0]
	if nearestWithoutValue != nil {
		c.writeBack(ctx, *nearestWithoutValue, key, value)
	}
	return FindValueResult{Found: true, Value: value}
}

// FindValueList implements the value-list crawl used by get_concat:
// unlike FindValue it does not terminate early, collecting every
// respondent's value so the caller can reconcile them via Reconcile.
func (c *Crawler) FindValueList(ctx context.Context, key kadid.ID) [][]byte {
	start := time.Now()
	rounds := 0
	defer func() {
		metrics.CrawlLookupDuration.Observe(time.Since(start).Seconds())
		metrics.CrawlRounds.Observe(float64(rounds))
	}()

	nh := NewNodeHeap(key, (c.k+1)*c.k)
	for _, n := range c.rt.FindNeighbors(key, c.k, nil) {
		nh.Push(n)
	}

	contacted := map[kadid.ID]bool{c.local.ID: true}
	var mu sync.Mutex
	var values [][]byte

	for {
		rounds++
		batch := nh.UncontactedNearest(c.alpha, withLock(&mu, contacted))
		if len(batch) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.alpha)
		type reply struct {
			outcome protocol.Outcome
			result  protocol.FindValueResult
		}
		replies := make(chan reply, len(batch))
		for _, cand := range batch {
			cand := cand
			mu.Lock()
			contacted[cand.ID] = true
			mu.Unlock()
			g.Go(func() error {
				outcome, result, _ := c.proto.CallFindValue(gctx, cand, key, nil)
				replies <- reply{outcome: outcome, result: result}
				return nil
			})
		}
		_ = g.Wait()
		close(replies)

		for r := range replies {
			if r.outcome != protocol.OutcomeOK {
				continue
			}
			result := r.result
			if result.Found {
				values = append(values, result.Value)
				continue
			}
			for _, n := range result.Bucket {
				if n.ID == c.local.ID {
					continue
				}
				if !c.certs.Has(n.ID.Hex()) {
					go func(n kadid.Node) { _ = c.FetchCert(context.Background(), n.ID) }(n)
					continue
				}
				nh.Push(n)
			}
		}
	}

	if len(values) > 0 {
		metrics.CrawlLookups.WithLabelValues("find_value", "found").Inc()
	} else {
		metrics.CrawlLookups.WithLabelValues("find_value", "not_found").Inc()
	}
	return values
}

// writeBack pushes a resolved value to the single nearest respondent
// that answered without it (spec section 4.4). Whether the key is
// set-typed is inferred from whether value parses as a JSON array,
// since the crawler has no local storage of its own to consult.
func (c *Crawler) writeBack(ctx context.Context, to kadid.Node, key kadid.ID, value []byte) {
	if looksLikeJSONArray(value) {
		_, _ = c.proto.CallAppend(ctx, to, key, value)
		return
	}
	_, _ = c.proto.CallStore(ctx, to, key, value)
}

func looksLikeJSONArray(value []byte) bool {
	for _, b := range value {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

// FetchCert implements protocol.CertFetcher: it crawls find_value for
// the requested node's published certificate key and, on success,
// persists it (spec section 4.7 step 3, "callCertFindValue").
func (c *Crawler) FetchCert(ctx context.Context, id kadid.ID) bool {
	if c.certs.Has(id.Hex()) {
		return true
	}

	c.certMu.Lock()
	if c.fetchingCert[id] {
		c.certMu.Unlock()
		return false
	}
	c.fetchingCert[id] = true
	c.certMu.Unlock()
	defer func() {
		c.certMu.Lock()
		delete(c.fetchingCert, id)
		c.certMu.Unlock()
	}()

	key := kadid.CertKey(id.Hex())
	result := c.FindValue(ctx, key)
	if !result.Found {
		return false
	}
	if err := c.certs.StoreCert(id, result.Value); err != nil {
		return false
	}
	return true
}
