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

// Package maintenance runs the three background upkeep loops a DHT
// node needs once bootstrapped (spec section 4.10): periodic
// republish of locally-owned keys, periodic bucket refresh, and
// storage culling.
//
// Grounded on the teacher's session.Manager.runCleanup ticker
// goroutine (session/manager.go), generalized from one ticker to
// three independent ones since each upkeep task has its own interval.
package maintenance

import (
	"context"
	"time"

	"github.com/sage-x-project/dht/internal/logger"
	"github.com/sage-x-project/dht/kadid"
)

// NodeFacade is the subset of *dht.Node the Scheduler drives. Declared
// here rather than imported as a concrete type to avoid an import
// cycle (dht will eventually own a Scheduler instance).
type NodeFacade interface {
	LocalID() kadid.ID
	Set(ctx context.Context, key kadid.ID, value []byte)
	OwnedKeys() []kadid.ID
	ValueFor(key kadid.ID) ([]byte, bool)
	RefreshBucket(ctx context.Context, target kadid.ID)
	BucketRefreshTargets() []kadid.ID
	CullStorage()
}

// Config controls the Scheduler's three ticker intervals.
type Config struct {
	RepublishInterval time.Duration
	RefreshInterval   time.Duration
	CullInterval      time.Duration
}

// DefaultConfig mirrors spec section 4.10's suggested cadences.
func DefaultConfig() Config {
	return Config{
		RepublishInterval: time.Hour,
		RefreshInterval:   time.Hour,
		CullInterval:      10 * time.Minute,
	}
}

// Scheduler owns the three independent ticker loops. Grounded on
// session.Manager's single cleanupTicker/runCleanup pair, generalized
// to three tickers driven from one Scheduler.
type Scheduler struct {
	node   NodeFacade
	cfg    Config
	log    logger.Logger
	stop   chan struct{}
}

// New builds a Scheduler for node. Call Start to begin the loops.
func New(node NodeFacade, cfg Config, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Scheduler{node: node, cfg: cfg, log: log, stop: make(chan struct{})}
}

// Start launches the three ticker goroutines. They run until Stop is
// called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	go s.runRepublish(ctx)
	go s.runBucketRefresh(ctx)
	go s.runCull(ctx)
}

// Stop halts all three loops.
func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) runRepublish(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RepublishInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.republishOwnedKeys(ctx)
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// republishOwnedKeys implements spec section 4.10's republish task:
// for every key this node currently stores a value for, re-run Set so
// it propagates to whichever k nodes are nearest now (the nearest set
// may have shifted as the network grew).
func (s *Scheduler) republishOwnedKeys(ctx context.Context) {
	for _, key := range s.node.OwnedKeys() {
		value, ok := s.node.ValueFor(key)
		if !ok {
			continue
		}
		s.node.Set(ctx, key, value)
	}
	s.log.Debug("maintenance: republish cycle complete", logger.String("node", s.node.LocalID().Hex()))
}

func (s *Scheduler) runBucketRefresh(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.refreshBuckets(ctx)
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// refreshBuckets implements spec section 4.10's bucket-refresh task:
// on every tick, issue a find_node crawl toward the least-recently-seen
// contact of each non-empty bucket, causing contacts to flow in and
// touch that bucket's entries.
func (s *Scheduler) refreshBuckets(ctx context.Context) {
	for _, target := range s.node.BucketRefreshTargets() {
		s.node.RefreshBucket(ctx, target)
	}
	s.log.Debug("maintenance: bucket refresh cycle complete")
}

func (s *Scheduler) runCull(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CullInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.node.CullStorage()
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
