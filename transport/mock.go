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

package transport

import (
	"context"
	"sync"
)

// Network is an in-memory switchboard connecting Mock transports by
// address, grounded on the teacher's transport.MockTransport but
// generalized from a single-client stub into a multi-node fake
// network so that protocol/crawl/dht tests can exercise several
// cooperating nodes without a real socket.
type Network struct {
	mu    sync.Mutex
	nodes map[string]*Mock
}

// NewNetwork returns an empty fake network.
func NewNetwork() *Network {
	return &Network{nodes: make(map[string]*Mock)}
}

// Mock is a Transport backed by a Network instead of a socket.
type Mock struct {
	net     *Network
	addr    string
	handler Handler

	mu          sync.Mutex
	sent        []Message
	unreachable map[string]bool
}

// NewMock registers and returns a Mock transport listening at addr.
func (n *Network) NewMock(addr string) *Mock {
	m := &Mock{net: n, addr: addr, unreachable: make(map[string]bool)}
	n.mu.Lock()
	n.nodes[addr] = m
	n.mu.Unlock()
	return m
}

// SetUnreachable simulates a down peer: Send to addr fails with
// ErrTimeout instead of reaching its handler.
func (m *Mock) SetUnreachable(addr string, down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if down {
		m.unreachable[addr] = true
	} else {
		delete(m.unreachable, addr)
	}
}

// LocalAddr implements Transport.
func (m *Mock) LocalAddr() string { return m.addr }

// Close implements Transport.
func (m *Mock) Close() error {
	m.net.mu.Lock()
	delete(m.net.nodes, m.addr)
	m.net.mu.Unlock()
	return nil
}

// Send implements Transport by invoking the target Mock's handler
// directly and synchronously.
func (m *Mock) Send(ctx context.Context, addr string, req Message) (Message, error) {
	m.mu.Lock()
	down := m.unreachable[addr]
	m.mu.Unlock()
	if down {
		return Message{}, ErrTimeout
	}

	m.net.mu.Lock()
	peer, ok := m.net.nodes[addr]
	m.net.mu.Unlock()
	if !ok {
		return Message{}, ErrTimeout
	}

	peer.mu.Lock()
	handler := peer.handler
	peer.mu.Unlock()
	if handler == nil {
		return Message{}, ErrTimeout
	}

	m.mu.Lock()
	m.sent = append(m.sent, req)
	m.mu.Unlock()

	resp := handler(ctx, m.addr, req)
	if resp.Kind == KindNoReply {
		return Message{}, ErrTimeout
	}
	return resp, nil
}

// Serve implements Transport by registering handler and blocking
// until ctx is done.
func (m *Mock) Serve(ctx context.Context, handler Handler) error {
	m.mu.Lock()
	m.handler = handler
	m.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

// SentMessages returns every request this Mock has sent.
func (m *Mock) SentMessages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
