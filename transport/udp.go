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
	"fmt"
	"net"
	"sync"
	"time"
)

// UDP is the production Transport, grounded on the teacher's
// websocket transport's correlation-id/pendingResponses pattern
// (pkg/agent/transport/websocket/client.go) but adapted from a
// persistent bidirectional connection to connectionless UDP
// datagrams, and from JSON frames to the binary wire format of spec
// section 6.
type UDP struct {
	conn    net.PacketConn
	timeout time.Duration

	mu      sync.Mutex
	pending map[MsgID]chan Message
	closed  bool
}

// NewUDP binds a UDP socket at laddr (e.g. ":4000"). timeout is the
// per-RPC deadline; spec section 5 notes implementations pick this,
// with the reference source using ~5s.
func NewUDP(laddr string, timeout time.Duration) (*UDP, error) {
	conn, err := net.ListenPacket("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen udp %s: %w", laddr, err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &UDP{
		conn:    conn,
		timeout: timeout,
		pending: make(map[MsgID]chan Message),
	}, nil
}

// LocalAddr implements Transport.
func (u *UDP) LocalAddr() string { return u.conn.LocalAddr().String() }

// Close implements Transport.
func (u *UDP) Close() error {
	u.mu.Lock()
	u.closed = true
	for id, ch := range u.pending {
		close(ch)
		delete(u.pending, id)
	}
	u.mu.Unlock()
	return u.conn.Close()
}

// Send implements Transport.
func (u *UDP) Send(ctx context.Context, addr string, req Message) (Message, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return Message{}, fmt.Errorf("transport: resolve %s: %w", addr, err)
	}

	respCh := make(chan Message, 1)
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return Message{}, ErrClosed
	}
	u.pending[req.ID] = respCh
	u.mu.Unlock()

	defer func() {
		u.mu.Lock()
		delete(u.pending, req.ID)
		u.mu.Unlock()
	}()

	if _, err := u.conn.WriteTo(EncodeMessage(req), raddr); err != nil {
		return Message{}, fmt.Errorf("transport: write to %s: %w", addr, err)
	}

	timer := time.NewTimer(u.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case resp, ok := <-respCh:
		if !ok {
			return Message{}, ErrClosed
		}
		return resp, nil
	case <-timer.C:
		return Message{}, ErrTimeout
	}
}

// Serve implements Transport: it reads datagrams until ctx is done or
// the socket closes, routing response-kind messages to their waiting
// Send call and request-kind messages to handler.
func (u *UDP) Serve(ctx context.Context, handler Handler) error {
	go func() {
		<-ctx.Done()
		_ = u.conn.Close()
	}()

	buf := make([]byte, maxDatagram)
	for {
		n, from, err := u.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			u.mu.Lock()
			closed := u.closed
			u.mu.Unlock()
			if closed {
				return ErrClosed
			}
			return fmt.Errorf("transport: read: %w", err)
		}

		msg, err := DecodeMessage(buf[:n])
		if err != nil {
			continue // malformed packet: drop silently (spec section 7, Transport error kind)
		}

		if !msg.Kind.IsRequest() {
			u.mu.Lock()
			ch, ok := u.pending[msg.ID]
			u.mu.Unlock()
			if ok {
				select {
				case ch <- msg:
				default:
				}
			}
			continue
		}

		resp := handler(ctx, from.String(), msg)
		if resp.Kind == KindNoReply {
			continue
		}
		if _, err := u.conn.WriteTo(EncodeMessage(resp), from); err != nil {
			continue
		}
	}
}
