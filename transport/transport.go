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

// Package transport implements component 6, the RPC Transport:
// request/response delivery over an unreliable datagram socket, with
// correlation by msgId, a single deadline per outstanding call, and
// no application-level retries (crawls supply redundancy instead).
package transport

import (
	"context"
	"crypto/rand"
	"errors"
)

// MsgIDSize is the width of a message correlation id (spec section 6).
const MsgIDSize = 20

// MsgID correlates a request with its response.
type MsgID [MsgIDSize]byte

// NewMsgID draws a fresh random correlation id.
func NewMsgID() (MsgID, error) {
	var id MsgID
	if _, err := rand.Read(id[:]); err != nil {
		return MsgID{}, err
	}
	return id, nil
}

// Kind identifies a message's verb and direction. The wire format
// carries it as a single byte (spec section 6).
type Kind byte

const (
	KindPingReq Kind = iota
	KindPingResp
	KindFindNodeReq
	KindFindNodeResp
	KindFindValueReq
	KindFindValueResp
	KindStoreReq
	KindStoreResp
	KindAppendReq
	KindAppendResp
	KindRemoveReq
	KindRemoveResp

	// KindNoReply is never sent on the wire; a Handler returns a
	// Message with this Kind to signal "drop, no reply" (spec section
	// 4.9: bad signature, refused cert). Both Transport
	// implementations suppress the reply in this case.
	KindNoReply
)

// IsRequest reports whether k is a request-direction kind; everything
// else is a response-direction kind.
func (k Kind) IsRequest() bool {
	return k%2 == 0
}

// Message is the wire envelope: (msgId, kind, payload). Payload is the
// verb-specific tuple, opaque to the transport.
type Message struct {
	ID      MsgID
	Kind    Kind
	Payload []byte
}

// ErrTimeout is returned by Send when no response arrives before the
// deadline. Per spec section 3, the outstanding entry resolves
// (false, null) and is removed — callers (the Protocol layer) react
// by calling removeContact.
var ErrTimeout = errors.New("transport: no response within deadline")

// ErrClosed is returned by Send/Serve once the transport has been
// closed.
var ErrClosed = errors.New("transport: closed")

// Handler answers an inbound request and returns the response message
// to send back to the sender. It runs on the transport's own receive
// goroutine synchronously — handlers that need to block on further
// RPCs (e.g. a cert fetch) must not be registered directly as
// Handler; the Protocol layer dispatches such work through the single
// owning event loop instead (spec section 5).
type Handler func(ctx context.Context, fromAddr string, req Message) Message

// Transport is the RPC Transport interface implemented by UDP (and by
// the in-memory Mock used in tests).
type Transport interface {
	// Send transmits req to addr and blocks until a response bearing
	// the same ID arrives or the context is done, whichever comes
	// first. It performs no retries.
	Send(ctx context.Context, addr string, req Message) (Message, error)

	// Serve starts delivering inbound requests to handler. It returns
	// once ctx is done or the transport is closed.
	Serve(ctx context.Context, handler Handler) error

	// LocalAddr returns the address this transport listens on.
	LocalAddr() string

	Close() error
}
