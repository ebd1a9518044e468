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

package adminws

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sage-x-project/dht/dht"
	"github.com/sage-x-project/dht/kadid"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 30 * time.Second
)

// Server is the admin-surface websocket endpoint (spec section 4.11),
// bound to one dht.Node. It never participates in the signed-RPC
// protocol; it is meant to bind to loopback only.
type Server struct {
	node     *dht.Node
	upgrader websocket.Upgrader

	connections map[*websocket.Conn]bool
	connMu      sync.RWMutex
}

// NewServer returns a Server proxying admin-surface calls to node.
func NewServer(node *dht.Node) *Server {
	return &Server{
		node: node,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Loopback-only by deployment convention (spec section
				// 4.11); cross-origin checks would be redundant here.
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*websocket.Conn]bool),
	}
}

// Handler returns an http.Handler that upgrades to a websocket
// connection and serves admin-surface requests on it.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, fmt.Sprintf("adminws: upgrade failed: %v", err), http.StatusBadRequest)
			return
		}
		s.addConnection(conn)
		defer s.removeConnection(conn)
		defer func() { _ = conn.Close() }()

		s.serveConnection(r.Context(), conn)
	})
}

func (s *Server) serveConnection(ctx context.Context, conn *websocket.Conn) {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return
		}

		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		resp := s.dispatch(ctx, req)
		s.send(conn, resp)
	}
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	switch req.Op {
	case OpRoutingSnapshot:
		return s.routingSnapshot(req.ID)
	case OpStorageSnapshot:
		return s.storageSnapshot(req.ID)
	case OpGet:
		value, found := s.node.Get(ctx, kadid.Digest([]byte(req.Key)))
		return Response{ID: req.ID, OK: true, Found: found, Value: value}
	case OpGetConcat:
		value := s.node.GetConcat(ctx, kadid.Digest([]byte(req.Key)))
		return Response{ID: req.ID, OK: true, Value: value}
	case OpSet:
		s.node.Set(ctx, kadid.Digest([]byte(req.Key)), req.Value)
		return Response{ID: req.ID, OK: true}
	case OpAppend:
		s.node.Append(ctx, kadid.Digest([]byte(req.Key)), req.Value)
		return Response{ID: req.ID, OK: true}
	case OpRemove:
		s.node.Remove(ctx, kadid.Digest([]byte(req.Key)), req.Value)
		return Response{ID: req.ID, OK: true}
	default:
		return Response{ID: req.ID, Error: fmt.Sprintf("adminws: unknown op %q", req.Op)}
	}
}

func (s *Server) routingSnapshot(id string) Response {
	nodes := s.node.RoutingTable().All()
	contacts := make([]RoutingContact, len(nodes))
	for i, n := range nodes {
		contacts[i] = RoutingContact{ID: n.ID.Hex(), Addr: n.Addr()}
	}
	return Response{
		ID: id,
		OK: true,
		Routing: &RoutingSnapshot{
			LocalID: s.node.LocalID().Hex(),
			Count:   len(contacts),
			Nodes:   contacts,
		},
	}
}

func (s *Server) storageSnapshot(id string) Response {
	entries := s.node.Storage().Snapshot()
	keys := make([]StorageKeyInfo, len(entries))
	for i, e := range entries {
		keys[i] = StorageKeyInfo{Key: e.Key, IsSet: e.IsSet, TTLRemaining: e.TTLRemaining}
	}
	return Response{
		ID: id,
		OK: true,
		Storage: &StorageSnapshot{
			Count: len(keys),
			Keys:  keys,
		},
	}
}

func (s *Server) send(conn *websocket.Conn, resp Response) {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return
	}
	_ = conn.WriteJSON(resp)
}

func (s *Server) addConnection(conn *websocket.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.connections[conn] = true
}

func (s *Server) removeConnection(conn *websocket.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	delete(s.connections, conn)
}

// ConnectionCount returns the number of active admin connections.
func (s *Server) ConnectionCount() int {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return len(s.connections)
}

// Close sends a close frame to every active connection and drops
// them from tracking.
func (s *Server) Close() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	for conn := range s.connections {
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		_ = conn.Close()
	}
	s.connections = make(map[*websocket.Conn]bool)
	return nil
}
