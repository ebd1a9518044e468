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
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
)

// Client is a single-connection admin-surface client, used by
// cmd/dhtnode's get/set/append/remove/get-concat subcommands to talk
// to a running node (spec section 6).
type Client struct {
	conn *websocket.Conn
	next int
}

// Dial opens an admin-surface connection to a node listening at addr
// (e.g. "127.0.0.1:7947").
func Dial(addr string) (*Client, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/admin"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("adminws: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Call sends one request and waits for its matching response.
func (c *Client) Call(op Op, key string, value []byte) (Response, error) {
	c.next++
	req := Request{ID: fmt.Sprintf("%d", c.next), Op: op, Key: key, Value: value}
	if err := c.conn.WriteJSON(req); err != nil {
		return Response{}, fmt.Errorf("adminws: send request: %w", err)
	}

	var resp Response
	if err := c.conn.ReadJSON(&resp); err != nil {
		return Response{}, fmt.Errorf("adminws: read response: %w", err)
	}
	if resp.Error != "" {
		return resp, fmt.Errorf("adminws: %s", resp.Error)
	}
	return resp, nil
}

// RoutingSnapshot fetches the routing-table snapshot.
func (c *Client) RoutingSnapshot() (*RoutingSnapshot, error) {
	resp, err := c.Call(OpRoutingSnapshot, "", nil)
	if err != nil {
		return nil, err
	}
	return resp.Routing, nil
}

// StorageSnapshot fetches the local storage snapshot.
func (c *Client) StorageSnapshot() (*StorageSnapshot, error) {
	resp, err := c.Call(OpStorageSnapshot, "", nil)
	if err != nil {
		return nil, err
	}
	return resp.Storage, nil
}

// Get proxies a get(key) call.
func (c *Client) Get(key string) (value []byte, found bool, err error) {
	resp, err := c.Call(OpGet, key, nil)
	if err != nil {
		return nil, false, err
	}
	return resp.Value, resp.Found, nil
}

// GetConcat proxies a get_concat(key) call.
func (c *Client) GetConcat(key string) ([]byte, error) {
	resp, err := c.Call(OpGetConcat, key, nil)
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Set proxies a set(key, value) call.
func (c *Client) Set(key string, value []byte) error {
	_, err := c.Call(OpSet, key, value)
	return err
}

// Append proxies an append(key, jsonList) call.
func (c *Client) Append(key string, jsonList []byte) error {
	_, err := c.Call(OpAppend, key, jsonList)
	return err
}

// Remove proxies a remove(key, jsonList) call.
func (c *Client) Remove(key string, jsonList []byte) error {
	_, err := c.Call(OpRemove, key, jsonList)
	return err
}
