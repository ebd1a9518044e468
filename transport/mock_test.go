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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMockSendReachesHandler(t *testing.T) {
	net := NewNetwork()
	a := net.NewMock("node-a")
	b := net.NewMock("node-b")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = b.Serve(ctx, func(_ context.Context, from string, req Message) Message {
			require.Equal(t, "node-a", from)
			return Message{ID: req.ID, Kind: KindPingResp, Payload: []byte("pong")}
		})
	}()
	time.Sleep(10 * time.Millisecond)

	id, err := NewMsgID()
	require.NoError(t, err)
	resp, err := a.Send(context.Background(), "node-b", Message{ID: id, Kind: KindPingReq})
	require.NoError(t, err)
	require.Equal(t, []byte("pong"), resp.Payload)
}

func TestMockSendToUnknownAddrTimesOut(t *testing.T) {
	net := NewNetwork()
	a := net.NewMock("node-a")

	id, err := NewMsgID()
	require.NoError(t, err)
	_, err = a.Send(context.Background(), "node-ghost", Message{ID: id, Kind: KindPingReq})
	require.ErrorIs(t, err, ErrTimeout)
}

func TestMockSetUnreachable(t *testing.T) {
	net := NewNetwork()
	a := net.NewMock("node-a")
	b := net.NewMock("node-b")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = b.Serve(ctx, func(_ context.Context, _ string, req Message) Message {
			return Message{ID: req.ID, Kind: KindPingResp}
		})
	}()
	time.Sleep(10 * time.Millisecond)

	a.SetUnreachable("node-b", true)
	id, err := NewMsgID()
	require.NoError(t, err)
	_, err = a.Send(context.Background(), "node-b", Message{ID: id, Kind: KindPingReq})
	require.ErrorIs(t, err, ErrTimeout)
}
