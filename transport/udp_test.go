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

func TestUDPSendReceiveRoundTrip(t *testing.T) {
	server, err := NewUDP("127.0.0.1:0", time.Second)
	require.NoError(t, err)
	defer server.Close()

	client, err := NewUDP("127.0.0.1:0", time.Second)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = server.Serve(ctx, func(_ context.Context, _ string, req Message) Message {
			return Message{ID: req.ID, Kind: KindPingResp, Payload: []byte("pong")}
		})
	}()
	time.Sleep(20 * time.Millisecond)

	id, err := NewMsgID()
	require.NoError(t, err)
	resp, err := client.Send(context.Background(), server.LocalAddr(), Message{ID: id, Kind: KindPingReq})
	require.NoError(t, err)
	require.Equal(t, []byte("pong"), resp.Payload)
}

func TestUDPSendTimesOutWithNoListener(t *testing.T) {
	client, err := NewUDP("127.0.0.1:0", 50*time.Millisecond)
	require.NoError(t, err)
	defer client.Close()

	id, err := NewMsgID()
	require.NoError(t, err)
	_, err = client.Send(context.Background(), "127.0.0.1:1", Message{ID: id, Kind: KindPingReq})
	require.ErrorIs(t, err, ErrTimeout)
}
