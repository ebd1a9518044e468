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

// Package solana implements a trustanchor.Provider backed by an
// anchor-list account on Solana.
package solana

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/sage-x-project/dht/trustanchor"
)

// Provider reads a flat list of 20-byte issuer fingerprints stored in
// a single account's data and answers membership queries against it.
type Provider struct {
	client      *rpc.Client
	anchorsAddr solana.PublicKey
}

// Dial connects to rpcEndpoint and targets the account holding the
// anchor list at anchorsAccount (base58-encoded).
func Dial(rpcEndpoint, anchorsAccount string) (*Provider, error) {
	addr, err := solana.PublicKeyFromBase58(anchorsAccount)
	if err != nil {
		return nil, fmt.Errorf("trustanchor/solana: parse account: %w", err)
	}
	return &Provider{
		client:      rpc.New(rpcEndpoint),
		anchorsAddr: addr,
	}, nil
}

// Chain implements trustanchor.Provider.
func (p *Provider) Chain() trustanchor.Chain { return trustanchor.ChainSolana }

// IsAnchored implements trustanchor.Provider by fetching the anchor
// account and scanning its data for the fingerprint, 20 bytes at a
// time.
func (p *Provider) IsAnchored(ctx context.Context, issuerFingerprint [20]byte) (bool, error) {
	info, err := p.client.GetAccountInfo(ctx, p.anchorsAddr)
	if err != nil {
		return false, fmt.Errorf("trustanchor/solana: get account info: %w", err)
	}
	if info == nil || info.Value == nil {
		return false, fmt.Errorf("trustanchor/solana: anchor account not found")
	}

	data := info.Value.Data.GetBinary()
	for off := 0; off+20 <= len(data); off += 20 {
		if bytes.Equal(data[off:off+20], issuerFingerprint[:]) {
			return true, nil
		}
	}
	return false, nil
}
