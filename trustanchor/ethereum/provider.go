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

// Package ethereum implements a trustanchor.Provider backed by a
// read-only call against an anchor-registry contract.
package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/sage-x-project/dht/trustanchor"
)

// isAnchoredSelector is the 4-byte selector for isAnchored(bytes20),
// computed once at init from the function's canonical signature.
var isAnchoredSelector = crypto.Keccak256([]byte("isAnchored(bytes20)"))[:4]

// Provider resolves anchor status against a single deployed contract
// over a JSON-RPC endpoint.
type Provider struct {
	client   *ethclient.Client
	contract common.Address
}

// Dial connects to rpcURL and targets the anchor-registry contract at
// contractAddr.
func Dial(rpcURL, contractAddr string) (*Provider, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("trustanchor/ethereum: dial %s: %w", rpcURL, err)
	}
	return &Provider{
		client:   client,
		contract: common.HexToAddress(contractAddr),
	}, nil
}

// Chain implements trustanchor.Provider.
func (p *Provider) Chain() trustanchor.Chain { return trustanchor.ChainEthereum }

// IsAnchored implements trustanchor.Provider via a read-only
// eth_call against isAnchored(bytes20) on the configured contract.
func (p *Provider) IsAnchored(ctx context.Context, issuerFingerprint [20]byte) (bool, error) {
	calldata := make([]byte, 0, len(isAnchoredSelector)+32)
	calldata = append(calldata, isAnchoredSelector...)
	var padded [32]byte
	copy(padded[:20], issuerFingerprint[:])
	calldata = append(calldata, padded[:]...)

	result, err := p.client.CallContract(ctx, ethereum.CallMsg{
		To:   &p.contract,
		Data: calldata,
	}, nil)
	if err != nil {
		return false, fmt.Errorf("trustanchor/ethereum: call isAnchored: %w", err)
	}
	if len(result) == 0 {
		return false, fmt.Errorf("trustanchor/ethereum: empty result from isAnchored")
	}
	return new(big.Int).SetBytes(result).Sign() != 0, nil
}
