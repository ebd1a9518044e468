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

package config

import "strings"

// TrustAnchorPresets gives a default RPC endpoint per chain/network
// pair, so a TrustAnchorConfig only needs an Address (contract or
// account) to be usable out of the box. Mirrors the teacher's
// blockchain NetworkPresets table, trimmed to the RPC endpoint a
// trustanchor.Provider dials.
var TrustAnchorPresets = map[string]string{
	"ethereum:local":   "http://localhost:8545",
	"ethereum:kairos":  "https://public-en-kairos.node.kaia.io",
	"ethereum:mainnet": "https://public-en-cypress.klaytn.net",
	"solana:local":     "http://localhost:8899",
	"solana:devnet":    "https://api.devnet.solana.com",
	"solana:mainnet":   "https://api.mainnet-beta.solana.com",
}

// ResolveTrustAnchorRPC returns cfg.RPCURL if set, otherwise the
// preset for chain:network, otherwise "".
func ResolveTrustAnchorRPC(cfg TrustAnchorConfig, network string) string {
	if cfg.RPCURL != "" {
		return cfg.RPCURL
	}
	key := strings.ToLower(cfg.Chain) + ":" + strings.ToLower(network)
	return TrustAnchorPresets[key]
}
