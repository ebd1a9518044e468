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

package identity

import (
	"crypto/sha256"
	"math/big"
)

// digestForECDSA mirrors identity/keys/secp256k1.go's choice of
// SHA-256 over the raw message before ECDSA signing.
func digestForECDSA(message []byte) []byte {
	sum := sha256.Sum256(message)
	return sum[:]
}

// splitECDSASignature unpacks the fixed 64-byte (r||s) wire form.
func splitECDSASignature(sig []byte) (*big.Int, *big.Int) {
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	return r, s
}
