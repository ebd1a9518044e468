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

// Package keys provides the node identity key types the Identity &
// Crypto Adapter signs and verifies with. Each algorithm lives in its
// own file, following the layout of the organization's crypto/keys
// package.
package keys

import "crypto"

// KeyType identifies the signature algorithm a key pair uses.
type KeyType string

const (
	KeyTypeEd25519   KeyType = "Ed25519"
	KeyTypeSecp256k1 KeyType = "Secp256k1"
)

// KeyPair is a node's signing identity: a private key capable of
// producing the signatures the Signed-RPC Protocol attaches to every
// request and response, plus the matching public key carried in the
// node's certificate.
type KeyPair interface {
	PublicKey() crypto.PublicKey
	Type() KeyType
	Sign(message []byte) ([]byte, error)
	Verify(message, signature []byte) error
}
