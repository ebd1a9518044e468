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

package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// secp256k1KeyPair implements KeyPair for nodes that derive their
// identity from a blockchain-style secp256k1 key instead of Ed25519 —
// useful when the node's certificate is cross-signed against an
// on-chain address (see trustanchor).
type secp256k1KeyPair struct {
	private *secp256k1.PrivateKey
	public  *secp256k1.PublicKey
}

// GenerateSecp256k1KeyPair generates a new secp256k1 node identity key.
func GenerateSecp256k1KeyPair() (KeyPair, error) {
	private, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &secp256k1KeyPair{private: private, public: private.PubKey()}, nil
}

func (k *secp256k1KeyPair) PublicKey() crypto.PublicKey { return k.public.ToECDSA() }
func (k *secp256k1KeyPair) Type() KeyType                { return KeyTypeSecp256k1 }

func (k *secp256k1KeyPair) Sign(message []byte) ([]byte, error) {
	hash := sha256.Sum256(message)
	r, s, err := ecdsa.Sign(rand.Reader, k.private.ToECDSA(), hash[:])
	if err != nil {
		return nil, err
	}
	return serializeSignature(r, s), nil
}

func (k *secp256k1KeyPair) Verify(message, signature []byte) error {
	hash := sha256.Sum256(message)
	r, s, err := deserializeSignature(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	if !ecdsa.Verify(k.public.ToECDSA(), hash[:], r, s) {
		return ErrInvalidSignature
	}
	return nil
}

// serializeSignature packs (r, s) into a fixed 64-byte wire form.
func serializeSignature(r, s *big.Int) []byte {
	rBytes, sBytes := r.Bytes(), s.Bytes()
	sig := make([]byte, 64)
	copy(sig[32-len(rBytes):32], rBytes)
	copy(sig[64-len(sBytes):64], sBytes)
	return sig
}

func deserializeSignature(data []byte) (*big.Int, *big.Int, error) {
	if len(data) != 64 {
		return nil, nil, ErrInvalidSignature
	}
	r := new(big.Int).SetBytes(data[:32])
	s := new(big.Int).SetBytes(data[32:])
	return r, s, nil
}
