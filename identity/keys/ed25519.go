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
	"crypto/ed25519"
	"crypto/rand"
	"errors"
)

// ErrInvalidSignature is returned by Verify when the signature does
// not match the message under the key's public key.
var ErrInvalidSignature = errors.New("keys: invalid signature")

type ed25519KeyPair struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
}

// GenerateEd25519KeyPair generates a new Ed25519 node identity key.
func GenerateEd25519KeyPair() (KeyPair, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &ed25519KeyPair{private: private, public: public}, nil
}

// Ed25519KeyPairFromPrivate wraps an existing raw private key, as
// loaded from the node's keystore.
func Ed25519KeyPairFromPrivate(priv ed25519.PrivateKey) KeyPair {
	return &ed25519KeyPair{private: priv, public: priv.Public().(ed25519.PublicKey)}
}

func (k *ed25519KeyPair) PublicKey() crypto.PublicKey { return k.public }
func (k *ed25519KeyPair) Type() KeyType                { return KeyTypeEd25519 }

func (k *ed25519KeyPair) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(k.private, message), nil
}

func (k *ed25519KeyPair) Verify(message, signature []byte) error {
	if !ed25519.Verify(k.public, message, signature) {
		return ErrInvalidSignature
	}
	return nil
}
