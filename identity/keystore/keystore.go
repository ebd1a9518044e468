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

// Package keystore persists a node's own private key and certificate
// at rest, passphrase-wrapped. This protects the node's long-term
// identity on disk; it is unrelated to the spec's payload-confidentiality
// non-goal, which concerns RPC traffic, not local files.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"
)

// ErrNotFound is returned when no key material exists at the given path.
var ErrNotFound = errors.New("keystore: not found")

const (
	pbkdf2Iterations = 100_000
	saltSize         = 16
	keySize          = 32
)

// Store reads and writes a single Ed25519 node key, encrypted with a
// passphrase via PBKDF2-derived AES-GCM, and the matching certificate
// alongside it in cleartext PEM (the certificate is public material).
type Store struct {
	dir        string
	passphrase string
}

// New returns a Store rooted at dir, protecting the private key with
// passphrase.
func New(dir, passphrase string) *Store {
	return &Store{dir: dir, passphrase: passphrase}
}

func (s *Store) keyPath() string  { return filepath.Join(s.dir, "node.key.enc") }
func (s *Store) certPath() string { return filepath.Join(s.dir, "node.cert.pem") }

// SavePrivateKey encrypts and writes the node's Ed25519 private key.
func (s *Store) SavePrivateKey(priv ed25519.PrivateKey) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("keystore: create dir: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("keystore: generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(s.passphrase), salt, pbkdf2Iterations, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("keystore: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("keystore: new gcm: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("keystore: generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, priv, nil)

	out := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)

	return os.WriteFile(s.keyPath(), out, 0o600)
}

// LoadPrivateKey decrypts and returns the node's Ed25519 private key.
func (s *Store) LoadPrivateKey() (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(s.keyPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("keystore: read key file: %w", err)
	}
	if len(raw) < saltSize {
		return nil, fmt.Errorf("keystore: truncated key file")
	}
	salt, rest := raw[:saltSize], raw[saltSize:]

	key := pbkdf2.Key([]byte(s.passphrase), salt, pbkdf2Iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("keystore: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("keystore: new gcm: %w", err)
	}
	if len(rest) < gcm.NonceSize() {
		return nil, fmt.Errorf("keystore: truncated key file")
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("keystore: decrypt (wrong passphrase?): %w", err)
	}
	return ed25519.PrivateKey(plain), nil
}

// SaveCertificate writes the node's certificate as PEM.
func (s *Store) SaveCertificate(der []byte) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("keystore: create dir: %w", err)
	}
	block := &pem.Block{Type: "CERTIFICATE", Bytes: der}
	return os.WriteFile(s.certPath(), pem.EncodeToMemory(block), 0o644)
}

// LoadCertificate reads the node's certificate DER bytes back.
func (s *Store) LoadCertificate() ([]byte, error) {
	raw, err := os.ReadFile(s.certPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("keystore: read cert file: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("keystore: malformed certificate PEM")
	}
	return block.Bytes, nil
}
