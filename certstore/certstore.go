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

// Package certstore implements component 5, the Certificate Store: a
// subset of Local Storage holding digest(idHex‖"cert") entries, with
// the dnQualifier-must-match-claimed-id invariant enforced at write
// time and a persistent Sink consulted when the in-memory entry has
// expired or was never learned in this process's lifetime.
package certstore

import (
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/sage-x-project/dht/kadid"
	"github.com/sage-x-project/dht/storage"
)

// Errors returned by Store. ErrIDMismatch corresponds to the
// "Cert id ≠ claimed node id" row of the failure-semantics table
// (spec section 4.9): the entry is rejected, never stored.
var (
	ErrIDMismatch  = errors.New("certstore: certificate dnQualifier does not match claimed node id")
	ErrNoDNQ       = errors.New("certstore: certificate has no dnQualifier")
	ErrNotFound    = errors.New("certstore: certificate not found")
)

// Sink is a persistent certificate sink (spec section 6, "Persistent
// state"): certificates accepted via StoreCert are also written here,
// and consulted on restart before a node would otherwise reply NACK.
type Sink interface {
	Save(idHex string, der []byte) error
	Load(idHex string) ([]byte, error)
}

// IDFromCert extracts a node id from a certificate's dnQualifier. It
// is a function value so Store can be built without importing the
// identity package directly; callers pass identity.IDFromCert.
type IDFromCert func(cert *x509.Certificate) (kadid.ID, error)

// Store is the Certificate Store.
type Store struct {
	mem        *storage.Forgetful
	sink       Sink
	idFromCert IDFromCert
}

// New returns a Store backed by mem (shared with, or dedicated to,
// the general Local Storage) and sink. idFromCert derives a node id
// from a certificate's dnQualifier.
func New(mem *storage.Forgetful, sink Sink, idFromCert IDFromCert) *Store {
	return &Store{mem: mem, sink: sink, idFromCert: idFromCert}
}

func certKeyHex(idHex string) string {
	return kadid.CertKey(idHex).Hex()
}

// StoreCert validates that der's dnQualifier matches claimedID and,
// on success, persists it to the in-memory store and the sink.
func (s *Store) StoreCert(claimedID kadid.ID, der []byte) error {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return fmt.Errorf("certstore: parse certificate: %w", err)
	}
	actualID, err := s.idFromCert(cert)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoDNQ, err)
	}
	if actualID != claimedID {
		return ErrIDMismatch
	}

	idHex := claimedID.Hex()
	s.mem.Put(certKeyHex(idHex), der)
	if s.sink != nil {
		if err := s.sink.Save(idHex, der); err != nil {
			return fmt.Errorf("certstore: persist certificate: %w", err)
		}
	}
	return nil
}

// Get returns the DER-encoded certificate for idHex, checking the
// in-memory store first and falling back to the sink (spec section 6:
// "on restart the directory is consulted by searchForCertificate
// before replying NACK").
func (s *Store) Get(idHex string) ([]byte, bool) {
	if found, der := s.mem.Get(certKeyHex(idHex)); found {
		return der, true
	}
	if s.sink == nil {
		return nil, false
	}
	der, err := s.sink.Load(idHex)
	if err != nil {
		return nil, false
	}
	s.mem.Put(certKeyHex(idHex), der)
	return der, true
}

// Has reports whether a certificate for idHex is known, without
// returning its bytes.
func (s *Store) Has(idHex string) bool {
	_, ok := s.Get(idHex)
	return ok
}

// ParsedGet is a convenience wrapper returning a parsed certificate.
func (s *Store) ParsedGet(idHex string) (*x509.Certificate, error) {
	der, ok := s.Get(idHex)
	if !ok {
		return nil, ErrNotFound
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("certstore: parse certificate: %w", err)
	}
	return cert, nil
}
