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

package certstore

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/dht/kadid"
	"github.com/sage-x-project/dht/storage"
)

type memSink struct {
	certs map[string][]byte
}

func newMemSink() *memSink { return &memSink{certs: make(map[string][]byte)} }

func (m *memSink) Save(idHex string, der []byte) error {
	m.certs[idHex] = der
	return nil
}

func (m *memSink) Load(idHex string) ([]byte, error) {
	der, ok := m.certs[idHex]
	if !ok {
		return nil, errors.New("not found")
	}
	return der, nil
}

func selfSignedCert(t *testing.T, dnQualifier string) (kadid.ID, []byte) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	subject := pkix.Name{
		CommonName: "test-node",
		ExtraNames: []pkix.AttributeTypeAndValue{
			{Type: asn1.ObjectIdentifier{2, 5, 4, 46}, Value: dnQualifier},
		},
	}
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:                subject,
		NotBefore:              time.Now().Add(-time.Hour),
		NotAfter:               time.Now().Add(time.Hour),
		KeyUsage:               x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		IsCA:                   true,
		BasicConstraintsValid:  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, pub, priv)
	require.NoError(t, err)

	id, err := kadid.FromDNQualifier(dnQualifier)
	require.NoError(t, err)
	return id, der
}

func idFromCert(cert *x509.Certificate) (kadid.ID, error) {
	for _, rdn := range cert.Subject.Names {
		if rdn.Type.Equal(asn1.ObjectIdentifier{2, 5, 4, 46}) {
			if s, ok := rdn.Value.(string); ok {
				return kadid.FromDNQualifier(s)
			}
		}
	}
	return kadid.Zero, errors.New("no dnQualifier")
}

func TestStoreCertRoundTrip(t *testing.T) {
	mem := storage.New(10, time.Hour)
	sink := newMemSink()
	s := New(mem, sink, idFromCert)

	id, der := selfSignedCert(t, uuid.New().String())
	require.NoError(t, s.StoreCert(id, der))

	got, ok := s.Get(id.Hex())
	require.True(t, ok)
	require.Equal(t, der, got)
	require.Equal(t, der, sink.certs[id.Hex()])
}

func TestStoreCertRejectsIDMismatch(t *testing.T) {
	mem := storage.New(10, time.Hour)
	sink := newMemSink()
	s := New(mem, sink, idFromCert)

	_, der := selfSignedCert(t, uuid.New().String())
	claimed, err := kadid.FromDNQualifier(uuid.New().String())
	require.NoError(t, err)

	err = s.StoreCert(claimed, der)
	require.ErrorIs(t, err, ErrIDMismatch)
	require.False(t, s.Has(claimed.Hex()))
}

func TestGetFallsBackToSink(t *testing.T) {
	mem := storage.New(10, time.Hour)
	sink := newMemSink()

	id, der := selfSignedCert(t, uuid.New().String())
	require.NoError(t, sink.Save(id.Hex(), der))

	s := New(mem, sink, idFromCert)
	got, ok := s.Get(id.Hex())
	require.True(t, ok)
	require.Equal(t, der, got)
}

func TestGetUnknownReturnsFalse(t *testing.T) {
	mem := storage.New(10, time.Hour)
	s := New(mem, newMemSink(), idFromCert)
	_, ok := s.Get("deadbeef")
	require.False(t, ok)
}
