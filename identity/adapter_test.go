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
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/dht/identity/keys"
	"github.com/sage-x-project/dht/kadid"
)

// selfSignedCert builds a minimal self-signed certificate whose
// dnQualifier carries a fresh UUID, mirroring how a real node's
// certificate is provisioned.
func selfSignedCert(t *testing.T, pub ed25519.PublicKey, priv ed25519.PrivateKey) (*x509.Certificate, []byte) {
	t.Helper()
	nodeUUID := uuid.New()

	subject := pkix.Name{
		CommonName: "test-node",
		ExtraNames: []pkix.AttributeTypeAndValue{
			{Type: asn1.ObjectIdentifier{2, 5, 4, 46}, Value: nodeUUID.String()},
		},
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      subject,
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		IsCA:         true,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, pub, priv)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, der
}

func TestIDFromCertMatchesDNQualifier(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	cert, _ := selfSignedCert(t, pub, priv)

	dnq, err := dnQualifier(cert.Subject)
	require.NoError(t, err)
	expected, err := kadid.FromDNQualifier(dnq)
	require.NoError(t, err)

	id, err := IDFromCert(cert)
	require.NoError(t, err)
	require.Equal(t, expected, id)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	cert, der := selfSignedCert(t, pub, priv)

	kp := keys.Ed25519KeyPairFromPrivate(priv)
	pool := x509.NewCertPool()
	pool.AddCert(cert)

	adapter := New(cert, der, kp, pool, nil)

	msg := []byte("ABCDEF0123456789ABCDEF0123456789ABCDEF01deadbeefdeadbeef")
	sig, err := adapter.Sign(msg)
	require.NoError(t, err)
	require.NoError(t, adapter.Verify(cert, sig, msg))
	require.Error(t, adapter.Verify(cert, sig, []byte("tampered")))
}

func TestValidateChainRejectsUntrusted(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	cert, der := selfSignedCert(t, pub, priv)

	otherPub, otherPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	_, _ = selfSignedCert(t, otherPub, otherPriv)

	emptyPool := x509.NewCertPool()
	kp := keys.Ed25519KeyPairFromPrivate(priv)
	adapter := New(cert, der, kp, emptyPool, nil)

	err = adapter.ValidateChain(context.Background(), cert)
	require.ErrorIs(t, err, ErrChainInvalid)
}
