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

// Package identity is the Identity & Crypto Adapter of component 1:
// it derives a node's 160-bit id from its certificate, signs and
// verifies the Signed-RPC Protocol's payloads, and validates
// certificate chains against a local truststore plus any configured
// on-chain trust anchors.
package identity

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/sha1" //nolint:gosec // fingerprint choice mirrors the wire-format digest, not a security primitive
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"

	"github.com/sage-x-project/dht/identity/keys"
	"github.com/sage-x-project/dht/kadid"
	"github.com/sage-x-project/dht/trustanchor"
)

// dnQualifierOID is the ASN.1 object identifier for dnQualifier
// (2.5.4.46), the certificate subject field the node's UUID is
// embedded in.
var dnQualifierOID = asn1.ObjectIdentifier{2, 5, 4, 46}

// Errors returned by Sign/Verify/ValidateChain. None of these ever
// cross the RPC boundary as Go errors (see protocol.Outcome) — they
// are the adapter's own failure reporting, consumed by callers that
// decide how to react (spec section 4.1).
var (
	ErrNoDNQualifier    = errors.New("identity: certificate has no dnQualifier")
	ErrUnsupportedKey   = errors.New("identity: unsupported public key algorithm")
	ErrSignatureInvalid = errors.New("identity: signature verification failed")
	ErrChainInvalid     = errors.New("identity: certificate chain failed validation")
	ErrAnchorRevoked    = errors.New("identity: issuer is not a recognized trust anchor")
)

// Adapter is a node's view of its own identity plus the machinery to
// verify peers' identities.
type Adapter struct {
	ownCert   *x509.Certificate
	ownCertDER []byte
	signer    keys.KeyPair

	truststore *x509.CertPool
	anchors    *trustanchor.Registry
}

// New builds an Adapter for a node whose own certificate is ownCert
// (raw DER ownCertDER) and whose signing key is signer. truststore is
// consulted by ValidateChain; anchors, if non-nil, is consulted in
// addition (spec section 4.13 / SPEC_FULL 4.1).
func New(ownCert *x509.Certificate, ownCertDER []byte, signer keys.KeyPair, truststore *x509.CertPool, anchors *trustanchor.Registry) *Adapter {
	return &Adapter{
		ownCert:    ownCert,
		ownCertDER: ownCertDER,
		signer:     signer,
		truststore: truststore,
		anchors:    anchors,
	}
}

// OwnCert returns the node's own certificate and its raw DER encoding,
// for attaching to privileged-bootstrap requests.
func (a *Adapter) OwnCert() (*x509.Certificate, []byte) {
	return a.ownCert, a.ownCertDER
}

// Sign signs message with the node's own key. A failed sign aborts
// the RPC by returning "no response" at the caller (spec section 4.1):
// callers must treat a non-nil error here as "do not send".
func (a *Adapter) Sign(message []byte) ([]byte, error) {
	sig, err := a.signer.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("identity: sign: %w", err)
	}
	return sig, nil
}

// Verify checks signature over message against cert's public key. A
// failed verify downgrades the peer interaction to "certificate
// unknown" flow at the caller (spec section 4.1) — it returns a plain
// error here, never panics.
func (a *Adapter) Verify(cert *x509.Certificate, signature, message []byte) error {
	switch pub := cert.PublicKey.(type) {
	case ed25519.PublicKey:
		if !ed25519.Verify(pub, message, signature) {
			return ErrSignatureInvalid
		}
		return nil
	case *ecdsa.PublicKey:
		// ECDSA signatures over the fixed-size (r||s) wire form used
		// throughout this protocol, matching identity/keys/secp256k1.go.
		if len(signature) != 64 {
			return ErrSignatureInvalid
		}
		r, s := splitECDSASignature(signature)
		if !ecdsa.Verify(pub, digestForECDSA(message), r, s) {
			return ErrSignatureInvalid
		}
		return nil
	default:
		return ErrUnsupportedKey
	}
}

// ValidateChain validates cert against the local truststore and, if
// any trust anchor providers are registered, against them as well.
func (a *Adapter) ValidateChain(ctx context.Context, cert *x509.Certificate) error {
	if _, err := cert.Verify(x509.VerifyOptions{Roots: a.truststore}); err != nil {
		return fmt.Errorf("%w: %v", ErrChainInvalid, err)
	}

	if a.anchors == nil {
		return nil
	}
	fp := IssuerFingerprint(cert)
	ok, err := a.anchors.IsAnchoredAny(ctx, fp)
	if err != nil {
		return fmt.Errorf("identity: trust anchor check: %w", err)
	}
	if !ok {
		return ErrAnchorRevoked
	}
	return nil
}

// IDFromCert derives the node id from cert's dnQualifier.
func IDFromCert(cert *x509.Certificate) (kadid.ID, error) {
	dnq, err := dnQualifier(cert.Subject)
	if err != nil {
		return kadid.Zero, err
	}
	return kadid.FromDNQualifier(dnq)
}

// IssuerFingerprint returns the SHA-1 digest of the certificate's raw
// DER-encoded issuer distinguished name, used to look an issuer up in
// a trust-anchor provider's anchor list.
func IssuerFingerprint(cert *x509.Certificate) [20]byte {
	return sha1.Sum(cert.RawIssuer) //nolint:gosec
}

// dnQualifier extracts the dnQualifier RDN from a certificate subject.
func dnQualifier(name pkix.Name) (string, error) {
	for _, rdn := range name.Names {
		if rdn.Type.Equal(dnQualifierOID) {
			if s, ok := rdn.Value.(string); ok {
				return s, nil
			}
		}
	}
	return "", ErrNoDNQualifier
}
