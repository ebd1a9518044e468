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

// Package seedset implements the signed seed bundle format a new node
// uses to bootstrap (spec section 4.7): a small, out-of-band
// distributed list of {ip, port, certificate} triples, wrapped in a
// JWT so the list itself carries issuer and freshness claims.
//
// Grounded on the teacher's oidc/auth0 package, which builds and signs
// a JWT assertion with golang-jwt/jwt/v5 (oidc/auth0/auth0.go); here
// the claims carry a seed list instead of an OAuth client assertion,
// and the signing key is the operator's own Ed25519 key rather than
// an Auth0 application secret.
package seedset

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SeedEntry is one bootstrap contact carried in a bundle.
type SeedEntry struct {
	IP      string `json:"ip"`
	Port    uint16 `json:"port"`
	CertPEM string `json:"cert_pem"`
}

// claims is the JWT payload: a seed list plus issuer and issued-at.
type claims struct {
	Seeds []SeedEntry `json:"seeds"`
	jwt.RegisteredClaims
}

// Sign builds a JWT-encoded bundle of seeds, signed with priv
// (Ed25519) and attributed to issuer.
func Sign(seeds []SeedEntry, issuer string, priv ed25519.PrivateKey) (string, error) {
	now := time.Now()
	c := claims{
		Seeds: seeds,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, c)
	signed, err := token.SignedString(priv)
	if err != nil {
		return "", fmt.Errorf("seedset: sign bundle: %w", err)
	}
	return signed, nil
}

// Verify parses and verifies a signed bundle against pub, returning
// its seed list. maxAge, if positive, rejects a bundle whose iat is
// older than maxAge.
func Verify(bundle string, pub ed25519.PublicKey, maxAge time.Duration) ([]SeedEntry, error) {
	parsed, err := jwt.ParseWithClaims(bundle, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("seedset: unexpected signing method %v", t.Header["alg"])
		}
		return pub, nil
	})
	if err != nil {
		return nil, fmt.Errorf("seedset: verify bundle: %w", err)
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("seedset: invalid bundle claims")
	}
	if maxAge > 0 && c.IssuedAt != nil {
		if time.Since(c.IssuedAt.Time) > maxAge {
			return nil, fmt.Errorf("seedset: bundle is stale (issued %s ago)", time.Since(c.IssuedAt.Time))
		}
	}
	return c.Seeds, nil
}

// DecodeCertPEM decodes a SeedEntry's PEM-encoded certificate into
// raw DER, as dht.Seed requires.
func DecodeCertPEM(certPEM string) ([]byte, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, fmt.Errorf("seedset: no PEM block found in certificate")
	}
	return block.Bytes, nil
}

// EncodeCertPEM is the inverse of DecodeCertPEM, used when building a
// bundle from raw DER certificates.
func EncodeCertPEM(der []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

// base64Fingerprint is a short human-readable identifier for a public
// key. Nothing in this package calls it.
func base64Fingerprint(pub ed25519.PublicKey) string {
	return base64.RawURLEncoding.EncodeToString(pub)[:12]
}
