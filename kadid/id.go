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

// Package kadid defines the 160-bit node identifier and the XOR
// distance metric the rest of the DHT is keyed by.
package kadid

import (
	"crypto/sha1" //nolint:gosec // digest choice is a wire-format requirement, not a security primitive
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// Size is the width of an ID in bytes (160 bits).
const Size = 20

// ID is a 160-bit node identifier, derived from the UUID embedded in a
// node's certificate (see FromUUID) or from digesting an arbitrary key
// (see Digest).
type ID [Size]byte

// Zero is the all-zero ID, used as a sentinel for "no node".
var Zero ID

// FromUUID derives an ID from the raw 16 bytes of a UUID, left-padded
// with zeroes to Size bytes. This is the node-id derivation of spec
// section 3: "id = UUID.bytes".
func FromUUID(u uuid.UUID) ID {
	var id ID
	copy(id[Size-len(u):], u[:])
	return id
}

// FromDNQualifier parses a certificate dnQualifier field as a UUID and
// derives the corresponding ID. Returns an error if the field is not a
// well-formed UUID.
func FromDNQualifier(dnQualifier string) (ID, error) {
	u, err := uuid.Parse(dnQualifier)
	if err != nil {
		return Zero, fmt.Errorf("parse dnQualifier as uuid: %w", err)
	}
	return FromUUID(u), nil
}

// Digest computes the ID used for a storage key: SHA-1 of the raw key
// bytes. This is also used, via CertKey, for certificate directory
// entries.
func Digest(key []byte) ID {
	sum := sha1.Sum(key) //nolint:gosec
	return ID(sum)
}

// CertKey returns the storage key under which the certificate for the
// node with the given idHex is published: digest(idHex || "cert").
func CertKey(idHex string) ID {
	return Digest([]byte(idHex + "cert"))
}

// Hex returns the canonical uppercase hexadecimal representation used
// in signature payloads and cert-key derivation.
func (id ID) Hex() string {
	return fmt.Sprintf("%X", id[:])
}

// Base58 renders the ID in Base58 for operator-facing output (CLI,
// admin snapshots) where hex is harder to eyeball than Bitcoin-style
// addresses.
func (id ID) Base58() string {
	return base58.Encode(id[:])
}

// String implements fmt.Stringer as the hex form.
func (id ID) String() string {
	return id.Hex()
}

// ParseHex parses the canonical hex representation back into an ID.
func ParseHex(s string) (ID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Zero, fmt.Errorf("decode id hex: %w", err)
	}
	if len(b) != Size {
		return Zero, fmt.Errorf("id hex must decode to %d bytes, got %d", Size, len(b))
	}
	var id ID
	copy(id[:], b)
	return id, nil
}

// XOR computes the XOR distance between two ids.
func XOR(a, b ID) ID {
	var out ID
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// Less reports whether a is numerically smaller than b, treating both
// as big-endian unsigned integers. Used for tie-breaking by id when
// two distances are equal.
func Less(a, b ID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// CloserTo reports whether x is closer to target than y is, breaking
// ties by lexicographic id order (spec section 4.4 "Tie-breaks").
func CloserTo(target, x, y ID) bool {
	dx, dy := XOR(target, x), XOR(target, y)
	if dx != dy {
		return Less(dx, dy)
	}
	return Less(x, y)
}
