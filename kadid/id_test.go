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

package kadid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromUUID(t *testing.T) {
	u := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	id := FromUUID(u)

	// Left-padded: the low 16 bytes must equal the UUID bytes exactly.
	assert.Equal(t, u[:], id[Size-16:])
	for i := 0; i < Size-16; i++ {
		assert.Equal(t, byte(0), id[i])
	}
}

func TestFromDNQualifierRoundTrip(t *testing.T) {
	u := uuid.New()
	id, err := FromDNQualifier(u.String())
	require.NoError(t, err)
	assert.Equal(t, FromUUID(u), id)
}

func TestFromDNQualifierInvalid(t *testing.T) {
	_, err := FromDNQualifier("not-a-uuid")
	assert.Error(t, err)
}

func TestHexRoundTrip(t *testing.T) {
	id := Digest([]byte("hello"))
	parsed, err := ParseHex(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestCertKeyDeterministic(t *testing.T) {
	a := CertKey("ABCDEF")
	b := CertKey("ABCDEF")
	c := CertKey("FEDCBA")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestXORSelfIsZero(t *testing.T) {
	id := Digest([]byte("node"))
	assert.Equal(t, Zero, XOR(id, id))
}

func TestCloserToTieBreak(t *testing.T) {
	target := Digest([]byte("target"))
	// Construct two ids equidistant from target by flipping the same
	// single bit in opposite directions is hard to force directly, so
	// instead assert the simpler, load-bearing property: a node is
	// never considered closer to the target than itself.
	x := Digest([]byte("x"))
	assert.False(t, CloserTo(target, x, x))
}

func TestCloserToOrdering(t *testing.T) {
	target := Zero
	near := ID{0x00, 0x00, 0x01}
	far := ID{0x01, 0x00, 0x00}
	assert.True(t, CloserTo(target, near, far))
	assert.False(t, CloserTo(target, far, near))
}
