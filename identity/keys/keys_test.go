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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEd25519SignVerify(t *testing.T) {
	kp, err := GenerateEd25519KeyPair()
	require.NoError(t, err)

	msg := []byte("idHexchallenge")
	sig, err := kp.Sign(msg)
	require.NoError(t, err)
	assert.NoError(t, kp.Verify(msg, sig))
	assert.Error(t, kp.Verify([]byte("tampered"), sig))
	assert.Equal(t, KeyTypeEd25519, kp.Type())
}

func TestSecp256k1SignVerify(t *testing.T) {
	kp, err := GenerateSecp256k1KeyPair()
	require.NoError(t, err)

	msg := []byte("idHexchallenge")
	sig, err := kp.Sign(msg)
	require.NoError(t, err)
	assert.NoError(t, kp.Verify(msg, sig))
	assert.Error(t, kp.Verify([]byte("tampered"), sig))
	assert.Equal(t, KeyTypeSecp256k1, kp.Type())
}

func TestSecp256k1VerifyMalformedSignature(t *testing.T) {
	kp, err := GenerateSecp256k1KeyPair()
	require.NoError(t, err)
	assert.ErrorIs(t, kp.Verify([]byte("msg"), []byte("short")), ErrInvalidSignature)
}
