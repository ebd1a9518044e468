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

package keystore

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadPrivateKeyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	store := New(dir, "correct horse battery staple")
	require.NoError(t, store.SavePrivateKey(priv))

	loaded, err := store.LoadPrivateKey()
	require.NoError(t, err)
	assert.Equal(t, priv, loaded)
}

func TestLoadPrivateKeyWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	require.NoError(t, New(dir, "right").SavePrivateKey(priv))

	_, err = New(dir, "wrong").LoadPrivateKey()
	assert.Error(t, err)
}

func TestLoadPrivateKeyNotFound(t *testing.T) {
	_, err := New(t.TempDir(), "pw").LoadPrivateKey()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveLoadCertificateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, "pw")
	der := []byte("fake-der-bytes-for-test")
	require.NoError(t, store.SaveCertificate(der))

	loaded, err := store.LoadCertificate()
	require.NoError(t, err)
	assert.Equal(t, der, loaded)
}
