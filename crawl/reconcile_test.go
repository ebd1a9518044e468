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

package crawl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReconcileSetUnion(t *testing.T) {
	a := []byte(`["x","y"]`)
	b := []byte(`["y","z"]`)
	out := Reconcile([][]byte{a, b})

	var got []string
	require.NoError(t, json.Unmarshal(out, &got))
	require.ElementsMatch(t, []string{"x", "y", "z"}, got)
}

func TestReconcileMajorityVoteFirstSeenTiebreak(t *testing.T) {
	a := []byte(`"alpha"`)
	b := []byte(`"beta"`)
	c := []byte(`"alpha"`)
	out := Reconcile([][]byte{a, b, c})
	require.Equal(t, a, out)
}

func TestReconcileMajorityTieKeepsFirstSeen(t *testing.T) {
	a := []byte(`"first"`)
	b := []byte(`"second"`)
	out := Reconcile([][]byte{a, b})
	require.Equal(t, a, out)
}

func TestReconcileEmpty(t *testing.T) {
	require.Nil(t, Reconcile(nil))
}
