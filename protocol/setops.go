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

package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/sage-x-project/dht/internal/metrics"
)

// jsonSetElements parses raw as a JSON array and returns each element
// re-marshaled to its canonical form, used as the dedupe key (spec
// section 4.3: append/remove operate on "a JSON array" of
// "strings/numbers").
func jsonSetElements(raw []byte) ([]string, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("protocol: not a JSON array: %w", err)
	}
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = string(e)
	}
	return out, nil
}

func encodeJSONSet(elems []string) []byte {
	buf := make([]json.RawMessage, len(elems))
	for i, e := range elems {
		buf[i] = json.RawMessage(e)
	}
	out, err := json.Marshal(buf)
	if err != nil {
		// elems are themselves already-valid JSON fragments re-emitted
		// verbatim; Marshal of a []json.RawMessage slice cannot fail.
		panic(fmt.Sprintf("protocol: marshal json set: %v", err))
	}
	return out
}

// jsonSetUnion implements the append semantics of spec section 4.3:
// "union stored ∪ incoming preserving order-independence". When
// stored is nil, incoming is stored verbatim (deduplicated).
func jsonSetUnion(stored, incoming []byte) ([]byte, error) {
	incomingElems, err := jsonSetElements(incoming)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return encodeJSONSet(dedupe(incomingElems)), nil
	}
	storedElems, err := jsonSetElements(stored)
	if err != nil {
		// a previously-stored scalar value being unioned into is a
		// programming inconsistency, not a caller-facing parse error;
		// treat the existing value as an empty set rather than fail
		// the whole append.
		metrics.StorageSetOpConflicts.Inc()
		storedElems = nil
	}
	return encodeJSONSet(dedupe(append(storedElems, incomingElems...))), nil
}

// jsonSetDifference implements the remove semantics of spec section
// 4.3: set-difference "stored \ incoming".
func jsonSetDifference(stored, incoming []byte) ([]byte, error) {
	incomingElems, err := jsonSetElements(incoming)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return encodeJSONSet(nil), nil
	}
	storedElems, err := jsonSetElements(stored)
	if err != nil {
		metrics.StorageSetOpConflicts.Inc()
		return encodeJSONSet(nil), nil
	}
	exclude := make(map[string]bool, len(incomingElems))
	for _, e := range incomingElems {
		exclude[e] = true
	}
	var result []string
	for _, e := range storedElems {
		if !exclude[e] {
			result = append(result, e)
		}
	}
	return encodeJSONSet(dedupe(result)), nil
}

// ApplyUnion exposes jsonSetUnion to other packages that need the
// same set-union rule against a locally-held value (spec section
// 4.8's "local-union rule").
func ApplyUnion(stored, incoming []byte) ([]byte, error) {
	return jsonSetUnion(stored, incoming)
}

// ApplyDifference exposes jsonSetDifference to other packages that
// need the same set-difference rule against a locally-held value.
func ApplyDifference(stored, incoming []byte) ([]byte, error) {
	return jsonSetDifference(stored, incoming)
}

func dedupe(elems []string) []string {
	seen := make(map[string]bool, len(elems))
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
