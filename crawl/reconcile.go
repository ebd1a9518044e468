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

	"github.com/sage-x-project/dht/internal/metrics"
)

// Reconcile implements spec section 4.5: if every response parses as
// a JSON array, the result is the set-union of all elements; otherwise
// the most-common exact value wins, ties broken by first-seen order.
// The caller is responsible for folding its own local value in as an
// anonymous response before calling Reconcile.
func Reconcile(responses [][]byte) []byte {
	if len(responses) == 0 {
		return nil
	}
	if allJSONArrays(responses) {
		metrics.CrawlReconciliations.WithLabelValues("set_union").Inc()
		return reconcileSets(responses)
	}
	metrics.CrawlReconciliations.WithLabelValues("majority_vote").Inc()
	return reconcileMajority(responses)
}

func allJSONArrays(responses [][]byte) bool {
	for _, r := range responses {
		var arr []json.RawMessage
		if err := json.Unmarshal(r, &arr); err != nil {
			return false
		}
	}
	return true
}

func reconcileSets(responses [][]byte) []byte {
	seen := make(map[string]bool)
	var union []json.RawMessage
	for _, r := range responses {
		var arr []json.RawMessage
		_ = json.Unmarshal(r, &arr)
		for _, e := range arr {
			key := string(e)
			if seen[key] {
				continue
			}
			seen[key] = true
			union = append(union, e)
		}
	}
	out, err := json.Marshal(union)
	if err != nil {
		panic("crawl: marshal reconciled set: " + err.Error())
	}
	return out
}

func reconcileMajority(responses [][]byte) []byte {
	counts := make(map[string]int)
	order := make([]string, 0, len(responses))
	for _, r := range responses {
		key := string(r)
		if _, ok := counts[key]; !ok {
			order = append(order, key)
		}
		counts[key]++
	}
	best := order[0]
	for _, key := range order[1:] {
		if counts[key] > counts[best] {
			best = key
		}
	}
	return []byte(best)
}
