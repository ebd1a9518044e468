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

// Package protocol implements component 7, the Signed-RPC Protocol:
// the six authenticated verbs (ping, find_node, find_value, store,
// append, remove) plus the NACK rescue flow and the privileged
// bootstrap case.
package protocol

// Outcome is the terminal resolution status of a call, replacing the
// source's deferred-callback chains with an exhaustive sum type
// (design note: "Callback chains → explicit futures/state").
type Outcome int

const (
	// OutcomeOK is a verified, positive response.
	OutcomeOK Outcome = iota
	// OutcomeNACK means the peer does not hold our certificate; the
	// caller must respond with callPing(peer, own_cert()).
	OutcomeNACK
	// OutcomeBadSignature means a response (or, at the receiver, a
	// request) failed signature verification, or the peer's certificate
	// could not be obtained to verify it; the peer is not promoted/no
	// reply is sent.
	OutcomeBadSignature
	// OutcomeTimeout means no response arrived before the transport
	// deadline.
	OutcomeTimeout
	// OutcomePolicyError covers JSON-parse failures on append/remove.
	OutcomePolicyError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNACK:
		return "nack"
	case OutcomeBadSignature:
		return "bad_signature"
	case OutcomeTimeout:
		return "timeout"
	case OutcomePolicyError:
		return "policy_error"
	default:
		return "unknown"
	}
}
