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
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/sage-x-project/dht/kadid"
	"github.com/sage-x-project/dht/transport"
)

// Challenge is the per-RPC nonce of spec section 6: 8 random bytes,
// rendered as 16 lowercase hex characters on the wire and in the
// signed payload.
type Challenge [8]byte

// NewChallenge draws a fresh random challenge.
func NewChallenge() (Challenge, error) {
	var c Challenge
	if _, err := rand.Read(c[:]); err != nil {
		return Challenge{}, err
	}
	return c, nil
}

// Hex renders the challenge as the wire/signature form.
func (c Challenge) Hex() string { return hex.EncodeToString(c[:]) }

// requestPayload is the common request envelope of spec section 4.3:
// (sender_addr, sender_id, …verb args…, challenge, signature), with
// an optional explicit certificate for the privileged bootstrap case.
type requestPayload struct {
	SenderAddr   string
	SenderID     kadid.ID
	Args         [][]byte
	Challenge    string
	Signature    []byte
	ExplicitCert []byte
}

func encodeRequest(r requestPayload) []byte {
	var buf []byte
	buf = transport.AppendString(buf, r.SenderAddr)
	buf = append(buf, r.SenderID[:]...)

	var argCount [4]byte
	binary.BigEndian.PutUint32(argCount[:], uint32(len(r.Args)))
	buf = append(buf, argCount[:]...)
	for _, a := range r.Args {
		buf = transport.AppendBytes(buf, a)
	}

	buf = transport.AppendString(buf, r.Challenge)
	buf = transport.AppendBytes(buf, r.Signature)
	buf = transport.AppendBytes(buf, r.ExplicitCert)
	return buf
}

func decodeRequest(payload []byte) (requestPayload, error) {
	var r requestPayload

	addr, rest, err := transport.ReadString(payload)
	if err != nil {
		return r, fmt.Errorf("protocol: decode sender_addr: %w", err)
	}
	r.SenderAddr = addr

	if len(rest) < kadid.Size+4 {
		return r, fmt.Errorf("protocol: truncated request envelope")
	}
	copy(r.SenderID[:], rest[:kadid.Size])
	rest = rest[kadid.Size:]

	argCount := binary.BigEndian.Uint32(rest[:4])
	rest = rest[4:]
	r.Args = make([][]byte, 0, argCount)
	for i := uint32(0); i < argCount; i++ {
		var field []byte
		field, rest, err = transport.ReadBytes(rest)
		if err != nil {
			return r, fmt.Errorf("protocol: decode arg %d: %w", i, err)
		}
		r.Args = append(r.Args, field)
	}

	challenge, rest, err := transport.ReadString(rest)
	if err != nil {
		return r, fmt.Errorf("protocol: decode challenge: %w", err)
	}
	r.Challenge = challenge

	sig, rest, err := transport.ReadBytes(rest)
	if err != nil {
		return r, fmt.Errorf("protocol: decode signature: %w", err)
	}
	r.Signature = sig

	cert, _, err := transport.ReadBytes(rest)
	if err != nil {
		return r, fmt.Errorf("protocol: decode explicit cert: %w", err)
	}
	if len(cert) > 0 {
		r.ExplicitCert = cert
	}
	return r, nil
}

// responsePayload is the common response envelope: a one-byte NACK
// flag (1 on NACK, 0 otherwise), a one-byte policy-error flag,
// verb-specific result args (empty on NACK), and a signature over the
// challenge. The envelope carries no separate success flag.
type responsePayload struct {
	NACK   bool
	Policy bool
	Args   [][]byte
	Signature []byte
}

func encodeResponse(r responsePayload) []byte {
	var buf []byte
	if r.NACK {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	if r.Policy {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	var argCount [4]byte
	binary.BigEndian.PutUint32(argCount[:], uint32(len(r.Args)))
	buf = append(buf, argCount[:]...)
	for _, a := range r.Args {
		buf = transport.AppendBytes(buf, a)
	}
	buf = transport.AppendBytes(buf, r.Signature)
	return buf
}

func decodeResponse(payload []byte) (responsePayload, error) {
	var r responsePayload
	if len(payload) < 6 {
		return r, fmt.Errorf("protocol: truncated response envelope")
	}
	r.NACK = payload[0] == 1
	r.Policy = payload[1] == 1
	rest := payload[2:]
	argCount := binary.BigEndian.Uint32(rest[:4])
	rest = rest[4:]

	r.Args = make([][]byte, 0, argCount)
	var err error
	for i := uint32(0); i < argCount; i++ {
		var field []byte
		field, rest, err = transport.ReadBytes(rest)
		if err != nil {
			return r, fmt.Errorf("protocol: decode result %d: %w", i, err)
		}
		r.Args = append(r.Args, field)
	}

	sig, _, err := transport.ReadBytes(rest)
	if err != nil {
		return r, fmt.Errorf("protocol: decode signature: %w", err)
	}
	r.Signature = sig
	return r, nil
}

// encodeNodeTriple packs a Node as id(20) ‖ ip ‖ port for find_node's
// bucket response entries.
func encodeNodeTriple(n kadid.Node) []byte {
	var buf []byte
	buf = append(buf, n.ID[:]...)
	buf = transport.AppendString(buf, n.IP)
	var port [2]byte
	binary.BigEndian.PutUint16(port[:], n.Port)
	buf = append(buf, port[:]...)
	return buf
}

func decodeNodeTriple(raw []byte) (kadid.Node, error) {
	if len(raw) < kadid.Size+4 {
		return kadid.Node{}, fmt.Errorf("protocol: truncated node triple")
	}
	var n kadid.Node
	copy(n.ID[:], raw[:kadid.Size])
	rest := raw[kadid.Size:]
	ip, rest, err := transport.ReadString(rest)
	if err != nil {
		return kadid.Node{}, fmt.Errorf("protocol: decode node ip: %w", err)
	}
	if len(rest) < 2 {
		return kadid.Node{}, fmt.Errorf("protocol: truncated node port")
	}
	n.IP = ip
	n.Port = binary.BigEndian.Uint16(rest[:2])
	return n, nil
}
