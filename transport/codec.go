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

package transport

import (
	"encoding/binary"
	"fmt"
)

// maxDatagram bounds a single UDP payload; comfortably under the
// common path MTU once fragmented by the kernel.
const maxDatagram = 60000

// EncodeMessage serializes msg as msgId(20) || kind(1) || payload.
func EncodeMessage(msg Message) []byte {
	out := make([]byte, 0, MsgIDSize+1+len(msg.Payload))
	out = append(out, msg.ID[:]...)
	out = append(out, byte(msg.Kind))
	out = append(out, msg.Payload...)
	return out
}

// DecodeMessage parses the inverse of EncodeMessage.
func DecodeMessage(raw []byte) (Message, error) {
	if len(raw) < MsgIDSize+1 {
		return Message{}, fmt.Errorf("transport: datagram too short (%d bytes)", len(raw))
	}
	var msg Message
	copy(msg.ID[:], raw[:MsgIDSize])
	msg.Kind = Kind(raw[MsgIDSize])
	if len(raw) > MsgIDSize+1 {
		msg.Payload = append([]byte(nil), raw[MsgIDSize+1:]...)
	}
	return msg, nil
}

// The field helpers below give the protocol package a small,
// consistent length-prefixed tuple codec to build verb payloads with,
// matching "datagrams carrying length-prefixed tuples" (spec section
// 6) without needing every verb to hand-roll its own framing.

// AppendString appends a length-prefixed (uint32 big-endian) string.
func AppendString(buf []byte, s string) []byte {
	return AppendBytes(buf, []byte(s))
}

// AppendBytes appends a length-prefixed (uint32 big-endian) byte string.
func AppendBytes(buf []byte, b []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, b...)
	return buf
}

// ReadBytes reads one length-prefixed field from buf, returning the
// field and the remaining unread bytes.
func ReadBytes(buf []byte) (field []byte, rest []byte, err error) {
	if len(buf) < 4 {
		return nil, nil, fmt.Errorf("transport: truncated length prefix")
	}
	n := binary.BigEndian.Uint32(buf[:4])
	buf = buf[4:]
	if uint64(n) > uint64(len(buf)) {
		return nil, nil, fmt.Errorf("transport: field length %d exceeds remaining %d bytes", n, len(buf))
	}
	return buf[:n], buf[n:], nil
}

// ReadString reads one length-prefixed field from buf as a string.
func ReadString(buf []byte) (s string, rest []byte, err error) {
	field, rest, err := ReadBytes(buf)
	if err != nil {
		return "", nil, err
	}
	return string(field), rest, nil
}
