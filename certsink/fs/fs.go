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

// Package fs implements a certstore.Sink backed by one PEM file per
// node id in a directory, mirroring the "per-node directory" of spec
// section 6's persistent-state note and grounded on the teacher's
// identity/keystore file-per-artifact layout.
package fs

import (
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
)

const certPEMType = "CERTIFICATE"

// Sink is a filesystem-backed certstore.Sink.
type Sink struct {
	dir string
}

// New returns a Sink rooted at dir, creating it if necessary.
func New(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("certsink/fs: create directory: %w", err)
	}
	return &Sink{dir: dir}, nil
}

func (s *Sink) path(idHex string) string {
	return filepath.Join(s.dir, idHex+".cert.pem")
}

// Save writes der as a PEM-encoded certificate file named after idHex.
func (s *Sink) Save(idHex string, der []byte) error {
	block := &pem.Block{Type: certPEMType, Bytes: der}
	if err := os.WriteFile(s.path(idHex), pem.EncodeToMemory(block), 0o644); err != nil {
		return fmt.Errorf("certsink/fs: write %s: %w", idHex, err)
	}
	return nil
}

// Load reads back the DER bytes of the certificate for idHex.
func (s *Sink) Load(idHex string) ([]byte, error) {
	raw, err := os.ReadFile(s.path(idHex))
	if err != nil {
		return nil, fmt.Errorf("certsink/fs: read %s: %w", idHex, err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("certsink/fs: %s is not valid PEM", idHex)
	}
	return block.Bytes, nil
}
