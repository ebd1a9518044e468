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

// Package postgres implements a certstore.Sink backed by a Postgres
// table, for deployments that run a rack of co-located daemons
// sharing one certificate directory instead of one-directory-per-node
// (see certsink/fs for the single-node case).
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS dht_certificates (
	id_hex TEXT PRIMARY KEY,
	der    BYTEA NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Sink is a Postgres-backed certstore.Sink.
type Sink struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against dsn and ensures the backing table
// exists.
func Connect(ctx context.Context, dsn string) (*Sink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("certsink/postgres: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("certsink/postgres: ensure schema: %w", err)
	}
	return &Sink{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Sink) Close() {
	s.pool.Close()
}

// Save upserts der under idHex. The Sink interface (certstore.Sink) is
// synchronous; callers already run on a background maintenance or
// protocol goroutine, so a background context is used for the query.
func (s *Sink) Save(idHex string, der []byte) error {
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO dht_certificates (id_hex, der) VALUES ($1, $2)
		 ON CONFLICT (id_hex) DO UPDATE SET der = EXCLUDED.der, saved_at = now()`,
		idHex, der)
	if err != nil {
		return fmt.Errorf("certsink/postgres: save %s: %w", idHex, err)
	}
	return nil
}

// Load returns the DER bytes stored for idHex.
func (s *Sink) Load(idHex string) ([]byte, error) {
	var der []byte
	err := s.pool.QueryRow(context.Background(),
		`SELECT der FROM dht_certificates WHERE id_hex = $1`, idHex).Scan(&der)
	if err != nil {
		return nil, fmt.Errorf("certsink/postgres: load %s: %w", idHex, err)
	}
	return der, nil
}
