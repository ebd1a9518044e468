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

package config

import "time"

// NodeConfig identifies this node and where it listens for DHT
// traffic. ID is the node's 160-bit id in hex; leave it empty to
// derive the id from the certificate's dnQualifier at startup instead
// (spec section 2.2).
type NodeConfig struct {
	ID     string `yaml:"id,omitempty" json:"id,omitempty"`
	Listen string `yaml:"listen" json:"listen"`
}

// KademliaConfig holds the routing table's two tuning constants (spec
// section 3).
type KademliaConfig struct {
	K     int `yaml:"k" json:"k"`
	Alpha int `yaml:"alpha" json:"alpha"`
}

// MaintenanceConfig mirrors maintenance.Config's three ticker
// intervals so they can be set from a config file instead of only
// maintenance.DefaultConfig.
type MaintenanceConfig struct {
	RepublishInterval time.Duration `yaml:"republish_interval" json:"republish_interval"`
	RefreshInterval   time.Duration `yaml:"refresh_interval" json:"refresh_interval"`
	CullInterval      time.Duration `yaml:"cull_interval" json:"cull_interval"`
}

// StorageConfig controls the local key/value store's forgetfulness
// (spec section 4.10's storage-cull task).
type StorageConfig struct {
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
	Capacity int           `yaml:"capacity" json:"capacity"`
}

// TrustAnchorConfig describes one on-chain anchor provider to register
// with trustanchor.Registry at startup (spec section 4.13). Chain
// selects which provider package (trustanchor/ethereum or
// trustanchor/solana) to dial; Address is a contract address for
// ethereum or an account pubkey for solana.
type TrustAnchorConfig struct {
	Chain   string `yaml:"chain" json:"chain"`
	RPCURL  string `yaml:"rpc_url" json:"rpc_url"`
	Address string `yaml:"address" json:"address"`
}

// AdminWSConfig controls the loopback websocket admin surface (spec
// section 4.11).
type AdminWSConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Listen  string `yaml:"listen" json:"listen"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Listen  string `yaml:"listen" json:"listen"`
	Path    string `yaml:"path" json:"path"`
}

// HealthConfig controls the health-check HTTP endpoint backed by
// health.HealthChecker.
type HealthConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Listen  string `yaml:"listen" json:"listen"`
	Path    string `yaml:"path" json:"path"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}
