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

// Package config loads and validates a DHT node's configuration from a
// YAML or JSON file, with ${VAR}/${VAR:default} environment
// substitution and per-environment overrides layered on top.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for a DHT node.
type Config struct {
	Environment  string              `yaml:"environment" json:"environment"`
	Node         NodeConfig          `yaml:"node" json:"node"`
	Kademlia     KademliaConfig      `yaml:"kademlia" json:"kademlia"`
	Maintenance  MaintenanceConfig   `yaml:"maintenance" json:"maintenance"`
	Storage      StorageConfig       `yaml:"storage" json:"storage"`
	CertDir      string              `yaml:"cert_dir" json:"cert_dir"`
	TrustAnchors []TrustAnchorConfig `yaml:"trust_anchors" json:"trust_anchors"`
	AdminWS      AdminWSConfig       `yaml:"admin_ws" json:"admin_ws"`
	Metrics      MetricsConfig       `yaml:"metrics" json:"metrics"`
	Health       HealthConfig        `yaml:"health" json:"health"`
	Logging      LoggingConfig       `yaml:"logging" json:"logging"`
}

// LoadFromFile loads configuration from a file, trying YAML then JSON,
// and applies defaults to anything left unset.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("config: parse %s (tried YAML and JSON): %w", path, err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile writes cfg to path, choosing JSON for a ".json"
// extension and YAML otherwise.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// setDefaults fills in every field a caller left at its zero value
// with the value spec section 3's Kademlia constants and section
// 4.10's maintenance cadences recommend.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Node.Listen == "" {
		cfg.Node.Listen = "0.0.0.0:7946"
	}

	if cfg.Kademlia.K == 0 {
		cfg.Kademlia.K = 20
	}
	if cfg.Kademlia.Alpha == 0 {
		cfg.Kademlia.Alpha = 3
	}

	if cfg.Maintenance.RepublishInterval == 0 {
		cfg.Maintenance.RepublishInterval = time.Hour
	}
	if cfg.Maintenance.RefreshInterval == 0 {
		cfg.Maintenance.RefreshInterval = time.Hour
	}
	if cfg.Maintenance.CullInterval == 0 {
		cfg.Maintenance.CullInterval = 10 * time.Minute
	}

	if cfg.Storage.TTL == 0 {
		cfg.Storage.TTL = 24 * time.Hour
	}
	if cfg.Storage.Capacity == 0 {
		cfg.Storage.Capacity = 10000
	}

	if cfg.CertDir == "" {
		cfg.CertDir = ".dht/certs"
	}

	if cfg.AdminWS.Listen == "" {
		cfg.AdminWS.Listen = "127.0.0.1:7947"
	}

	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = "127.0.0.1:7948"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Health.Listen == "" {
		cfg.Health.Listen = "127.0.0.1:7949"
	}
	if cfg.Health.Path == "" {
		cfg.Health.Path = "/healthz"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}
