// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"fmt"
	"net"
	"net/url"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
	Level   string // "error", "warning", "info"
}

// ValidateConfiguration validates the entire configuration. Only
// "error"-level entries cause Load to fail; "warning" entries are
// informational.
func ValidateConfiguration(cfg *Config) []ValidationError {
	var errors []ValidationError

	errors = append(errors, validateNodeConfig(&cfg.Node)...)
	errors = append(errors, validateKademliaConfig(&cfg.Kademlia)...)
	errors = append(errors, validateTrustAnchors(cfg.TrustAnchors)...)
	errors = append(errors, validateEnvironment(cfg.Environment)...)

	return errors
}

func validateNodeConfig(cfg *NodeConfig) []ValidationError {
	var errors []ValidationError

	if cfg.Listen == "" {
		errors = append(errors, ValidationError{
			Field: "Node.Listen", Message: "listen address is required", Level: "error",
		})
		return errors
	}

	if _, _, err := net.SplitHostPort(cfg.Listen); err != nil {
		errors = append(errors, ValidationError{
			Field: "Node.Listen", Message: fmt.Sprintf("invalid listen address: %v", err), Level: "error",
		})
	}

	return errors
}

// validateKademliaConfig checks K and Alpha are in the ranges spec
// section 3 assumes: Alpha must not exceed K, since an α-parallel
// round that outpaces the bucket width can't be usefully bounded.
func validateKademliaConfig(cfg *KademliaConfig) []ValidationError {
	var errors []ValidationError

	if cfg.K <= 0 {
		errors = append(errors, ValidationError{
			Field: "Kademlia.K", Message: "k must be positive", Level: "error",
		})
	}
	if cfg.Alpha <= 0 {
		errors = append(errors, ValidationError{
			Field: "Kademlia.Alpha", Message: "alpha must be positive", Level: "error",
		})
	}
	if cfg.Alpha > cfg.K && cfg.K > 0 {
		errors = append(errors, ValidationError{
			Field: "Kademlia.Alpha", Message: "alpha should not exceed k", Level: "warning",
		})
	}

	return errors
}

func validateTrustAnchors(anchors []TrustAnchorConfig) []ValidationError {
	var errors []ValidationError

	for i, anchor := range anchors {
		field := fmt.Sprintf("TrustAnchors[%d]", i)

		switch anchor.Chain {
		case "ethereum", "solana":
		case "":
			errors = append(errors, ValidationError{
				Field: field + ".Chain", Message: "chain is required", Level: "error",
			})
		default:
			errors = append(errors, ValidationError{
				Field: field + ".Chain", Message: fmt.Sprintf("unknown chain %q", anchor.Chain), Level: "error",
			})
		}

		if anchor.RPCURL == "" {
			errors = append(errors, ValidationError{
				Field: field + ".RPCURL", Message: "rpc url is required", Level: "error",
			})
		} else if _, err := url.Parse(anchor.RPCURL); err != nil {
			errors = append(errors, ValidationError{
				Field: field + ".RPCURL", Message: fmt.Sprintf("invalid rpc url: %v", err), Level: "error",
			})
		}

		if anchor.Address == "" {
			errors = append(errors, ValidationError{
				Field: field + ".Address", Message: "address is required", Level: "error",
			})
		}
	}

	return errors
}

func validateEnvironment(env string) []ValidationError {
	switch env {
	case "development", "staging", "production", "local", "test":
		return nil
	case "":
		return []ValidationError{{Field: "Environment", Message: "environment is required", Level: "error"}}
	default:
		return []ValidationError{{Field: "Environment", Message: fmt.Sprintf("unrecognized environment %q", env), Level: "warning"}}
	}
}
