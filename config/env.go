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

// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR} or ${VAR:default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// SubstituteEnvVars replaces ${VAR} or ${VAR:default} with environment variable values.
func SubstituteEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}

// SubstituteEnvVarsInConfig substitutes environment variables into
// every string field of cfg that plausibly carries a ${VAR} template:
// listen addresses, the cert directory, trust anchor endpoints, and
// the logging/observability sinks.
func SubstituteEnvVarsInConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Node.ID = SubstituteEnvVars(cfg.Node.ID)
	cfg.Node.Listen = SubstituteEnvVars(cfg.Node.Listen)
	cfg.CertDir = SubstituteEnvVars(cfg.CertDir)

	for i := range cfg.TrustAnchors {
		cfg.TrustAnchors[i].RPCURL = SubstituteEnvVars(cfg.TrustAnchors[i].RPCURL)
		cfg.TrustAnchors[i].Address = SubstituteEnvVars(cfg.TrustAnchors[i].Address)
	}

	cfg.AdminWS.Listen = SubstituteEnvVars(cfg.AdminWS.Listen)
	cfg.Metrics.Listen = SubstituteEnvVars(cfg.Metrics.Listen)
	cfg.Metrics.Path = SubstituteEnvVars(cfg.Metrics.Path)
	cfg.Health.Listen = SubstituteEnvVars(cfg.Health.Listen)
	cfg.Health.Path = SubstituteEnvVars(cfg.Health.Path)

	cfg.Logging.Level = SubstituteEnvVars(cfg.Logging.Level)
	cfg.Logging.Format = SubstituteEnvVars(cfg.Logging.Format)
	cfg.Logging.Output = SubstituteEnvVars(cfg.Logging.Output)
	cfg.Logging.FilePath = SubstituteEnvVars(cfg.Logging.FilePath)
}

// GetEnvironment returns the current environment from DHT_ENV or
// ENVIRONMENT, defaulting to "development".
func GetEnvironment() string {
	env := os.Getenv("DHT_ENV")
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	if env == "" {
		env = "development"
	}
	return strings.ToLower(env)
}

// IsProduction returns true if running in the production environment.
func IsProduction() bool {
	return GetEnvironment() == "production"
}

// IsDevelopment returns true if running in development or local environment.
func IsDevelopment() bool {
	env := GetEnvironment()
	return env == "development" || env == "local"
}
