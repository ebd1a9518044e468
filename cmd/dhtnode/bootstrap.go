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

package main

import (
	"context"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/dht/bootstrap/seedset"
	"github.com/sage-x-project/dht/dht"
	"github.com/sage-x-project/dht/identity"
)

var (
	bootstrapConfigPath string
	bootstrapKeyDir     string
	bootstrapPassphrase string
	bootstrapSeedsPath  string
	bootstrapIssuerPub  string
	bootstrapMaxAge     time.Duration
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Join the network from a signed seed bundle, then serve (spec section 4.7)",
	RunE:  runBootstrap,
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
	bootstrapCmd.Flags().StringVar(&bootstrapConfigPath, "config", "config.yaml", "Path to node configuration file")
	bootstrapCmd.Flags().StringVar(&bootstrapKeyDir, "key-dir", ".dht/identity", "Directory holding the node's passphrase-wrapped key and certificate")
	bootstrapCmd.Flags().StringVar(&bootstrapPassphrase, "passphrase", "", "Passphrase protecting the node's private key (or set DHTNODE_PASSPHRASE)")
	bootstrapCmd.Flags().StringVar(&bootstrapSeedsPath, "seeds", "", "Path to a JWT-signed seed bundle (required)")
	bootstrapCmd.Flags().StringVar(&bootstrapIssuerPub, "issuer-pub", "", "Base64 (standard, unpadded) Ed25519 public key the seed bundle must be signed with (required)")
	bootstrapCmd.Flags().DurationVar(&bootstrapMaxAge, "max-age", 24*time.Hour, "Reject a seed bundle older than this")
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	if bootstrapSeedsPath == "" || bootstrapIssuerPub == "" {
		return fmt.Errorf("dhtnode: --seeds and --issuer-pub are required")
	}

	cfg, err := loadConfig(bootstrapConfigPath)
	if err != nil {
		return err
	}

	passphrase := bootstrapPassphrase
	if passphrase == "" {
		passphrase = os.Getenv("DHTNODE_PASSPHRASE")
	}

	rn, err := buildNode(cfg, bootstrapKeyDir, passphrase)
	if err != nil {
		return err
	}

	seeds, err := loadSeeds(bootstrapSeedsPath, bootstrapIssuerPub, bootstrapMaxAge)
	if err != nil {
		return err
	}

	return runUntilSignal(rn, cfg, func(ctx context.Context) error {
		rn.log.Info("bootstrapping")
		if err := rn.node.Bootstrap(ctx, seeds); err != nil {
			return fmt.Errorf("dhtnode: bootstrap: %w", err)
		}
		return nil
	})
}

// loadSeeds reads and verifies the seed bundle at path and converts
// each entry into a dht.Seed.
func loadSeeds(path, issuerPubB64 string, maxAge time.Duration) ([]dht.Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dhtnode: read seed bundle: %w", err)
	}

	pubRaw, err := base64.RawStdEncoding.DecodeString(issuerPubB64)
	if err != nil {
		return nil, fmt.Errorf("dhtnode: decode issuer public key: %w", err)
	}
	if len(pubRaw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("dhtnode: issuer public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pubRaw))
	}

	entries, err := seedset.Verify(string(raw), ed25519.PublicKey(pubRaw), maxAge)
	if err != nil {
		return nil, fmt.Errorf("dhtnode: verify seed bundle: %w", err)
	}

	seeds := make([]dht.Seed, 0, len(entries))
	for _, e := range entries {
		der, err := seedset.DecodeCertPEM(e.CertPEM)
		if err != nil {
			return nil, fmt.Errorf("dhtnode: decode seed certificate: %w", err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("dhtnode: parse seed certificate: %w", err)
		}
		id, err := identity.IDFromCert(cert)
		if err != nil {
			return nil, fmt.Errorf("dhtnode: derive seed id: %w", err)
		}
		seeds = append(seeds, dht.Seed{
			ID:      id,
			Addr:    fmt.Sprintf("%s:%d", e.IP, e.Port),
			CertDER: der,
		})
	}
	return seeds, nil
}
