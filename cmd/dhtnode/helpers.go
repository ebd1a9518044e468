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
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sage-x-project/dht/certsink/fs"
	"github.com/sage-x-project/dht/config"
	"github.com/sage-x-project/dht/dht"
	"github.com/sage-x-project/dht/identity"
	"github.com/sage-x-project/dht/identity/keys"
	"github.com/sage-x-project/dht/identity/keystore"
	"github.com/sage-x-project/dht/internal/logger"
	"github.com/sage-x-project/dht/kadid"
	"github.com/sage-x-project/dht/maintenance"
	"github.com/sage-x-project/dht/storage"
	"github.com/sage-x-project/dht/transport"
	"github.com/sage-x-project/dht/trustanchor"
	"github.com/sage-x-project/dht/trustanchor/ethereum"
	"github.com/sage-x-project/dht/trustanchor/solana"
)

// runningNode bundles everything serve/bootstrap need to tear down
// cleanly, mirroring the teacher's command-per-file RunE pattern of
// returning one struct from setup rather than a long parameter list.
type runningNode struct {
	node      *dht.Node
	tr        transport.Transport
	scheduler *maintenance.Scheduler
	log       logger.Logger
}

// buildNode loads cfg's identity material from keyDir (passphrase-
// protected via identity/keystore) and wires a *dht.Node exactly as
// spec section 4.9's Server Facade expects: trust anchors registered,
// a bound UDP transport, and a maintenance scheduler for the tickers
// of spec section 4.10. It starts neither the transport's serve loop
// nor the scheduler; runUntilSignal does both.
func buildNode(cfg *config.Config, keyDir, passphrase string) (*runningNode, error) {
	log := logger.GetDefaultLogger()

	ks := keystore.New(keyDir, passphrase)
	priv, err := ks.LoadPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("dhtnode: load private key: %w", err)
	}
	certDER, err := ks.LoadCertificate()
	if err != nil {
		return nil, fmt.Errorf("dhtnode: load certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("dhtnode: parse certificate: %w", err)
	}
	signer := keys.Ed25519KeyPairFromPrivate(priv)

	truststore, err := loadTruststore(cfg.CertDir)
	if err != nil {
		return nil, err
	}

	anchors, err := buildTrustAnchors(cfg.TrustAnchors)
	if err != nil {
		return nil, err
	}

	idAdapter := identity.New(cert, certDER, signer, truststore, anchors)

	localID, err := identity.IDFromCert(cert)
	if err != nil {
		return nil, fmt.Errorf("dhtnode: derive node id: %w", err)
	}
	host, portStr, err := net.SplitHostPort(cfg.Node.Listen)
	if err != nil {
		return nil, fmt.Errorf("dhtnode: parse node.listen %q: %w", cfg.Node.Listen, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("dhtnode: parse node.listen port %q: %w", portStr, err)
	}
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	local := kadid.Node{ID: localID, IP: host, Port: uint16(port)}

	store := storage.New(cfg.Storage.Capacity, cfg.Storage.TTL)

	certSink, err := fs.New(cfg.CertDir)
	if err != nil {
		return nil, fmt.Errorf("dhtnode: open certificate sink: %w", err)
	}

	tr, err := transport.NewUDP(cfg.Node.Listen, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dhtnode: bind transport: %w", err)
	}

	node := dht.New(local, idAdapter, store, certSink, tr)

	scheduler := maintenance.New(node, maintenance.Config{
		RepublishInterval: cfg.Maintenance.RepublishInterval,
		RefreshInterval:   cfg.Maintenance.RefreshInterval,
		CullInterval:      cfg.Maintenance.CullInterval,
	}, log)

	log.Info("node identity loaded", logger.String("id", local.ID.Hex()), logger.String("addr", local.Addr()))

	return &runningNode{node: node, tr: tr, scheduler: scheduler, log: log}, nil
}

// loadTruststore reads CertDir/ca.pem as the local trust root pool.
// Its absence is not fatal here and yields an empty pool; chain
// validation still verifies every peer certificate against that pool,
// so with an empty pool no peer certificate validates.
func loadTruststore(certDir string) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	caPath := filepath.Join(certDir, "ca.pem")
	pem, err := os.ReadFile(caPath)
	if os.IsNotExist(err) {
		return pool, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dhtnode: read %s: %w", caPath, err)
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("dhtnode: %s contains no usable certificates", caPath)
	}
	return pool, nil
}

// buildTrustAnchors registers one trustanchor.Provider per configured
// entry (spec section 4.13); an empty list yields a nil registry, so
// Adapter.ValidateChain skips anchor checking entirely.
func buildTrustAnchors(entries []config.TrustAnchorConfig) (*trustanchor.Registry, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	registry := trustanchor.NewRegistry()
	for _, e := range entries {
		var provider trustanchor.Provider
		var err error
		switch trustanchor.Chain(e.Chain) {
		case trustanchor.ChainEthereum:
			provider, err = ethereum.Dial(e.RPCURL, e.Address)
		case trustanchor.ChainSolana:
			provider, err = solana.Dial(e.RPCURL, e.Address)
		default:
			return nil, fmt.Errorf("dhtnode: unknown trust anchor chain %q", e.Chain)
		}
		if err != nil {
			return nil, fmt.Errorf("dhtnode: dial trust anchor %s: %w", e.Chain, err)
		}
		if err := registry.Register(provider); err != nil {
			return nil, fmt.Errorf("dhtnode: register trust anchor %s: %w", e.Chain, err)
		}
	}
	return registry, nil
}

// loadConfig reads path, trying YAML then JSON, and validates it.
// Only "error"-level validation findings are fatal; "warning" entries
// are logged and otherwise ignored.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	var fatal []config.ValidationError
	for _, e := range config.ValidateConfiguration(cfg) {
		if e.Level == "error" {
			fatal = append(fatal, e)
		} else {
			logger.GetDefaultLogger().Warn("config: " + e.Field + ": " + e.Message)
		}
	}
	if len(fatal) > 0 {
		return nil, fmt.Errorf("dhtnode: invalid configuration: %v", fatal)
	}
	return cfg, nil
}
