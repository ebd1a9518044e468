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
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/dht/adminws"
	"github.com/sage-x-project/dht/config"
	"github.com/sage-x-project/dht/health"
	"github.com/sage-x-project/dht/internal/logger"
	"github.com/sage-x-project/dht/internal/metrics"
)

var (
	serveConfigPath string
	serveKeyDir     string
	servePassphrase string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run this node's event loop, transport, and maintenance tickers",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "config.yaml", "Path to node configuration file")
	serveCmd.Flags().StringVar(&serveKeyDir, "key-dir", ".dht/identity", "Directory holding the node's passphrase-wrapped key and certificate")
	serveCmd.Flags().StringVar(&servePassphrase, "passphrase", "", "Passphrase protecting the node's private key (or set DHTNODE_PASSPHRASE)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(serveConfigPath)
	if err != nil {
		return err
	}

	passphrase := servePassphrase
	if passphrase == "" {
		passphrase = os.Getenv("DHTNODE_PASSPHRASE")
	}

	rn, err := buildNode(cfg, serveKeyDir, passphrase)
	if err != nil {
		return err
	}

	return runUntilSignal(rn, cfg, nil)
}

// runUntilSignal starts rn's transport, maintenance scheduler, and any
// enabled HTTP surfaces (admin/metrics/health), optionally running
// preRun once they are up, then blocks until SIGINT/SIGTERM. Shared by
// serve (preRun nil) and bootstrap (preRun performs the join) since a
// bootstrapped node must remain part of the network afterward exactly
// like one started via serve.
func runUntilSignal(rn *runningNode, cfg *config.Config, preRun func(ctx context.Context) error) error {
	defer rn.node.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := rn.tr.Serve(ctx, rn.node.HandleRequest); err != nil && ctx.Err() == nil {
			rn.log.Error("transport serve exited", logger.Error(err))
		}
	}()
	defer rn.tr.Close()

	rn.scheduler.Start(ctx)
	defer rn.scheduler.Stop()

	if cfg.AdminWS.Enabled {
		admin := adminws.NewServer(rn.node)
		defer admin.Close()
		serveHTTP(ctx, rn.log, "admin surface", cfg.AdminWS.Listen, withPath("/admin", admin.Handler()))
	}

	if cfg.Metrics.Enabled {
		serveHTTP(ctx, rn.log, "metrics", cfg.Metrics.Listen, withPath(cfg.Metrics.Path, metrics.Handler()))
	}

	if cfg.Health.Enabled {
		checker := health.NewHealthChecker(5 * time.Second)
		checker.SetLogger(rn.log)
		serveHTTP(ctx, rn.log, "health", cfg.Health.Listen, withPath(cfg.Health.Path, healthHandler(checker)))
	}

	if preRun != nil {
		if err := preRun(ctx); err != nil {
			return err
		}
	}

	rn.log.Info("dhtnode serving", logger.String("id", rn.node.LocalID().Hex()))
	<-ctx.Done()
	rn.log.Info("dhtnode shutting down")
	return nil
}

func withPath(path string, h http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(path, h)
	return mux
}

func serveHTTP(ctx context.Context, log logger.Logger, name, addr string, handler http.Handler) {
	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(name+" server exited", logger.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func healthHandler(checker *health.HealthChecker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := checker.GetOverallStatus(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if status != health.StatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(checker.CheckAll(r.Context()))
	})
}
