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

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	content := "environment: \"development\"\nnode:\n  listen: \"0.0.0.0:7946\"\n"
	require := func(err error) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require(os.WriteFile(filepath.Join(tmpDir, "development.yaml"), []byte(content), 0644))

	cfg, err := Load(LoaderOptions{
		ConfigDir:   tmpDir,
		Environment: "development",
	})
	if err != nil {
		t.Fatalf("Failed to load development config: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "development")
	}
	if cfg.Kademlia.K != 20 {
		t.Errorf("Kademlia.K = %d, want 20", cfg.Kademlia.K)
	}
}

func TestLoad_FallsBackToDefaults(t *testing.T) {
	tmpDir := t.TempDir() // empty: no env/default/config.yaml present

	cfg, err := Load(LoaderOptions{ConfigDir: tmpDir, Environment: "test"})
	if err != nil {
		t.Fatalf("expected fallback to succeed, got: %v", err)
	}
	if cfg.Kademlia.K != 20 || cfg.Kademlia.Alpha != 3 {
		t.Errorf("expected defaulted kademlia config, got %+v", cfg.Kademlia)
	}
}

func TestLoad_ValidationFailsOnBadListen(t *testing.T) {
	tmpDir := t.TempDir()
	content := "environment: \"test\"\nnode:\n  listen: \"not-a-valid-address\"\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "test.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(LoaderOptions{ConfigDir: tmpDir, Environment: "test"})
	if err == nil {
		t.Fatal("expected validation error for malformed listen address")
	}
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected MustLoad to panic on validation failure")
		}
	}()

	tmpDir := t.TempDir()
	content := "environment: \"test\"\nnode:\n  listen: \"bad\"\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "test.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	MustLoad(LoaderOptions{ConfigDir: tmpDir, Environment: "test"})
}
