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

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.GoVersion == "" {
		t.Error("GoVersion should not be empty")
	}

	expectedPlatform := runtime.GOOS + "/" + runtime.GOARCH
	if info.Platform != expectedPlatform {
		t.Errorf("expected platform %s, got %s", expectedPlatform, info.Platform)
	}
}

func TestString(t *testing.T) {
	origVersion, origCommit, origBranch, origDate := Version, GitCommit, GitBranch, BuildDate
	defer func() { Version, GitCommit, GitBranch, BuildDate = origVersion, origCommit, origBranch, origDate }()

	Version, GitCommit, GitBranch, BuildDate = "1.0.0", "", "", ""
	if str := String(); !strings.Contains(str, "1.0.0") {
		t.Errorf("expected version 1.0.0 in %q", str)
	}

	Version, GitCommit, GitBranch, BuildDate = "1.0.0", "abcdef1234567890", "main", "2026-01-01"
	str := String()
	if !strings.Contains(str, "abcdef1") {
		t.Errorf("expected commit prefix in %q", str)
	}
	if !strings.Contains(str, "main") {
		t.Errorf("expected branch in %q", str)
	}
}

func TestShort(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version, GitCommit = "1.0.0", ""
	if short := Short(); short != "1.0.0" {
		t.Errorf("expected '1.0.0', got %q", short)
	}

	Version, GitCommit = "1.0.0", "abcdef1234567890"
	if short := Short(); short != "1.0.0-abcdef1" {
		t.Errorf("expected '1.0.0-abcdef1', got %q", short)
	}
}

func TestUserAgent(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version, GitCommit = "1.0.0", ""
	if ua := UserAgent(); ua != "dhtnode/1.0.0" {
		t.Errorf("expected 'dhtnode/1.0.0', got %q", ua)
	}
}

func TestGetModuleVersion(t *testing.T) {
	if v := GetModuleVersion(); v == "" {
		t.Error("GetModuleVersion should not return an empty string")
	}
}

func TestPrintVersion(t *testing.T)     { PrintVersion() }
func TestPrintVersionJSON(t *testing.T) { PrintVersionJSON() }
