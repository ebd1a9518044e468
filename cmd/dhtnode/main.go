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

// Command dhtnode runs and operates a single participant of the
// mutually-authenticated, certificate-bootstrapped Kademlia DHT (spec
// section 6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dhtnode",
	Short: "dhtnode runs and operates a certificate-bootstrapped Kademlia DHT node",
	Long: `dhtnode runs a single participant of the mutually-authenticated,
certificate-bootstrapped Kademlia DHT.

This tool supports:
- Running a node's event loop, transport, and maintenance tickers (serve)
- Joining a network from a signed seed bundle (bootstrap)
- Manual get/set/append/remove/get-concat calls against a running node,
  proxied over its admin surface`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
