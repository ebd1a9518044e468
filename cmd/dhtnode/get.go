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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/dht/adminws"
)

var adminAddr string

var getCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Look up a value by key against a running node's admin surface",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
	addAdminFlag(getCmd)
}

// addAdminFlag registers the --admin flag shared by every subcommand
// that talks to a running node over the admin surface (spec section
// 4.11) rather than constructing one of its own.
func addAdminFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&adminAddr, "admin", "127.0.0.1:7947", "Address of the running node's admin surface")
}

func runGet(cmd *cobra.Command, args []string) error {
	c, err := adminws.Dial(adminAddr)
	if err != nil {
		return err
	}
	defer c.Close()

	value, found, err := c.Get(args[0])
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(os.Stderr, "not found")
		os.Exit(1)
	}
	fmt.Println(string(value))
	return nil
}
