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
	"github.com/spf13/cobra"

	"github.com/sage-x-project/dht/adminws"
)

var setCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Store a scalar value under key via a running node's admin surface",
	Args:  cobra.ExactArgs(2),
	RunE:  runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)
	addAdminFlag(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	c, err := adminws.Dial(adminAddr)
	if err != nil {
		return err
	}
	defer c.Close()

	return c.Set(args[0], []byte(args[1]))
}
