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

	"github.com/spf13/cobra"

	"github.com/sage-x-project/dht/adminws"
)

var getConcatCmd = &cobra.Command{
	Use:   "get-concat [key]",
	Short: "Crawl every holder of key and reconcile their values (spec section 4.8)",
	Args:  cobra.ExactArgs(1),
	RunE:  runGetConcat,
}

func init() {
	rootCmd.AddCommand(getConcatCmd)
	addAdminFlag(getConcatCmd)
}

func runGetConcat(cmd *cobra.Command, args []string) error {
	c, err := adminws.Dial(adminAddr)
	if err != nil {
		return err
	}
	defer c.Close()

	value, err := c.GetConcat(args[0])
	if err != nil {
		return err
	}
	fmt.Println(string(value))
	return nil
}
