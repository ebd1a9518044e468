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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/dht/adminws"
)

var appendCmd = &cobra.Command{
	Use:   "append [key] [json-array]",
	Short: "Union a JSON array into the set held at key (spec section 4.3)",
	Args:  cobra.ExactArgs(2),
	RunE:  runAppend,
}

func init() {
	rootCmd.AddCommand(appendCmd)
	addAdminFlag(appendCmd)
}

func runAppend(cmd *cobra.Command, args []string) error {
	if err := validateJSONArray(args[1]); err != nil {
		return err
	}

	c, err := adminws.Dial(adminAddr)
	if err != nil {
		return err
	}
	defer c.Close()

	return c.Append(args[0], []byte(args[1]))
}

// validateJSONArray rejects a malformed json-array argument before it
// ever reaches the wire, rather than letting the node discover it at
// set-op application time.
func validateJSONArray(raw string) error {
	var v []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return fmt.Errorf("dhtnode: value must be a JSON array: %w", err)
	}
	return nil
}
