// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nlpodyssey/tradingagents-go/tools"
	"github.com/spf13/cobra"
)

var mcpToolsCmd = &cobra.Command{
	Use:   "mcp-tools -- <command> [args...]",
	Short: "List the tools exposed by a stdio MCP server",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		servers, err := connectMCPServers(ctx, []string{strings.Join(args, " ")})
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, closeMCPServers(servers)) }()
		if len(servers) == 0 {
			return errors.New("an MCP server command is required")
		}

		fns, err := tools.MCPTools(ctx, servers[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, f := range fns {
			_, _ = fmt.Fprintf(out, "%s\t%s\n", f.Name, f.Description)
		}
		return nil
	},
}
