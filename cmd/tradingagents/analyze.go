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
	"time"

	"github.com/nlpodyssey/tradingagents-go/logging"
	"github.com/nlpodyssey/tradingagents-go/trading"
	"github.com/spf13/cobra"
)

var (
	analyzeJSON       bool
	analyzeMCPServers []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <ticker> [trade-date]",
	Short: "Run the analysts and the trader for a ticker",
	Long: `Run the selected analysts on a ticker, then ask the trader for a
transaction proposal informed by the reflections stored in memory.

The trade date defaults to today (YYYY-MM-DD).`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		ticker := strings.ToUpper(args[0])
		tradeDate := time.Now().Format(time.DateOnly)
		if len(args) == 2 {
			tradeDate = args[1]
		}

		quick, deep, err := newModels(ctx)
		if err != nil {
			return err
		}
		vendor, err := newVendor()
		if err != nil {
			return err
		}

		servers, err := connectMCPServers(ctx, analyzeMCPServers)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, closeMCPServers(servers)) }()

		registry, err := buildRegistry(ctx, vendor, asMCPServers(servers)...)
		if err != nil {
			return err
		}

		mem, err := openMemory(ctx, traderMemoryName)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, mem.Close()) }()

		kinds, err := cfg.Analysts()
		if err != nil {
			return err
		}
		pipeline, err := trading.NewPipeline(trading.PipelineParams{
			QuickModel:   quick,
			DeepModel:    deep,
			Registry:     registry,
			Analysts:     kinds,
			Memory:       mem,
			MaxToolTurns: cfg.MaxToolTurns,
		})
		if err != nil {
			return err
		}

		decision, err := pipeline.Propagate(ctx, ticker, tradeDate)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if analyzeJSON {
			_, err = fmt.Fprintln(out, logging.PrettyJSON(decision))
			return err
		}
		printDecision(cmd, decision)
		return nil
	},
}

func printDecision(cmd *cobra.Command, d *trading.Decision) {
	out := cmd.OutOrStdout()
	section := func(title, body string) {
		if body == "" {
			return
		}
		_, _ = fmt.Fprintf(out, "## %s\n\n%s\n\n", title, body)
	}
	_, _ = fmt.Fprintf(out, "# %s on %s (run %s)\n\n", d.Ticker, d.TradeDate, d.RunID)
	section("Market report", d.Reports.Market)
	section("Sentiment report", d.Reports.Sentiment)
	section("News report", d.Reports.News)
	section("Fundamentals report", d.Reports.Fundamentals)
	section("Trader plan", d.Plan)
	_, _ = fmt.Fprintf(out, "Signal: %s\n", d.Signal)
	_, _ = fmt.Fprintf(out, "Requests: %d, input tokens: %d, output tokens: %d\n",
		d.Usage.Requests, d.Usage.InputTokens, d.Usage.OutputTokens)
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the decision as JSON")
	analyzeCmd.Flags().StringArrayVar(&analyzeMCPServers, "mcp-server", nil,
		"Command line of a stdio MCP server whose tools replace the built-in data tools of the same name (repeatable)")
}
