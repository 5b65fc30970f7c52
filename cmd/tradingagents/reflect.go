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
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/nlpodyssey/tradingagents-go/trading"
	"github.com/spf13/cobra"
)

var reflectReturns float64

var reflectCmd = &cobra.Command{
	Use:   "reflect <decision.json>",
	Short: "Reflect on a past decision given its realised return",
	Long: `Read a decision written by "analyze --json", ask the model to reflect on
it given the realised return or loss, and store the reflection in the
trader memory for future runs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var decision trading.Decision
		if err := json.Unmarshal(data, &decision); err != nil {
			return fmt.Errorf("invalid decision file: %w", err)
		}

		quick, _, err := newModels(ctx)
		if err != nil {
			return err
		}
		mem, err := openMemory(ctx, traderMemoryName)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, mem.Close()) }()

		reflector := trading.NewReflector(trading.ReflectorParams{Model: quick, Memory: mem})
		reflection, err := reflector.Reflect(ctx, trading.TradeState{
			Ticker:    decision.Ticker,
			TradeDate: decision.TradeDate,
			Reports:   decision.Reports,
		}, decision.Plan, reflectReturns)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), reflection)
		return err
	},
}

func init() {
	reflectCmd.Flags().Float64Var(&reflectReturns, "returns", 0, "Realised return (positive) or loss (negative) of the position")
}
