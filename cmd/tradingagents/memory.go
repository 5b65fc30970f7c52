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

	"github.com/nlpodyssey/tradingagents-go/memory"
	"github.com/spf13/cobra"
)

var (
	memoryName           string
	memoryRecommendation string
	memoryMatches        int
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Store and retrieve situation/recommendation pairs",
}

var memoryAddCmd = &cobra.Command{
	Use:   "add <situation>",
	Short: "Store a situation with its recommendation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		if memoryRecommendation == "" {
			return errors.New("--recommendation is required")
		}
		ctx := cmd.Context()
		mem, err := openMemory(ctx, memoryName)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, mem.Close()) }()

		if err = mem.AddSituations(ctx, []memory.SituationAdvice{
			{Situation: args[0], Recommendation: memoryRecommendation},
		}); err != nil {
			return err
		}
		n, err := mem.Count(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Stored. %s now holds %d situations.\n", mem.Name(), n)
		return err
	},
}

var memoryQueryCmd = &cobra.Command{
	Use:   "query <situation>",
	Short: "Show the stored situations most similar to the given one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		mem, err := openMemory(ctx, memoryName)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, mem.Close()) }()

		matches, err := mem.GetMemories(ctx, args[0], memoryMatches)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(matches) == 0 {
			_, err = fmt.Fprintln(out, "No past memories found.")
			return err
		}
		for i, m := range matches {
			_, _ = fmt.Fprintf(out, "Match %d (similarity %.2f)\n", i+1, m.SimilarityScore)
			_, _ = fmt.Fprintf(out, "  Situation: %s\n", m.MatchedSituation)
			_, _ = fmt.Fprintf(out, "  Recommendation: %s\n\n", m.Recommendation)
		}
		return nil
	},
}

var memoryResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every stored situation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		mem, err := openMemory(ctx, memoryName)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, mem.Close()) }()

		if err = mem.Reset(ctx); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Memory %s cleared.\n", mem.Name())
		return err
	},
}

func init() {
	memoryCmd.PersistentFlags().StringVar(&memoryName, "name", traderMemoryName, "Memory collection name")
	memoryAddCmd.Flags().StringVarP(&memoryRecommendation, "recommendation", "r", "", "Recommendation for the situation")
	memoryQueryCmd.Flags().IntVarP(&memoryMatches, "matches", "n", 2, "Number of matches")

	memoryCmd.AddCommand(memoryAddCmd)
	memoryCmd.AddCommand(memoryQueryCmd)
	memoryCmd.AddCommand(memoryResetCmd)
}
