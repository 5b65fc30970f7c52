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

package trading

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nlpodyssey/tradingagents-go/llm"
	"github.com/nlpodyssey/tradingagents-go/logging"
	"github.com/nlpodyssey/tradingagents-go/memory"
	"github.com/nlpodyssey/tradingagents-go/modelsettings"
)

const (
	traderMemoryMatches = 2
	noPastMemories      = "No past memories found."
)

type TraderParams struct {
	Model llm.Model

	// Optional memory of past reflections.
	Memory *memory.FinancialSituationMemory

	Settings modelsettings.ModelSettings
}

// Trader turns the analyst reports into a transaction proposal.
type Trader struct {
	model    llm.Model
	memory   *memory.FinancialSituationMemory
	settings modelsettings.ModelSettings
}

func NewTrader(params TraderParams) *Trader {
	return &Trader{
		model:    params.Model,
		memory:   params.Memory,
		settings: params.Settings,
	}
}

type TraderDecision struct {
	Plan   string
	Signal Signal
}

// Decide asks the model for a plan, informed by the reflections stored for
// the most similar past situations.
func (t *Trader) Decide(ctx context.Context, state TradeState) (*TraderDecision, error) {
	pastMemories, err := t.pastMemories(ctx, state.Reports.Situation())
	if err != nil {
		return nil, err
	}

	system := "You are a trading agent analyzing market data to make investment decisions. " +
		"Based on your analysis, provide a specific recommendation to buy, sell, or hold. " +
		"End with a firm decision and always conclude your response with " +
		"'FINAL TRANSACTION PROPOSAL: **BUY/HOLD/SELL**' to confirm your recommendation. " +
		"Do not forget to utilize lessons from past decisions to learn from your mistakes. " +
		"Here are some reflections from similar situations you traded in and the lessons learned: " + pastMemories

	user := fmt.Sprintf("Based on a comprehensive analysis by a team of analysts, here are the reports for %s "+
		"as of %s. They cover technical market indicators, social media sentiment, news and macroeconomic "+
		"conditions, and company fundamentals.\n\n"+
		"Market report:\n%s\n\nSentiment report:\n%s\n\nNews report:\n%s\n\nFundamentals report:\n%s\n\n"+
		"Leverage these insights to make an informed and strategic decision.",
		state.Ticker, state.TradeDate,
		state.Reports.Market, state.Reports.Sentiment, state.Reports.News, state.Reports.Fundamentals)

	resp, err := t.model.GetResponse(ctx, llm.ModelRequest{
		Messages: []llm.Message{llm.SystemMessage(system), llm.UserMessage(user)},
		Settings: t.settings,
	})
	if err != nil {
		return nil, fmt.Errorf("trader: %w", err)
	}

	plan := resp.Message.Content
	signal := ExtractSignal(plan)
	logging.Logger().Info("Trader decided",
		slog.String("ticker", state.Ticker),
		slog.String("trade_date", state.TradeDate),
		slog.String("signal", string(signal)))

	return &TraderDecision{Plan: plan, Signal: signal}, nil
}

func (t *Trader) pastMemories(ctx context.Context, situation string) (string, error) {
	if t.memory == nil {
		return noPastMemories, nil
	}
	matches, err := t.memory.GetMemories(ctx, situation, traderMemoryMatches)
	if err != nil {
		return "", fmt.Errorf("trader memory lookup: %w", err)
	}
	if len(matches) == 0 {
		return noPastMemories, nil
	}
	recommendations := make([]string, len(matches))
	for i, m := range matches {
		recommendations[i] = m.Recommendation
	}
	return strings.Join(recommendations, "\n\n"), nil
}
