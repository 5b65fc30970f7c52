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
	"errors"
	"fmt"
	"log/slog"

	"github.com/nlpodyssey/tradingagents-go/llm"
	"github.com/nlpodyssey/tradingagents-go/logging"
	"github.com/nlpodyssey/tradingagents-go/memory"
	"github.com/nlpodyssey/tradingagents-go/modelsettings"
)

const reflectionPrompt = `You are an expert financial analyst tasked with reviewing trading decisions/analysis and providing a comprehensive, step-by-step analysis.
Your goal is to deliver detailed insights into investment decisions and highlight opportunities for improvement, adhering strictly to the following guidelines:

1. Reasoning:
   - For each trading decision, determine whether it was correct or incorrect. A correct decision results in an increase in returns, while an incorrect decision does the opposite.
   - Analyze the contributing factors to each success or mistake. Consider market intelligence, technical indicators, price movement analysis, news analysis, social media and sentiment analysis, and fundamental data.

2. Improvement:
   - For any incorrect decisions, propose revisions to maximize returns.
   - Provide a detailed list of corrective actions or improvements, including specific recommendations (e.g., changing a decision from HOLD to BUY on a particular date).

3. Summary:
   - Summarize the lessons learned from the successes and mistakes.
   - Highlight how these lessons can be adapted for future trading scenarios and draw connections between similar situations to apply the knowledge gained.

4. Query:
   - Extract key insights from the summary into a concise sentence of no more than 1000 tokens.
   - Ensure the condensed sentence captures the essence of the lessons and reasoning for easy reference.

Adhere strictly to these instructions, and ensure your output is detailed, accurate, and actionable.`

type ReflectorParams struct {
	Model    llm.Model
	Memory   *memory.FinancialSituationMemory
	Settings modelsettings.ModelSettings
}

// Reflector reviews a past decision against its realised return and stores
// the lesson in memory.
type Reflector struct {
	model    llm.Model
	memory   *memory.FinancialSituationMemory
	settings modelsettings.ModelSettings
}

func NewReflector(params ReflectorParams) *Reflector {
	return &Reflector{
		model:    params.Model,
		memory:   params.Memory,
		settings: params.Settings,
	}
}

// Reflect returns the reflection on decision and adds it to memory, keyed
// by the situation described by state's reports.
func (r *Reflector) Reflect(ctx context.Context, state TradeState, decision string, returnsLosses float64) (string, error) {
	if r.memory == nil {
		return "", errors.New("reflector: memory is required")
	}
	situation := state.Reports.Situation()

	user := fmt.Sprintf("Returns: %g\n\nAnalysis/Decision: %s\n\nObjective Market Reports for Reference: %s",
		returnsLosses, decision, situation)

	resp, err := r.model.GetResponse(ctx, llm.ModelRequest{
		Messages: []llm.Message{llm.SystemMessage(reflectionPrompt), llm.UserMessage(user)},
		Settings: r.settings,
	})
	if err != nil {
		return "", fmt.Errorf("reflector: %w", err)
	}
	reflection := resp.Message.Content

	err = r.memory.AddSituations(ctx, []memory.SituationAdvice{
		{Situation: situation, Recommendation: reflection},
	})
	if err != nil {
		return "", fmt.Errorf("reflector: storing reflection: %w", err)
	}

	logging.Logger().Info("Stored reflection",
		slog.String("memory", r.memory.Name()),
		slog.String("ticker", state.Ticker),
		slog.Float64("returns", returnsLosses))
	return reflection, nil
}
