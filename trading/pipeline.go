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

// Package trading runs the analysts and the trader for a ticker and turns
// realised returns into stored reflections.
package trading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nlpodyssey/tradingagents-go/analysts"
	"github.com/nlpodyssey/tradingagents-go/llm"
	"github.com/nlpodyssey/tradingagents-go/logging"
	"github.com/nlpodyssey/tradingagents-go/memory"
	"github.com/nlpodyssey/tradingagents-go/tools"
	"github.com/nlpodyssey/tradingagents-go/usage"
)

// Decision is the outcome of one Propagate call.
type Decision struct {
	RunID     string       `json:"run_id"`
	Ticker    string       `json:"ticker"`
	TradeDate string       `json:"trade_date"`
	Reports   Reports      `json:"reports"`
	Plan      string       `json:"plan"`
	Signal    Signal       `json:"signal"`
	Usage     *usage.Usage `json:"usage"`
}

type PipelineParams struct {
	// Model used by the analysts.
	QuickModel llm.Model

	// Optional model used by the trader. Defaults to QuickModel.
	DeepModel llm.Model

	// Tools the analysts pick theirs from.
	Registry *tools.Registry

	// Optional analysts to run, in order. Defaults to analysts.DefaultKinds.
	Analysts []analysts.Kind

	// Optional memory consulted by the trader.
	Memory *memory.FinancialSituationMemory

	// Optional turn budget of each analyst. Defaults to analysts.DefaultMaxTurns.
	MaxToolTurns int
}

type Pipeline struct {
	quickModel   llm.Model
	analysts     []*analysts.Analyst
	trader       *Trader
	maxToolTurns int
}

func NewPipeline(params PipelineParams) (*Pipeline, error) {
	if params.QuickModel == nil {
		return nil, errors.New("pipeline: a model is required")
	}
	if params.Registry == nil {
		return nil, errors.New("pipeline: a tool registry is required")
	}
	kinds := params.Analysts
	if len(kinds) == 0 {
		kinds = analysts.DefaultKinds
	}

	bound := make([]*analysts.Analyst, len(kinds))
	seen := make(map[analysts.Kind]bool, len(kinds))
	for i, kind := range kinds {
		if seen[kind] {
			return nil, fmt.Errorf("pipeline: analyst %q selected twice", kind)
		}
		seen[kind] = true
		a, err := analysts.New(kind, params.Registry)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		bound[i] = a
	}

	deep := params.DeepModel
	if deep == nil {
		deep = params.QuickModel
	}
	return &Pipeline{
		quickModel:   params.QuickModel,
		analysts:     bound,
		trader:       NewTrader(TraderParams{Model: deep, Memory: params.Memory}),
		maxToolTurns: params.MaxToolTurns,
	}, nil
}

// Propagate runs every selected analyst, each on a fresh conversation, then
// asks the trader for a decision.
func (p *Pipeline) Propagate(ctx context.Context, ticker, tradeDate string) (*Decision, error) {
	if ticker == "" {
		return nil, errors.New("ticker is required")
	}
	if _, err := time.Parse(time.DateOnly, tradeDate); err != nil {
		return nil, fmt.Errorf("invalid trade date %q: expected YYYY-MM-DD", tradeDate)
	}

	u := usage.NewUsage()
	ctx = usage.NewContext(ctx, u)
	decision := &Decision{
		RunID:     uuid.NewString(),
		Ticker:    ticker,
		TradeDate: tradeDate,
		Usage:     u,
	}
	log := logging.Logger().With(slog.String("run_id", decision.RunID), slog.String("ticker", ticker))
	log.Info("Starting run", slog.String("trade_date", tradeDate))

	for _, a := range p.analysts {
		state := analysts.State{
			Ticker:    ticker,
			TradeDate: tradeDate,
			Messages:  []llm.Message{llm.UserMessage(ticker)},
		}
		res, err := a.Run(ctx, p.quickModel, state, p.maxToolTurns)
		if err != nil {
			return nil, err
		}
		decision.Reports.Set(a.Kind(), res.Report)
		log.Info("Analyst report ready", slog.String("analyst", string(a.Kind())), slog.Int("length", len(res.Report)))
	}

	td, err := p.trader.Decide(ctx, TradeState{Ticker: ticker, TradeDate: tradeDate, Reports: decision.Reports})
	if err != nil {
		return nil, err
	}
	decision.Plan = td.Plan
	decision.Signal = td.Signal

	log.Info("Run completed",
		slog.String("signal", string(decision.Signal)),
		slog.Uint64("requests", u.Requests),
		slog.Uint64("total_tokens", u.TotalTokens))
	return decision, nil
}
