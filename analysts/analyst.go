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

// Package analysts implements the tool-bound analysts that research a
// company and write the reports the trader decides on.
package analysts

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/nlpodyssey/tradingagents-go/llm"
	"github.com/nlpodyssey/tradingagents-go/logging"
	"github.com/nlpodyssey/tradingagents-go/modelsettings"
	"github.com/nlpodyssey/tradingagents-go/tools"
)

const DefaultMaxTurns = 8

// State is what an analyst sees on each turn.
type State struct {
	Ticker    string
	TradeDate string

	// The conversation so far, without the system prompt.
	Messages []llm.Message
}

type Result struct {
	// Messages produced by the analyst: a single assistant reply for Node,
	// every reply and tool result for Run.
	Messages []llm.Message

	// The final report. Empty while the analyst is still calling tools.
	Report string
}

// Analyst is a stateless prompt with its tools bound.
type Analyst struct {
	kind         Kind
	instructions string
	registry     *tools.Registry
	tools        []tools.Function

	// Settings used on every model call.
	Settings modelsettings.ModelSettings
}

// New binds the tools of the given analyst kind, taken from registry.
func New(kind Kind, registry *tools.Registry) (*Analyst, error) {
	def, ok := definitions[kind]
	if !ok {
		return nil, fmt.Errorf("unknown analyst %q", kind)
	}
	fns, err := registry.Subset(def.toolNames...)
	if err != nil {
		return nil, fmt.Errorf("%s analyst: %w", kind, err)
	}
	bound, err := tools.NewRegistry(fns...)
	if err != nil {
		return nil, err
	}
	return &Analyst{
		kind:         kind,
		instructions: def.instructions,
		registry:     bound,
		tools:        fns,
	}, nil
}

func (a *Analyst) Kind() Kind { return a.kind }

// ToolNames returns the names of the bound tools.
func (a *Analyst) ToolNames() []string {
	return a.registry.Names()
}

func (a *Analyst) SystemPrompt(ticker, tradeDate string) string {
	return SystemPrompt(a.ToolNames(), a.instructions, tradeDate, ticker)
}

// Node makes a single model call. The report is set only when the reply
// requests no tool calls.
func (a *Analyst) Node(ctx context.Context, model llm.Model, state State) (Result, error) {
	messages := make([]llm.Message, 0, len(state.Messages)+1)
	messages = append(messages, llm.SystemMessage(a.SystemPrompt(state.Ticker, state.TradeDate)))
	messages = append(messages, state.Messages...)

	resp, err := model.GetResponse(ctx, llm.ModelRequest{
		Messages: messages,
		Tools:    tools.Definitions(a.tools),
		Settings: a.Settings,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%s analyst: %w", a.kind, err)
	}

	reply := resp.Message
	result := Result{Messages: []llm.Message{reply}}
	if len(reply.ToolCalls) == 0 {
		result.Report = reply.Content
	}
	return result, nil
}

// Run calls Node and executes the requested tools until the model writes
// its report. A turn is one model call; maxTurns <= 0 means DefaultMaxTurns.
//
// A failing tool does not stop the run: its error is sent back to the model
// as the tool result.
func (a *Analyst) Run(ctx context.Context, model llm.Model, state State, maxTurns int) (Result, error) {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	state.Messages = slices.Clone(state.Messages)
	var produced []llm.Message

	for turn := 1; turn <= maxTurns; turn++ {
		logging.Logger().Debug("Running analyst turn",
			slog.String("analyst", string(a.kind)),
			slog.String("ticker", state.Ticker),
			slog.Int("turn", turn))

		res, err := a.Node(ctx, model, state)
		if err != nil {
			return Result{}, err
		}
		reply := res.Messages[0]
		state.Messages = append(state.Messages, reply)
		produced = append(produced, reply)

		if len(reply.ToolCalls) == 0 {
			return Result{Messages: produced, Report: res.Report}, nil
		}

		for _, call := range reply.ToolCalls {
			msg, err := a.invokeTool(ctx, call)
			if err != nil {
				return Result{}, err
			}
			state.Messages = append(state.Messages, msg)
			produced = append(produced, msg)
		}
	}

	return Result{}, MaxTurnsExceededErrorf("%s analyst: max turns (%d) exceeded", a.kind, maxTurns)
}

func (a *Analyst) invokeTool(ctx context.Context, call llm.ToolCall) (llm.Message, error) {
	f, ok := a.registry.Get(call.Name)
	if !ok {
		return llm.Message{}, ModelBehaviorErrorf("%s analyst: tool %s not found", a.kind, call.Name)
	}

	out, err := f.Invoke(ctx, call.Arguments)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return llm.Message{}, ctxErr
		}
		out = fmt.Sprintf("Error running tool %s: %v", call.Name, err)
	}
	return llm.ToolMessage(call.ID, call.Name, out), nil
}
