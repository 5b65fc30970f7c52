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

package agentstesting

import (
	"context"
	"reflect"
	"sync"

	"github.com/nlpodyssey/tradingagents-go/llm"
	"github.com/nlpodyssey/tradingagents-go/modelsettings"
	"github.com/nlpodyssey/tradingagents-go/usage"
)

type FakeModel struct {
	TurnOutputs    []FakeModelTurnOutput
	LastTurnArgs   FakeModelLastTurnArgs
	AllTurnArgs    []FakeModelLastTurnArgs
	HardcodedUsage *usage.Usage
	mu             sync.Mutex
}

type FakeModelTurnOutput struct {
	Value llm.Message
	Error error
}

type FakeModelLastTurnArgs struct {
	Messages      []llm.Message
	Tools         []llm.ToolDefinition
	ModelSettings modelsettings.ModelSettings
}

func NewFakeModel(initialOutput *FakeModelTurnOutput) *FakeModel {
	var turnOutputs []FakeModelTurnOutput
	if initialOutput != nil && !reflect.ValueOf(*initialOutput).IsZero() {
		turnOutputs = []FakeModelTurnOutput{*initialOutput}
	}
	return &FakeModel{TurnOutputs: turnOutputs}
}

func (m *FakeModel) SetHardcodedUsage(u usage.Usage) {
	m.HardcodedUsage = &u
}

func (m *FakeModel) SetNextOutput(output FakeModelTurnOutput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TurnOutputs = append(m.TurnOutputs, output)
}

func (m *FakeModel) AddMultipleTurnOutputs(outputs []FakeModelTurnOutput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TurnOutputs = append(m.TurnOutputs, outputs...)
}

func (m *FakeModel) GetNextOutput() FakeModelTurnOutput {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.TurnOutputs) == 0 {
		return FakeModelTurnOutput{Value: llm.AssistantMessage("")}
	}
	v := m.TurnOutputs[0]
	m.TurnOutputs = m.TurnOutputs[1:]
	return v
}

func (m *FakeModel) GetResponse(ctx context.Context, req llm.ModelRequest) (*llm.ModelResponse, error) {
	args := FakeModelLastTurnArgs{
		Messages:      append([]llm.Message(nil), req.Messages...),
		Tools:         req.Tools,
		ModelSettings: req.Settings,
	}
	m.mu.Lock()
	m.LastTurnArgs = args
	m.AllTurnArgs = append(m.AllTurnArgs, args)
	m.mu.Unlock()

	output := m.GetNextOutput()
	if output.Error != nil {
		return nil, output.Error
	}

	u := m.HardcodedUsage
	if u == nil {
		u = &usage.Usage{Requests: 1}
	}
	usage.AddToContext(ctx, u)

	msg := output.Value
	if msg.Role == "" {
		msg.Role = llm.RoleAssistant
	}
	return &llm.ModelResponse{Message: msg, Usage: u}, nil
}
