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

// Package llm provides a small provider-neutral chat model abstraction with
// tool calling, backed by OpenAI-compatible chat completions, Anthropic
// messages and Gemini.
package llm

import (
	"context"

	"github.com/nlpodyssey/tradingagents-go/modelsettings"
	"github.com/nlpodyssey/tradingagents-go/usage"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// A Message is one entry of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`

	// Tool calls requested by an assistant message.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// For tool messages, the ID of the call this message answers and the
	// name of the tool that produced it.
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// ToolCall is a function call requested by the model.
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// JSON-encoded arguments.
	Arguments string `json:"arguments"`
}

// ToolDefinition describes a function the model may call.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string, toolCalls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

func ToolMessage(toolCallID, name, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID, Name: name}
}

type ModelRequest struct {
	Messages []Message
	Tools    []ToolDefinition
	Settings modelsettings.ModelSettings
}

type ModelResponse struct {
	// The assistant reply. Its ToolCalls are set when the model asked for
	// tools to be run instead of answering.
	Message Message

	// Token usage of this single call.
	Usage *usage.Usage
}

// Model is the interface implemented by every chat model provider.
type Model interface {
	// GetResponse sends the whole conversation and returns the next
	// assistant message.
	GetResponse(ctx context.Context, req ModelRequest) (*ModelResponse, error)
}

// splitSystem separates system messages, joined by blank lines, from the rest
// of the conversation. Providers with a dedicated system field use it.
func splitSystem(messages []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role != RoleSystem {
			rest = append(rest, m)
			continue
		}
		if system != "" {
			system += "\n\n"
		}
		system += m.Content
	}
	return system, rest
}

