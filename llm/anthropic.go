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

package llm

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/nlpodyssey/tradingagents-go/logging"
	"github.com/nlpodyssey/tradingagents-go/metrics"
	"github.com/nlpodyssey/tradingagents-go/modelsettings"
	"github.com/nlpodyssey/tradingagents-go/usage"
)

// DefaultAnthropicMaxTokens is used when the settings carry no MaxTokens,
// since the messages API requires one.
const DefaultAnthropicMaxTokens = 4096

// AnthropicModel talks to the Anthropic messages API.
type AnthropicModel struct {
	Model  anthropic.Model
	client anthropic.Client
}

type AnthropicModelParams struct {
	Model string

	// Optional base URL, e.g. for a proxy.
	BaseURL string

	// Optional API key. When empty, the client reads ANTHROPIC_API_KEY.
	APIKey string

	// Additional client options.
	Options []option.RequestOption
}

func NewAnthropicModel(params AnthropicModelParams) AnthropicModel {
	var opts []option.RequestOption
	if params.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(params.BaseURL))
	}
	if params.APIKey != "" {
		opts = append(opts, option.WithAPIKey(params.APIKey))
	}
	opts = append(opts, params.Options...)

	return AnthropicModel{
		Model:  anthropic.Model(params.Model),
		client: anthropic.NewClient(opts...),
	}
}

func (m AnthropicModel) GetResponse(ctx context.Context, req ModelRequest) (_ *ModelResponse, err error) {
	defer func() {
		metrics.ModelCalls.WithLabelValues("anthropic", metrics.Outcome(err)).Inc()
	}()

	params, err := m.prepareRequest(req)
	if err != nil {
		return nil, err
	}

	message, err := m.client.Messages.New(ctx, *params)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}
	if len(message.Content) == 0 {
		return nil, ErrEmptyResponse
	}

	if logging.DontLogModelData {
		logging.Logger().Debug("LLM responded")
	} else {
		logging.Logger().Debug("LLM responded", slog.String("message", message.RawJSON()))
	}

	out := Message{Role: RoleAssistant}
	var texts []string
	for _, block := range message.Content {
		switch block.Type {
		case "text":
			texts = append(texts, block.Text)
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}
	out.Content = strings.Join(texts, "\n")

	u := &usage.Usage{
		Requests:          1,
		InputTokens:       uint64(message.Usage.InputTokens),
		CachedInputTokens: uint64(message.Usage.CacheReadInputTokens),
		OutputTokens:      uint64(message.Usage.OutputTokens),
		TotalTokens:       uint64(message.Usage.InputTokens + message.Usage.OutputTokens),
	}
	usage.AddToContext(ctx, u)

	return &ModelResponse{Message: out, Usage: u}, nil
}

func (m AnthropicModel) prepareRequest(req ModelRequest) (*anthropic.MessageNewParams, error) {
	system, conversation := splitSystem(req.Messages)

	messages, err := anthropicMessages(conversation)
	if err != nil {
		return nil, err
	}

	settings := req.Settings
	params := &anthropic.MessageNewParams{
		Model:     m.Model,
		Messages:  messages,
		MaxTokens: cmp.Or(settings.MaxTokens.Value, DefaultAnthropicMaxTokens),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if settings.Temperature.Valid() {
		params.Temperature = anthropic.Float(settings.Temperature.Value)
	}
	if settings.TopP.Valid() {
		params.TopP = anthropic.Float(settings.TopP.Value)
	}

	useTools := len(req.Tools) > 0 && settings.ToolChoice != modelsettings.ToolChoiceNone
	if useTools {
		for _, t := range req.Tools {
			params.Tools = append(params.Tools, anthropicTool(t))
		}
		switch tc := settings.ToolChoice.(type) {
		case modelsettings.ToolChoiceString:
			if tc == modelsettings.ToolChoiceRequired {
				params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
			}
		case modelsettings.ToolChoiceFunction:
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: tc.Name}}
		}
	}

	if logging.DontLogModelData {
		logging.Logger().Debug("Calling LLM", slog.String("model", string(m.Model)))
	} else {
		logging.Logger().Debug(
			"Calling LLM",
			slog.String("model", string(m.Model)),
			slog.String("system", system),
			slog.String("messages", logging.PrettyJSON(conversation)),
			slog.String("tools", logging.PrettyJSON(req.Tools)),
		)
	}
	return params, nil
}

// anthropicMessages converts the conversation. Consecutive tool messages are
// merged into a single user message carrying one tool_result block each.
func anthropicMessages(conversation []Message) ([]anthropic.MessageParam, error) {
	var messages []anthropic.MessageParam
	var toolResults []anthropic.ContentBlockParamUnion

	flushToolResults := func() {
		if len(toolResults) > 0 {
			messages = append(messages, anthropic.NewUserMessage(toolResults...))
			toolResults = nil
		}
	}

	for _, msg := range conversation {
		if msg.Role == RoleTool {
			toolResults = append(toolResults, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))
			continue
		}
		flushToolResults()

		switch msg.Role {
		case RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, json.RawMessage(cmp.Or(tc.Arguments, "{}")), tc.Name))
			}
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		default:
			return nil, UserErrorf("unexpected message role %q", msg.Role)
		}
	}
	flushToolResults()
	return messages, nil
}

func anthropicTool(t ToolDefinition) anthropic.ToolUnionParam {
	schema := anthropic.ToolInputSchemaParam{
		Properties: t.Parameters["properties"],
	}
	if required, ok := t.Parameters["required"]; ok {
		schema.ExtraFields = map[string]any{"required": required}
	}
	tool := &anthropic.ToolParam{
		Name:        t.Name,
		InputSchema: schema,
	}
	if t.Description != "" {
		tool.Description = anthropic.String(t.Description)
	}
	return anthropic.ToolUnionParam{OfTool: tool}
}
