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
	"context"
	"fmt"
	"log/slog"

	"github.com/nlpodyssey/tradingagents-go/logging"
	"github.com/nlpodyssey/tradingagents-go/metrics"
	"github.com/nlpodyssey/tradingagents-go/modelsettings"
	"github.com/nlpodyssey/tradingagents-go/usage"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/param"
	"github.com/openai/openai-go/v2/shared/constant"
)

// OpenAIChatCompletionsModel talks to any OpenAI-compatible chat completions
// endpoint: OpenAI itself, a local Ollama or OpenRouter.
type OpenAIChatCompletionsModel struct {
	Model    openai.ChatModel
	provider string
	client   openai.Client
}

type OpenAIChatCompletionsModelParams struct {
	// Provider name used in logs and metrics. Defaults to "openai".
	Provider string

	Model string

	// Optional base URL. Defaults to the client's default (api.openai.com).
	BaseURL string

	// Optional API key. When empty, the client reads OPENAI_API_KEY.
	APIKey string

	// Additional client options.
	Options []option.RequestOption
}

func NewOpenAIChatCompletionsModel(params OpenAIChatCompletionsModelParams) OpenAIChatCompletionsModel {
	var opts []option.RequestOption
	if params.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(params.BaseURL))
	}
	if params.APIKey != "" {
		opts = append(opts, option.WithAPIKey(params.APIKey))
	}
	opts = append(opts, params.Options...)

	provider := params.Provider
	if provider == "" {
		provider = "openai"
	}
	return OpenAIChatCompletionsModel{
		Model:    openai.ChatModel(params.Model),
		provider: provider,
		client:   openai.NewClient(opts...),
	}
}

func (m OpenAIChatCompletionsModel) GetResponse(ctx context.Context, req ModelRequest) (_ *ModelResponse, err error) {
	defer func() {
		metrics.ModelCalls.WithLabelValues(m.provider, metrics.Outcome(err)).Inc()
	}()

	body, opts, err := m.prepareRequest(req)
	if err != nil {
		return nil, err
	}

	response, err := m.client.Chat.Completions.New(ctx, *body, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s chat completion failed: %w", m.provider, err)
	}
	if len(response.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	msg := response.Choices[0].Message

	if logging.DontLogModelData {
		logging.Logger().Debug("LLM responded")
	} else {
		logging.Logger().Debug("LLM responded", slog.String("message", logging.PrettyJSON(msg)))
	}

	u := &usage.Usage{
		Requests:          1,
		InputTokens:       uint64(response.Usage.PromptTokens),
		CachedInputTokens: uint64(response.Usage.PromptTokensDetails.CachedTokens),
		OutputTokens:      uint64(response.Usage.CompletionTokens),
		ReasoningTokens:   uint64(response.Usage.CompletionTokensDetails.ReasoningTokens),
		TotalTokens:       uint64(response.Usage.TotalTokens),
	}
	usage.AddToContext(ctx, u)

	out := Message{Role: RoleAssistant, Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return &ModelResponse{Message: out, Usage: u}, nil
}

func (m OpenAIChatCompletionsModel) prepareRequest(req ModelRequest) (*openai.ChatCompletionNewParams, []option.RequestOption, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		converted, err := openAIMessage(msg)
		if err != nil {
			return nil, nil, err
		}
		messages = append(messages, converted)
	}

	tools := make([]openai.ChatCompletionToolUnionParam, len(req.Tools))
	for i, t := range req.Tools {
		def := openai.FunctionDefinitionParam{
			Name:       t.Name,
			Parameters: openai.FunctionParameters(t.Parameters),
		}
		if t.Description != "" {
			def.Description = openai.String(t.Description)
		}
		tools[i] = openai.ChatCompletionFunctionTool(def)
	}

	settings := req.Settings
	toolChoice, err := openAIToolChoice(settings.ToolChoice)
	if err != nil {
		return nil, nil, err
	}

	var parallelToolCalls param.Opt[bool]
	if settings.ParallelToolCalls.Valid() && len(tools) > 0 {
		parallelToolCalls = settings.ParallelToolCalls
	}

	if logging.DontLogModelData {
		logging.Logger().Debug("Calling LLM", slog.String("model", string(m.Model)))
	} else {
		logging.Logger().Debug(
			"Calling LLM",
			slog.String("model", string(m.Model)),
			slog.String("messages", logging.PrettyJSON(req.Messages)),
			slog.String("tools", logging.PrettyJSON(req.Tools)),
		)
	}

	params := &openai.ChatCompletionNewParams{
		Model:               m.Model,
		Messages:            messages,
		Tools:               tools,
		Temperature:         settings.Temperature,
		TopP:                settings.TopP,
		MaxCompletionTokens: settings.MaxTokens,
		ToolChoice:          toolChoice,
		ParallelToolCalls:   parallelToolCalls,
	}
	if settings.ReasoningEffort.Valid() {
		params.ReasoningEffort = openai.ReasoningEffort(settings.ReasoningEffort.Value)
	}

	var opts []option.RequestOption
	for k, v := range settings.ExtraHeaders {
		opts = append(opts, option.WithHeader(k, v))
	}
	return params, opts, nil
}

func openAIMessage(msg Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch msg.Role {
	case RoleSystem:
		return openai.SystemMessage(msg.Content), nil
	case RoleUser:
		return openai.UserMessage(msg.Content), nil
	case RoleTool:
		return openai.ToolMessage(msg.Content, msg.ToolCallID), nil
	case RoleAssistant:
		assistant := &openai.ChatCompletionAssistantMessageParam{}
		if msg.Content != "" {
			assistant.Content.OfString = openai.String(msg.Content)
		}
		for _, tc := range msg.ToolCalls {
			assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				},
			})
		}
		return openai.ChatCompletionMessageParamUnion{OfAssistant: assistant}, nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, UserErrorf("unexpected message role %q", msg.Role)
	}
}

func openAIToolChoice(toolChoice modelsettings.ToolChoice) (openai.ChatCompletionToolChoiceOptionUnionParam, error) {
	switch toolChoice := toolChoice.(type) {
	case nil:
		return openai.ChatCompletionToolChoiceOptionUnionParam{}, nil
	case modelsettings.ToolChoiceString:
		return openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: param.NewOpt(toolChoice.String()),
		}, nil
	case modelsettings.ToolChoiceFunction:
		return openai.ChatCompletionToolChoiceOptionUnionParam{
			OfFunctionToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{
					Name: toolChoice.Name,
				},
				Type: constant.ValueOf[constant.Function](),
			},
		}, nil
	default:
		return openai.ChatCompletionToolChoiceOptionUnionParam{}, UserErrorf("unexpected ToolChoice type %T", toolChoice)
	}
}
