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
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nlpodyssey/tradingagents-go/logging"
	"github.com/nlpodyssey/tradingagents-go/metrics"
	"github.com/nlpodyssey/tradingagents-go/modelsettings"
	"github.com/nlpodyssey/tradingagents-go/usage"
	"google.golang.org/genai"
)

// GeminiModel talks to the Gemini API through the genai client.
type GeminiModel struct {
	Model  string
	client *genai.Client
}

type GeminiModelParams struct {
	Model string

	// Optional API key. When empty, the client reads GOOGLE_API_KEY or
	// GEMINI_API_KEY.
	APIKey string

	// Optional HTTP options, e.g. a custom base URL.
	HTTPOptions genai.HTTPOptions
}

func NewGeminiModel(ctx context.Context, params GeminiModelParams) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      params.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: params.HTTPOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiModel{Model: params.Model, client: client}, nil
}

func (m *GeminiModel) GetResponse(ctx context.Context, req ModelRequest) (_ *ModelResponse, err error) {
	defer func() {
		metrics.ModelCalls.WithLabelValues("google", metrics.Outcome(err)).Inc()
	}()

	contents, config, err := m.prepareRequest(req)
	if err != nil {
		return nil, err
	}

	result, err := m.client.Models.GenerateContent(ctx, m.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(result.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}

	if logging.DontLogModelData {
		logging.Logger().Debug("LLM responded")
	} else {
		logging.Logger().Debug("LLM responded", slog.String("message", logging.PrettyJSON(result.Candidates[0].Content)))
	}

	out := Message{Role: RoleAssistant, Content: result.Text()}
	for i, fc := range result.FunctionCalls() {
		args, err := json.Marshal(fc.Args)
		if err != nil {
			return nil, fmt.Errorf("failed to encode arguments of %s: %w", fc.Name, err)
		}
		id := fc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d_%s", i, fc.Name)
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{ID: id, Name: fc.Name, Arguments: string(args)})
	}

	u := &usage.Usage{Requests: 1}
	if md := result.UsageMetadata; md != nil {
		u.InputTokens = uint64(md.PromptTokenCount)
		u.CachedInputTokens = uint64(md.CachedContentTokenCount)
		u.OutputTokens = uint64(md.CandidatesTokenCount)
		u.ReasoningTokens = uint64(md.ThoughtsTokenCount)
		u.TotalTokens = uint64(md.TotalTokenCount)
	}
	usage.AddToContext(ctx, u)

	return &ModelResponse{Message: out, Usage: u}, nil
}

func (m *GeminiModel) prepareRequest(req ModelRequest) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	system, conversation := splitSystem(req.Messages)

	contents := make([]*genai.Content, 0, len(conversation))
	for _, msg := range conversation {
		c, err := geminiContent(msg)
		if err != nil {
			return nil, nil, err
		}
		contents = append(contents, c)
	}

	settings := req.Settings
	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if settings.Temperature.Valid() {
		config.Temperature = genai.Ptr(float32(settings.Temperature.Value))
	}
	if settings.TopP.Valid() {
		config.TopP = genai.Ptr(float32(settings.TopP.Value))
	}
	if settings.MaxTokens.Valid() {
		config.MaxOutputTokens = int32(settings.MaxTokens.Value)
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, len(req.Tools))
		for i, t := range req.Tools {
			decls[i] = &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: t.Parameters,
			}
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		config.ToolConfig = geminiToolConfig(settings.ToolChoice)
	}

	if logging.DontLogModelData {
		logging.Logger().Debug("Calling LLM", slog.String("model", m.Model))
	} else {
		logging.Logger().Debug(
			"Calling LLM",
			slog.String("model", m.Model),
			slog.String("system", system),
			slog.String("messages", logging.PrettyJSON(conversation)),
			slog.String("tools", logging.PrettyJSON(req.Tools)),
		)
	}
	return contents, config, nil
}

func geminiContent(msg Message) (*genai.Content, error) {
	switch msg.Role {
	case RoleUser:
		return genai.NewContentFromText(msg.Content, genai.RoleUser), nil
	case RoleAssistant:
		var parts []*genai.Part
		if msg.Content != "" {
			parts = append(parts, genai.NewPartFromText(msg.Content))
		}
		for _, tc := range msg.ToolCalls {
			var args map[string]any
			if tc.Arguments != "" {
				if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
					return nil, fmt.Errorf("invalid arguments for %s: %w", tc.Name, err)
				}
			}
			parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args}})
		}
		return genai.NewContentFromParts(parts, genai.RoleModel), nil
	case RoleTool:
		return genai.NewContentFromParts([]*genai.Part{{
			FunctionResponse: &genai.FunctionResponse{
				ID:       msg.ToolCallID,
				Name:     msg.Name,
				Response: map[string]any{"output": msg.Content},
			},
		}}, genai.RoleUser), nil
	default:
		return nil, UserErrorf("unexpected message role %q", msg.Role)
	}
}

func geminiToolConfig(toolChoice modelsettings.ToolChoice) *genai.ToolConfig {
	cfg := &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAuto}
	switch tc := toolChoice.(type) {
	case modelsettings.ToolChoiceString:
		switch tc {
		case modelsettings.ToolChoiceRequired:
			cfg.Mode = genai.FunctionCallingConfigModeAny
		case modelsettings.ToolChoiceNone:
			cfg.Mode = genai.FunctionCallingConfigModeNone
		}
	case modelsettings.ToolChoiceFunction:
		cfg.Mode = genai.FunctionCallingConfigModeAny
		cfg.AllowedFunctionNames = []string{tc.Name}
	}
	return &genai.ToolConfig{FunctionCallingConfig: cfg}
}
