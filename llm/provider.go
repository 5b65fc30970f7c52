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
	"strings"
)

// ProviderParams selects and configures a chat model.
type ProviderParams struct {
	// One of "openai", "ollama", "openrouter", "anthropic", "google".
	// Case-insensitive. Defaults to "openai".
	Provider string

	Model string

	// Base URL of the provider API. Required for ollama and openrouter.
	BackendURL string

	// Optional API key. Each client falls back to its usual environment
	// variable when empty.
	APIKey string
}

// NewModel returns the Model for the configured provider.
func NewModel(ctx context.Context, params ProviderParams) (Model, error) {
	if params.Model == "" {
		return nil, NewUserError("model name is required")
	}

	provider := strings.ToLower(strings.TrimSpace(params.Provider))
	switch provider {
	case "", "openai", "ollama", "openrouter":
		return NewOpenAIChatCompletionsModel(OpenAIChatCompletionsModelParams{
			Provider: provider,
			Model:    params.Model,
			BaseURL:  params.BackendURL,
			APIKey:   params.APIKey,
		}), nil
	case "anthropic":
		return NewAnthropicModel(AnthropicModelParams{
			Model:   params.Model,
			BaseURL: anthropicBaseURL(params.BackendURL),
			APIKey:  params.APIKey,
		}), nil
	case "google":
		m, err := NewGeminiModel(ctx, GeminiModelParams{
			Model:  params.Model,
			APIKey: params.APIKey,
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, UserErrorf("unsupported LLM provider: %s", params.Provider)
	}
}

// anthropicBaseURL drops the OpenAI default backend URL, which is the
// configuration default and would be wrong for Anthropic.
func anthropicBaseURL(backendURL string) string {
	if strings.Contains(backendURL, "api.openai.com") {
		return ""
	}
	return backendURL
}
