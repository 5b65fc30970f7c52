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

// Package embedding turns text into vectors through an OpenAI-compatible
// embeddings endpoint or Google's Generative Language API.
package embedding

import (
	"cmp"
	"context"
	"strings"
)

// An Embedder computes the embedding vector of a single text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderOllama     Provider = "ollama"
	ProviderGoogle     Provider = "google"
	ProviderAnthropic  Provider = "anthropic"
	ProviderOpenRouter Provider = "openrouter"
)

// OllamaBackendURL is the OpenAI-compatible endpoint exposed by a local Ollama.
const OllamaBackendURL = "http://localhost:11434/v1"

const (
	DefaultOllamaModel = "nomic-embed-text"
	DefaultGoogleModel = "text-embedding-004"
	DefaultOpenAIModel = "text-embedding-3-small"
)

// NormalizeProvider lower-cases the provider name. An empty name means OpenAI.
func NormalizeProvider(provider string) Provider {
	return Provider(cmp.Or(strings.ToLower(strings.TrimSpace(provider)), string(ProviderOpenAI)))
}

// ResolveModel picks the embedding model for a provider.
//
// An explicitly configured model always wins. Otherwise Ollama (by provider
// name or by its well-known backend URL) uses nomic-embed-text, Google uses
// text-embedding-004 and everything else text-embedding-3-small.
func ResolveModel(provider Provider, backendURL, configuredModel string) string {
	switch {
	case configuredModel != "":
		return configuredModel
	case provider == ProviderOllama || backendURL == OllamaBackendURL:
		return DefaultOllamaModel
	case provider == ProviderGoogle:
		return DefaultGoogleModel
	default:
		return DefaultOpenAIModel
	}
}

type Params struct {
	// LLM provider name, e.g. "openai", "ollama", "google".
	// Defaults to "openai".
	Provider string

	// Base URL of the OpenAI-compatible API. Ignored for Google.
	BackendURL string

	// Optional embedding model. When empty, ResolveModel chooses one.
	Model string

	// Optional API key for the OpenAI-compatible client.
	// When empty, the client reads OPENAI_API_KEY.
	APIKey string
}

// New returns the Embedder matching the configured provider: Google goes
// through GoogleEmbedder, every other provider through the OpenAI-compatible
// client.
func New(params Params) Embedder {
	provider := NormalizeProvider(params.Provider)
	model := ResolveModel(provider, params.BackendURL, params.Model)

	if provider == ProviderGoogle {
		return NewGoogleEmbedder(GoogleEmbedderParams{Model: model})
	}
	return NewOpenAIEmbedder(OpenAIEmbedderParams{
		Provider: provider,
		Model:    model,
		BaseURL:  params.BackendURL,
		APIKey:   params.APIKey,
	})
}
