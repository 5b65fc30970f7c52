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

package embedding

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nlpodyssey/tradingagents-go/logging"
	"github.com/nlpodyssey/tradingagents-go/metrics"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAIEmbedder calls the embeddings endpoint of any OpenAI-compatible API
// (OpenAI itself, Ollama, OpenRouter, ...).
type OpenAIEmbedder struct {
	provider Provider
	model    string
	client   openai.Client
}

type OpenAIEmbedderParams struct {
	// Provider name, only used for logs and metrics.
	Provider Provider

	// Embedding model name.
	Model string

	// Optional base URL of the API. Defaults to the OpenAI one.
	BaseURL string

	// Optional API key. When empty, the client reads OPENAI_API_KEY.
	APIKey string

	// Optional additional client options.
	Options []option.RequestOption
}

func NewOpenAIEmbedder(params OpenAIEmbedderParams) *OpenAIEmbedder {
	var opts []option.RequestOption
	if params.BaseURL != "" {
		baseURL := params.BaseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if params.APIKey != "" {
		opts = append(opts, option.WithAPIKey(params.APIKey))
	}
	opts = append(opts, params.Options...)

	provider := params.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}
	return &OpenAIEmbedder{
		provider: provider,
		model:    cmp.Or(params.Model, DefaultOpenAIModel),
		client:   openai.NewClient(opts...),
	}
}

func (e *OpenAIEmbedder) Model() string { return e.model }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (_ []float32, err error) {
	defer func() {
		metrics.EmbeddingRequests.WithLabelValues(string(e.provider), metrics.Outcome(err)).Inc()
	}()

	logging.Logger().Debug("Requesting embedding",
		slog.String("provider", string(e.provider)),
		slog.String("model", e.model),
		slog.Int("text_len", len(text)))

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("%s embeddings request failed: %w", e.provider, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%s embeddings: %w", e.provider, ErrUnexpectedResponse)
	}
	return toFloat32(resp.Data[0].Embedding), nil
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}
