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
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/nlpodyssey/tradingagents-go/logging"
	"github.com/nlpodyssey/tradingagents-go/metrics"
)

const (
	// GoogleAPIKeyEnv is the environment variable holding the Google API key.
	GoogleAPIKeyEnv = "GOOGLE_API_KEY"

	DefaultGoogleBaseURL = "https://generativelanguage.googleapis.com/v1"

	googleRequestTimeout = 30 * time.Second
)

// GoogleEmbedder calls the embedContent method of the Generative Language API
// directly over HTTPS.
//
// The API key is read from GOOGLE_API_KEY on every call, so a missing key
// surfaces as ErrMissingAPIKey the first time an embedding is needed.
type GoogleEmbedder struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

type GoogleEmbedderParams struct {
	// Optional embedding model. Defaults to "text-embedding-004".
	Model string

	// Optional API base URL. Defaults to DefaultGoogleBaseURL.
	BaseURL string

	// Optional HTTP client. Defaults to a client with a 30 seconds timeout.
	HTTPClient *http.Client
}

func NewGoogleEmbedder(params GoogleEmbedderParams) *GoogleEmbedder {
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: googleRequestTimeout}
	}
	return &GoogleEmbedder{
		model:      cmp.Or(params.Model, DefaultGoogleModel),
		baseURL:    strings.TrimSuffix(cmp.Or(params.BaseURL, DefaultGoogleBaseURL), "/"),
		httpClient: httpClient,
	}
}

func (e *GoogleEmbedder) Model() string { return e.model }

type googleEmbedRequest struct {
	Content googleContent `json:"content"`
}

type googleContent struct {
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
		Value  []float32 `json:"value"`
	} `json:"embedding"`
}

func (e *GoogleEmbedder) Embed(ctx context.Context, text string) (_ []float32, err error) {
	defer func() {
		metrics.EmbeddingRequests.WithLabelValues(string(ProviderGoogle), metrics.Outcome(err)).Inc()
	}()

	apiKey := os.Getenv(GoogleAPIKeyEnv)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(googleEmbedRequest{
		Content: googleContent{Parts: []googlePart{{Text: text}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to JSON-marshal google embeddings request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:embedContent", e.baseURL, url.PathEscape(e.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create google embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	logging.Logger().Debug("Requesting embedding",
		slog.String("provider", string(ProviderGoogle)),
		slog.String("model", e.model),
		slog.Int("text_len", len(text)))

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google embeddings request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read google embeddings response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError(resp.StatusCode, respBody)
	}

	var data googleEmbedResponse
	if err = json.Unmarshal(respBody, &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}

	switch {
	case len(data.Embedding.Values) > 0:
		return data.Embedding.Values, nil
	case data.Embedding.Value != nil:
		return data.Embedding.Value, nil
	default:
		return nil, ErrUnexpectedResponse
	}
}
