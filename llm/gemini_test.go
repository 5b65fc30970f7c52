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
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nlpodyssey/tradingagents-go/modelsettings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiModel_GetResponse(t *testing.T) {
	var body map[string]any
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"candidates": [{
				"content": {
					"role": "model",
					"parts": [{"functionCall": {"name": "get_news", "args": {"ticker": "AAPL"}}}]
				},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 3, "candidatesTokenCount": 4, "totalTokenCount": 7}
		}`)
	}))
	t.Cleanup(server.Close)

	model, err := NewGeminiModel(t.Context(), GeminiModelParams{
		Model:       "gemini-2.0-flash",
		APIKey:      "test",
		HTTPOptions: genai.HTTPOptions{BaseURL: server.URL},
	})
	require.NoError(t, err)

	resp, err := model.GetResponse(t.Context(), ModelRequest{
		Messages: testConversation(),
		Tools:    testTools,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(path, "models/gemini-2.0-flash:generateContent"), path)
	assert.Contains(t, body, "systemInstruction")

	contents := body["contents"].([]any)
	require.Len(t, contents, 3)
	assert.Equal(t, "model", contents[1].(map[string]any)["role"])

	tools := body["tools"].([]any)
	require.Len(t, tools, 1)
	decls := tools[0].(map[string]any)["functionDeclarations"].([]any)
	assert.Equal(t, "get_news", decls[0].(map[string]any)["name"])

	require.Len(t, resp.Message.ToolCalls, 1)
	call := resp.Message.ToolCalls[0]
	assert.Equal(t, "call_0_get_news", call.ID)
	assert.Equal(t, "get_news", call.Name)
	assert.JSONEq(t, `{"ticker":"AAPL"}`, call.Arguments)
	assert.Equal(t, uint64(7), resp.Usage.TotalTokens)
}

func TestGeminiToolConfig(t *testing.T) {
	cfg := geminiToolConfig(nil)
	assert.Equal(t, genai.FunctionCallingConfigModeAuto, cfg.FunctionCallingConfig.Mode)

	cfg = geminiToolConfig(modelsettings.ToolChoiceNone)
	assert.Equal(t, genai.FunctionCallingConfigModeNone, cfg.FunctionCallingConfig.Mode)

	cfg = geminiToolConfig(modelsettings.ToolChoiceFunction{Name: "get_news"})
	assert.Equal(t, genai.FunctionCallingConfigModeAny, cfg.FunctionCallingConfig.Mode)
	assert.Equal(t, []string{"get_news"}, cfg.FunctionCallingConfig.AllowedFunctionNames)
}

func TestGeminiContent_InvalidArguments(t *testing.T) {
	_, err := geminiContent(AssistantMessage("", ToolCall{ID: "1", Name: "x", Arguments: "{"}))
	assert.ErrorContains(t, err, "invalid arguments for x")
}
