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

package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stockArgs struct {
	Symbol    string `json:"symbol" jsonschema:"description=Ticker symbol of the company"`
	StartDate string `json:"start_date" jsonschema:"description=Start date in yyyy-mm-dd format"`
	LookBack  int    `json:"look_back_days,omitempty"`
}

type stockResult struct {
	Rows int `json:"rows"`
}

func TestNewFunctionTool_Schema(t *testing.T) {
	tool := NewFunctionTool("get_stock_data", "Retrieve stock price data",
		func(_ context.Context, args stockArgs) (string, error) { return args.Symbol, nil })

	assert.Equal(t, "get_stock_data", tool.Name)
	assert.Equal(t, "Retrieve stock price data", tool.Description)

	schema := tool.ParamsJSONSchema
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.ElementsMatch(t, []any{"symbol", "start_date"}, schema["required"])
	assert.NotContains(t, schema, "$schema")

	props := schema["properties"].(map[string]any)
	assert.Contains(t, props, "symbol")
	assert.Contains(t, props, "look_back_days")
	assert.Equal(t, "Ticker symbol of the company", props["symbol"].(map[string]any)["description"])

	def := tool.Definition()
	assert.Equal(t, tool.Name, def.Name)
	assert.Equal(t, tool.Description, def.Description)
	assert.Equal(t, schema, def.Parameters)
}

func TestFunction_Invoke(t *testing.T) {
	ctx := t.Context()

	t.Run("string result is returned as-is", func(t *testing.T) {
		tool := NewFunctionTool("echo", "",
			func(_ context.Context, args stockArgs) (string, error) { return args.Symbol + "@" + args.StartDate, nil })
		out, err := tool.Invoke(ctx, `{"symbol":"NVDA","start_date":"2024-05-10"}`)
		require.NoError(t, err)
		assert.Equal(t, "NVDA@2024-05-10", out)
	})

	t.Run("other results are JSON-encoded", func(t *testing.T) {
		tool := NewFunctionTool("count", "",
			func(_ context.Context, args stockArgs) (stockResult, error) { return stockResult{Rows: args.LookBack}, nil })
		out, err := tool.Invoke(ctx, `{"symbol":"NVDA","start_date":"2024-05-10","look_back_days":7}`)
		require.NoError(t, err)
		assert.JSONEq(t, `{"rows":7}`, out)
	})

	t.Run("missing required argument", func(t *testing.T) {
		tool := NewFunctionTool("echo", "",
			func(_ context.Context, args stockArgs) (string, error) { return "", nil })
		_, err := tool.Invoke(ctx, `{"symbol":"NVDA"}`)
		assert.ErrorContains(t, err, "invalid arguments for tool echo")
		assert.ErrorContains(t, err, "start_date")
	})

	t.Run("unknown argument", func(t *testing.T) {
		tool := NewFunctionTool("echo", "",
			func(_ context.Context, args stockArgs) (string, error) { return "", nil })
		_, err := tool.Invoke(ctx, `{"symbol":"NVDA","start_date":"x","extra":1}`)
		assert.Error(t, err)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		tool := NewFunctionTool("echo", "",
			func(_ context.Context, args stockArgs) (string, error) { return "", nil })
		_, err := tool.Invoke(ctx, `{"symbol":`)
		assert.Error(t, err)
	})

	t.Run("handler error", func(t *testing.T) {
		boom := errors.New("boom")
		tool := NewFunctionTool("echo", "",
			func(_ context.Context, args stockArgs) (string, error) { return "", boom })
		_, err := tool.Invoke(ctx, `{"symbol":"NVDA","start_date":"x"}`)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("empty arguments", func(t *testing.T) {
		tool := Function{
			Name: "noargs",
			OnInvokeTool: func(_ context.Context, arguments string) (string, error) {
				return arguments, nil
			},
		}
		out, err := tool.Invoke(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, "{}", out)
	})
}

func TestRegistry(t *testing.T) {
	a := Function{Name: "a"}
	b := Function{Name: "b"}

	r, err := NewRegistry(a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, r.Names())

	got, ok := r.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "b", got.Name)
	_, ok = r.Get("c")
	assert.False(t, ok)

	sub, err := r.Subset("b", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, []string{sub[0].Name, sub[1].Name})

	_, err = r.Subset("c")
	assert.ErrorContains(t, err, `tool "c" is not registered`)

	assert.ErrorContains(t, r.Add(a), `duplicate tool name "a"`)
	assert.ErrorContains(t, r.Add(Function{}), "tool name is required")

	defs := Definitions(sub)
	require.Len(t, defs, 2)
	assert.Equal(t, "b", defs[0].Name)

	require.NoError(t, r.Override(Function{Name: "a", Description: "remote a"}, Function{Name: "c"}))
	assert.Equal(t, []string{"a", "b", "c"}, r.Names())
	got, _ = r.Get("a")
	assert.Equal(t, "remote a", got.Description)
}
