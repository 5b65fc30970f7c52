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

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMCPServer struct {
	tools   []*mcp.Tool
	calls   []map[string]any
	result  *mcp.CallToolResult
	callErr error
}

func (s *fakeMCPServer) Name() string { return "fake" }

func (s *fakeMCPServer) ListTools(context.Context) ([]*mcp.Tool, error) {
	return s.tools, nil
}

func (s *fakeMCPServer) CallTool(_ context.Context, _ string, arguments map[string]any) (*mcp.CallToolResult, error) {
	s.calls = append(s.calls, arguments)
	return s.result, s.callErr
}

func TestMCPTools(t *testing.T) {
	server := &fakeMCPServer{
		tools: []*mcp.Tool{{Name: "get_quote", Description: "Latest quote"}},
		result: &mcp.CallToolResult{Content: []mcp.Content{
			&mcp.TextContent{Text: "line 1"},
			&mcp.TextContent{Text: "line 2"},
		}},
	}

	fns, err := MCPTools(t.Context(), server)
	require.NoError(t, err)
	require.Len(t, fns, 1)

	fn := fns[0]
	assert.Equal(t, "get_quote", fn.Name)
	assert.Equal(t, "Latest quote", fn.Description)
	assert.Equal(t, map[string]any{}, fn.ParamsJSONSchema["properties"])

	out, err := fn.Invoke(t.Context(), `{"symbol":"AAPL"}`)
	require.NoError(t, err)
	assert.Equal(t, "line 1\nline 2", out)
	assert.Equal(t, []map[string]any{{"symbol": "AAPL"}}, server.calls)
}

func TestInvokeMCPTool(t *testing.T) {
	ctx := t.Context()

	t.Run("tool error result", func(t *testing.T) {
		server := &fakeMCPServer{result: &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: "rate limited"}},
		}}
		_, err := InvokeMCPTool(ctx, server, "x", "{}")
		assert.ErrorContains(t, err, "MCP tool x failed: rate limited")
	})

	t.Run("call error", func(t *testing.T) {
		server := &fakeMCPServer{callErr: errors.New("closed")}
		_, err := InvokeMCPTool(ctx, server, "x", "")
		assert.ErrorContains(t, err, "error invoking MCP tool x: closed")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := InvokeMCPTool(ctx, &fakeMCPServer{}, "x", "{")
		assert.ErrorContains(t, err, "invalid JSON input for tool x")
	})

}

func TestMCPClientSession_NotConnected(t *testing.T) {
	s := NewMCPClientSession("test", nil)
	assert.Equal(t, "test", s.Name())

	_, err := s.ListTools(t.Context())
	assert.ErrorContains(t, err, "make sure you call Connect() first")
	_, err = s.CallTool(t.Context(), "x", nil)
	assert.ErrorContains(t, err, "make sure you call Connect() first")
	assert.NoError(t, s.Close())
}
