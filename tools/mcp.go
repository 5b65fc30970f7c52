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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nlpodyssey/tradingagents-go/logging"
)

// MCPServer is the subset of an MCP client session needed to expose the
// server's tools as Functions.
type MCPServer interface {
	Name() string
	ListTools(context.Context) ([]*mcp.Tool, error)
	CallTool(ctx context.Context, toolName string, arguments map[string]any) (*mcp.CallToolResult, error)
}

// MCPClientSession is an MCPServer backed by an mcp.ClientSession.
type MCPClientSession struct {
	name      string
	transport mcp.Transport
	session   *mcp.ClientSession
	mu        sync.Mutex
}

func NewMCPClientSession(name string, transport mcp.Transport) *MCPClientSession {
	return &MCPClientSession{name: name, transport: transport}
}

// NewMCPServerStdio runs the MCP server as a subprocess and talks to it over
// stdin/stdout.
func NewMCPServerStdio(name string, cmd *exec.Cmd) *MCPClientSession {
	return NewMCPClientSession(name, mcp.NewCommandTransport(cmd))
}

func (s *MCPClientSession) Name() string { return s.name }

func (s *MCPClientSession) Connect(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			logging.Logger().Error("Error initializing MCP server", slog.String("error", err.Error()))
			if e := s.Close(); e != nil {
				err = errors.Join(err, fmt.Errorf("MCP server cleanup error: %w", e))
			}
		}
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: s.name}, nil)
	session, err := client.Connect(ctx, s.transport)
	if err != nil {
		return fmt.Errorf("MCP client connection error: %w", err)
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
	return nil
}

func (s *MCPClientSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	return err
}

func (s *MCPClientSession) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	session, err := s.current()
	if err != nil {
		return nil, err
	}
	res, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("MCP list tools error: %w", err)
	}
	return res.Tools, nil
}

func (s *MCPClientSession) CallTool(ctx context.Context, toolName string, arguments map[string]any) (*mcp.CallToolResult, error) {
	session, err := s.current()
	if err != nil {
		return nil, err
	}
	return session.CallTool(ctx, &mcp.CallToolParams{
		Name:      toolName,
		Arguments: arguments,
	})
}

func (s *MCPClientSession) current() (*mcp.ClientSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, errors.New("MCP server not initialized: make sure you call Connect() first")
	}
	return s.session, nil
}

// MCPTools lists the tools of server and wraps each of them in a Function.
func MCPTools(ctx context.Context, server MCPServer) ([]Function, error) {
	mcpTools, err := server.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	fns := make([]Function, len(mcpTools))
	for i, tool := range mcpTools {
		fn, err := MCPToolToFunction(tool, server)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
	}
	return fns, nil
}

// MCPToolToFunction converts an MCP tool to a Function.
func MCPToolToFunction(tool *mcp.Tool, server MCPServer) (Function, error) {
	var schema map[string]any
	if tool.InputSchema != nil {
		b, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return Function{}, fmt.Errorf("failed to convert MCP tool input schema to map: %w", err)
		}
		if err = json.Unmarshal(b, &schema); err != nil {
			return Function{}, fmt.Errorf("failed to convert MCP tool input schema to map: %w", err)
		}
	}
	if schema == nil {
		schema = map[string]any{"type": "object"}
	}
	// MCP doesn't require the inputSchema to have `properties`, but OpenAI does.
	if _, ok := schema["properties"]; !ok {
		schema["properties"] = map[string]any{}
	}

	return Function{
		Name:             tool.Name,
		Description:      tool.Description,
		ParamsJSONSchema: schema,
		OnInvokeTool: func(ctx context.Context, arguments string) (string, error) {
			return InvokeMCPTool(ctx, server, tool.Name, arguments)
		},
	}, nil
}

// InvokeMCPTool calls the tool and joins its text content. Non-text content
// is JSON-encoded.
func InvokeMCPTool(ctx context.Context, server MCPServer, toolName, arguments string) (string, error) {
	var args map[string]any
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", ArgumentsErrorf("invalid JSON input for tool %s: %w", toolName, err)
		}
	}

	result, err := server.CallTool(ctx, toolName, args)
	if err != nil {
		return "", fmt.Errorf("error invoking MCP tool %s: %w", toolName, err)
	}

	parts := make([]string, 0, len(result.Content))
	for _, c := range result.Content {
		if text, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
			continue
		}
		b, err := json.Marshal(c)
		if err != nil {
			return "", fmt.Errorf("failed to JSON-marshal result content of MCP tool %s: %w", toolName, err)
		}
		parts = append(parts, string(b))
	}
	output := strings.Join(parts, "\n")

	if result.IsError {
		return "", fmt.Errorf("MCP tool %s failed: %s", toolName, output)
	}
	return output, nil
}
