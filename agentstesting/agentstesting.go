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

package agentstesting

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nlpodyssey/tradingagents-go/llm"
	"github.com/nlpodyssey/tradingagents-go/tools"
)

func GetTextMessage(content string) llm.Message {
	return llm.AssistantMessage(content)
}

func GetToolCallMessage(id, name, arguments string) llm.Message {
	return llm.AssistantMessage("", llm.ToolCall{ID: id, Name: name, Arguments: arguments})
}

func GetFunctionTool(name string, returnValue string) tools.Function {
	return tools.Function{
		Name: name,
		ParamsJSONSchema: map[string]any{
			"title":                name + "_args",
			"type":                 "object",
			"required":             []string{},
			"additionalProperties": false,
			"properties":           map[string]any{},
		},
		OnInvokeTool: func(context.Context, string) (string, error) {
			return returnValue, nil
		},
	}
}

func GetFunctionToolErr(name string, returnErr error) tools.Function {
	f := GetFunctionTool(name, "")
	f.OnInvokeTool = func(context.Context, string) (string, error) {
		return "", returnErr
	}
	return f
}

// FakeMCPServer is an in-process tools.MCPServer.
type FakeMCPServer struct {
	name        string
	Tools       []*mcp.Tool
	ToolCalls   []string
	ToolResults []string
}

func NewFakeMCPServer(name string) *FakeMCPServer {
	if name == "" {
		name = "fake_mcp_server"
	}
	return &FakeMCPServer{name: name}
}

func (s *FakeMCPServer) AddTool(name, description string) {
	s.Tools = append(s.Tools, &mcp.Tool{Name: name, Description: description})
}

func (s *FakeMCPServer) Name() string { return s.name }

func (s *FakeMCPServer) ListTools(context.Context) ([]*mcp.Tool, error) {
	return s.Tools, nil
}

func (s *FakeMCPServer) CallTool(_ context.Context, toolName string, arguments map[string]any) (*mcp.CallToolResult, error) {
	s.ToolCalls = append(s.ToolCalls, toolName)
	b, err := json.Marshal(arguments)
	if err != nil {
		return nil, err
	}
	result := fmt.Sprintf("result_%s_%s", toolName, string(b))
	s.ToolResults = append(s.ToolResults, result)
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: result}}}, nil
}
