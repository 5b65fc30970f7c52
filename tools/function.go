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
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/nlpodyssey/tradingagents-go/llm"
	"github.com/nlpodyssey/tradingagents-go/logging"
	"github.com/nlpodyssey/tradingagents-go/metrics"
	"github.com/xeipuuv/gojsonschema"
)

// ArgumentsError is returned when the arguments sent by the model for a
// tool call are not valid JSON or do not match the tool's schema.
type ArgumentsError error

func NewArgumentsError(message string) ArgumentsError {
	return ArgumentsError(errors.New(message))
}

func ArgumentsErrorf(format string, a ...any) ArgumentsError {
	return ArgumentsError(fmt.Errorf(format, a...))
}

// Function Tool that wraps a function.
type Function struct {
	// The name of the tool, as shown to the LLM. Generally the name of the function.
	Name string

	// A description of the tool, as shown to the LLM.
	Description string

	// The JSON schema for the tool's parameters.
	ParamsJSONSchema map[string]any

	// A function that invokes the tool with the given context and the
	// arguments from the LLM, as a JSON string.
	//
	// You must return a string representation of the tool output.
	OnInvokeTool func(ctx context.Context, arguments string) (string, error)
}

// Definition describes the tool to a model.
func (f Function) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        f.Name,
		Description: f.Description,
		Parameters:  f.ParamsJSONSchema,
	}
}

// Invoke validates the arguments against the parameters schema, then runs
// the tool.
func (f Function) Invoke(ctx context.Context, arguments string) (_ string, err error) {
	defer func() {
		metrics.ToolInvocations.WithLabelValues(f.Name, metrics.Outcome(err)).Inc()
	}()

	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}
	if err = ValidateJSON(f.ParamsJSONSchema, arguments); err != nil {
		return "", fmt.Errorf("invalid arguments for tool %s: %w", f.Name, err)
	}

	if logging.DontLogModelData {
		logging.Logger().Debug("Invoking tool", slog.String("tool", f.Name))
	} else {
		logging.Logger().Debug("Invoking tool", slog.String("tool", f.Name), slog.String("arguments", arguments))
	}

	out, err := f.OnInvokeTool(ctx, arguments)
	if err != nil {
		logging.Logger().Warn("Tool failed", slog.String("tool", f.Name), slog.String("error", err.Error()))
		return "", err
	}
	return out, nil
}

// ValidateJSON checks jsonValue against schema. A nil schema accepts any
// JSON object.
func ValidateJSON(schema map[string]any, jsonValue string) error {
	if schema == nil {
		var v map[string]any
		if err := json.Unmarshal([]byte(jsonValue), &v); err != nil {
			return ArgumentsErrorf("failed to parse JSON: %w", err)
		}
		return nil
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewStringLoader(jsonValue))
	if err != nil {
		return ArgumentsErrorf("failed to load and validate JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("JSON validation failed with the following errors:\n")
	for _, e := range result.Errors() {
		_, _ = fmt.Fprintf(&sb, "- %s\n", e)
	}
	return NewArgumentsError(sb.String())
}

// NewFunctionTool creates a Function tool with automatic JSON schema generation.
//
// The schema is reflected from the Go type T, honoring `json` and
// `jsonschema` struct tags. The handler result is returned as-is when it is
// a string and JSON-encoded otherwise.
//
// Example:
//
//	type NewsArgs struct {
//	    Ticker string `json:"ticker" jsonschema:"description=Ticker symbol of the company"`
//	}
//
//	tool := NewFunctionTool("get_news", "Retrieve news for a ticker", getNews)
func NewFunctionTool[T, R any](name string, description string, handler func(ctx context.Context, args T) (R, error)) Function {
	return Function{
		Name:             name,
		Description:      description,
		ParamsJSONSchema: ReflectSchema[T](),
		OnInvokeTool: func(ctx context.Context, arguments string) (string, error) {
			var args T
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return "", ArgumentsErrorf("failed to parse arguments: %w", err)
			}
			w, err := handler(ctx, args)
			if err != nil {
				return "", err
			}
			if s, ok := any(w).(string); ok {
				return s, nil
			}
			out, err := json.Marshal(w)
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}

// ReflectSchema returns the JSON schema of T as a map.
func ReflectSchema[T any]() map[string]any {
	reflector := &jsonschema.Reflector{
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: false,
		AllowAdditionalProperties:  false,
	}

	var zero T
	schema := reflector.Reflect(&zero)

	schemaBytes, _ := json.Marshal(schema)
	var schemaMap map[string]any
	_ = json.Unmarshal(schemaBytes, &schemaMap)

	// Meta keys are not part of a tool parameters schema.
	delete(schemaMap, "$schema")
	delete(schemaMap, "$id")
	return schemaMap
}
