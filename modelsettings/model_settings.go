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

package modelsettings

import (
	"maps"
	"reflect"

	"github.com/openai/openai-go/v2/packages/param"
)

// ModelSettings holds settings to use when calling an LLM.
//
// Not all models/providers support all of these parameters. Providers
// silently ignore the settings they have no counterpart for.
type ModelSettings struct {
	// The temperature to use when calling the model.
	Temperature param.Opt[float64] `json:"temperature"`

	// The top_p to use when calling the model.
	TopP param.Opt[float64] `json:"top_p"`

	// The maximum number of output tokens to generate.
	MaxTokens param.Opt[int64] `json:"max_tokens"`

	// Optional tool choice to use when calling the model.
	ToolChoice ToolChoice `json:"tool_choice"`

	// Controls whether the model can make multiple parallel tool calls in a single turn.
	// If not provided, this behavior defers to the underlying model provider's default.
	ParallelToolCalls param.Opt[bool] `json:"parallel_tool_calls"`

	// Reasoning effort for reasoning models ("low", "medium", "high").
	// Only used by the OpenAI chat completions model.
	ReasoningEffort param.Opt[string] `json:"reasoning_effort"`

	// Optional additional headers to provide with the request.
	ExtraHeaders map[string]string `json:"extra_headers"`
}

type ToolChoice interface {
	isToolChoice()
}

type ToolChoiceString string

func (ToolChoiceString) isToolChoice()     {}
func (tc ToolChoiceString) String() string { return string(tc) }

const (
	ToolChoiceAuto     ToolChoiceString = "auto"
	ToolChoiceRequired ToolChoiceString = "required"
	ToolChoiceNone     ToolChoiceString = "none"
)

// ToolChoiceFunction forces the model to call the named function.
type ToolChoiceFunction struct {
	Name string `json:"name"`
}

func (ToolChoiceFunction) isToolChoice() {}

// Resolve produces a new ModelSettings by overlaying any present values from
// the override on top of this instance.
func (ms ModelSettings) Resolve(override ModelSettings) ModelSettings {
	newSettings := ms
	resolveOpt(&newSettings.Temperature, override.Temperature)
	resolveOpt(&newSettings.TopP, override.TopP)
	resolveOpt(&newSettings.MaxTokens, override.MaxTokens)
	resolveAny(&newSettings.ToolChoice, override.ToolChoice)
	resolveOpt(&newSettings.ParallelToolCalls, override.ParallelToolCalls)
	resolveOpt(&newSettings.ReasoningEffort, override.ReasoningEffort)
	resolveMap(&newSettings.ExtraHeaders, override.ExtraHeaders)
	return newSettings
}

func resolveOpt[T comparable](base *param.Opt[T], override param.Opt[T]) {
	if override.Valid() {
		*base = override
	}
}

func resolveAny[T any](base *T, override T) {
	v := reflect.ValueOf(override)
	if v.Kind() != reflect.Invalid && !v.IsZero() {
		*base = override
	}
}

func resolveMap[M ~map[K]V, K comparable, V any](base *M, override M) {
	if len(override) > 0 {
		*base = maps.Clone(override)
	}
}
