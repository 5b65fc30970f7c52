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
	"fmt"
	"slices"

	"github.com/nlpodyssey/tradingagents-go/llm"
)

// Registry holds tools by name, in insertion order.
type Registry struct {
	tools map[string]Function
	names []string
}

func NewRegistry(fns ...Function) (*Registry, error) {
	r := &Registry{tools: make(map[string]Function, len(fns))}
	if err := r.Add(fns...); err != nil {
		return nil, err
	}
	return r, nil
}

// Add registers the tools. Names must be unique.
func (r *Registry) Add(fns ...Function) error {
	for _, f := range fns {
		if f.Name == "" {
			return fmt.Errorf("tool name is required")
		}
		if _, ok := r.tools[f.Name]; ok {
			return fmt.Errorf("duplicate tool name %q", f.Name)
		}
		r.tools[f.Name] = f
		r.names = append(r.names, f.Name)
	}
	return nil
}

// Override replaces the registered tools with the same names as fns, and
// registers the others.
func (r *Registry) Override(fns ...Function) error {
	for _, f := range fns {
		if f.Name == "" {
			return fmt.Errorf("tool name is required")
		}
		if _, ok := r.tools[f.Name]; !ok {
			r.names = append(r.names, f.Name)
		}
		r.tools[f.Name] = f
	}
	return nil
}

func (r *Registry) Get(name string) (Function, bool) {
	f, ok := r.tools[name]
	return f, ok
}

// Names returns the names of all registered tools.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Subset returns the named tools, in the given order.
func (r *Registry) Subset(names ...string) ([]Function, error) {
	fns := make([]Function, len(names))
	for i, name := range names {
		f, ok := r.tools[name]
		if !ok {
			return nil, fmt.Errorf("tool %q is not registered", name)
		}
		fns[i] = f
	}
	return fns, nil
}

// Definitions returns the model-facing definitions of fns.
func Definitions(fns []Function) []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, len(fns))
	for i, f := range fns {
		defs[i] = f.Definition()
	}
	return defs
}
