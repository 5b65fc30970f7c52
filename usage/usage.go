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

package usage

import (
	"context"
)

type Usage struct {
	// Total requests made to the LLM API.
	Requests uint64

	// Total input tokens sent, across all requests.
	InputTokens uint64

	// Input tokens served from the provider's prompt cache.
	CachedInputTokens uint64

	// Total output tokens received, across all requests.
	OutputTokens uint64

	// Output tokens spent on reasoning, when the provider reports them.
	ReasoningTokens uint64

	// Total tokens sent and received, across all requests.
	TotalTokens uint64
}

func NewUsage() *Usage {
	return new(Usage)
}

func (u *Usage) Add(other *Usage) {
	if other == nil {
		return
	}
	u.Requests += other.Requests
	u.InputTokens += other.InputTokens
	u.CachedInputTokens += other.CachedInputTokens
	u.OutputTokens += other.OutputTokens
	u.ReasoningTokens += other.ReasoningTokens
	u.TotalTokens += other.TotalTokens
}

// usageContextKey is the key type for Usage values in Contexts.
type usageContextKey struct{}

// NewContext returns a new Context that carries the given Usage.
func NewContext(ctx context.Context, u *Usage) context.Context {
	return context.WithValue(ctx, usageContextKey{}, u)
}

// FromContext returns the Usage value stored in ctx, if any.
func FromContext(ctx context.Context) (*Usage, bool) {
	u, ok := ctx.Value(usageContextKey{}).(*Usage)
	return u, ok
}

// AddToContext adds other to the Usage carried by ctx, if any.
func AddToContext(ctx context.Context, other *Usage) {
	if u, ok := FromContext(ctx); ok && u != nil {
		u.Add(other)
	}
}
