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
	"hash/fnv"
	"math"
	"sync"
)

// FakeEmbedder returns deterministic embeddings. Texts found in Vectors get
// that vector; any other text is hashed into a unit vector of size Dims.
type FakeEmbedder struct {
	Vectors map[string][]float32
	Dims    int
	// When set, every call fails with Err.
	Err error
	// When positive, the call with this 1-based index fails with Err.
	FailOnCall int

	Calls []string
	mu    sync.Mutex
}

func NewFakeEmbedder(dims int) *FakeEmbedder {
	return &FakeEmbedder{Vectors: make(map[string][]float32), Dims: dims}
}

func (e *FakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Calls = append(e.Calls, text)
	if e.Err != nil && (e.FailOnCall <= 0 || e.FailOnCall == len(e.Calls)) {
		return nil, e.Err
	}
	if v, ok := e.Vectors[text]; ok {
		return v, nil
	}
	return HashEmbedding(text, e.Dims), nil
}

// HashEmbedding spreads the FNV hashes of text over dims components and
// normalizes the result.
func HashEmbedding(text string, dims int) []float32 {
	if dims <= 0 {
		dims = 8
	}
	v := make([]float32, dims)
	var norm float64
	for i := range v {
		h := fnv.New64a()
		_, _ = h.Write([]byte{byte(i)})
		_, _ = h.Write([]byte(text))
		x := float64(h.Sum64()%2001)/1000 - 1
		v[i] = float32(x)
		norm += x * x
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
