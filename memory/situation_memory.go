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

package memory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nlpodyssey/tradingagents-go/embedding"
	"github.com/nlpodyssey/tradingagents-go/logging"
)

// SituationAdvice is a past market situation paired with the advice that
// was, or should have been, followed.
type SituationAdvice struct {
	Situation      string
	Recommendation string
}

// A Match is a stored situation similar to a query.
type Match struct {
	MatchedSituation string
	Recommendation   string
	// 1 - distance, where distance is the store's own metric.
	SimilarityScore float64
}

// FinancialSituationMemory stores situation/recommendation pairs in one
// vector store collection and retrieves the most similar ones.
type FinancialSituationMemory struct {
	name     string
	embedder embedding.Embedder
	store    VectorStore
}

type FinancialSituationMemoryParams struct {
	// Optional embedder. When nil, one is built from Embedding.
	Embedder embedding.Embedder

	// Embedding provider settings, used when Embedder is nil.
	Embedding embedding.Params

	// Optional vector store. When nil, the collection is opened according
	// to StoreConfig.
	Store VectorStore

	// Vector store settings, used when Store is nil.
	StoreConfig StoreConfig
}

// NewFinancialSituationMemory opens or creates the collection name.
func NewFinancialSituationMemory(ctx context.Context, name string, params FinancialSituationMemoryParams) (*FinancialSituationMemory, error) {
	embedder := params.Embedder
	if embedder == nil {
		embedder = embedding.New(params.Embedding)
	}

	store := params.Store
	if store == nil {
		var err error
		store, err = OpenStore(ctx, name, params.StoreConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to open memory %q: %w", name, err)
		}
	}

	return &FinancialSituationMemory{
		name:     name,
		embedder: embedder,
		store:    store,
	}, nil
}

func (m *FinancialSituationMemory) Name() string { return m.name }

// AddSituations embeds every situation, in order, and stores all of them
// in a single batch. IDs continue from the current number of records.
// Nothing is stored if any embedding fails.
func (m *FinancialSituationMemory) AddSituations(ctx context.Context, items []SituationAdvice) error {
	if len(items) == 0 {
		return nil
	}

	offset, err := m.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("memory %q: %w", m.name, err)
	}

	records := make([]Record, len(items))
	for i, item := range items {
		vec, err := m.embedder.Embed(ctx, item.Situation)
		if err != nil {
			return fmt.Errorf("memory %q: embedding situation %d: %w", m.name, i, err)
		}
		records[i] = Record{
			ID:             strconv.Itoa(offset + i),
			Situation:      item.Situation,
			Recommendation: item.Recommendation,
			Embedding:      vec,
		}
	}

	if err = m.store.Add(ctx, records); err != nil {
		return fmt.Errorf("memory %q: %w", m.name, err)
	}

	logging.Logger().Debug("Situations added to memory",
		"memory", m.name, "count", len(records), "first_id", records[0].ID)
	return nil
}

// GetMemories returns up to nMatches stored situations most similar to
// currentSituation, most similar first. A non-positive nMatches means 1.
func (m *FinancialSituationMemory) GetMemories(ctx context.Context, currentSituation string, nMatches int) ([]Match, error) {
	if nMatches <= 0 {
		nMatches = 1
	}

	vec, err := m.embedder.Embed(ctx, currentSituation)
	if err != nil {
		return nil, fmt.Errorf("memory %q: embedding query: %w", m.name, err)
	}

	neighbors, err := m.store.Query(ctx, vec, nMatches)
	if err != nil {
		return nil, fmt.Errorf("memory %q: %w", m.name, err)
	}

	matches := make([]Match, len(neighbors))
	for i, nb := range neighbors {
		matches[i] = Match{
			MatchedSituation: nb.Situation,
			Recommendation:   nb.Recommendation,
			SimilarityScore:  1 - nb.Distance,
		}
	}

	logging.Logger().Debug("Memories retrieved",
		"memory", m.name, "requested", nMatches, "found", len(matches))
	return matches, nil
}

// Count returns the number of stored situations.
func (m *FinancialSituationMemory) Count(ctx context.Context) (int, error) {
	return m.store.Count(ctx)
}

// Reset removes every stored situation.
func (m *FinancialSituationMemory) Reset(ctx context.Context) error {
	return m.store.Reset(ctx)
}

func (m *FinancialSituationMemory) Close() error {
	return m.store.Close()
}
