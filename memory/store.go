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
)

// A Record is a situation stored together with its recommendation and the
// embedding of the situation text.
type Record struct {
	ID             string
	Situation      string
	Recommendation string
	Embedding      []float32
}

// A Neighbor is a stored record returned by a nearest-neighbour query,
// together with its distance from the query vector as reported by the
// backend's own metric.
type Neighbor struct {
	ID             string
	Situation      string
	Recommendation string
	Distance       float64
}

// A VectorStore holds one collection of situation records and answers
// nearest-neighbour queries over their embeddings.
//
// Indexing and search are entirely delegated to the underlying database;
// implementations only shape requests and results.
type VectorStore interface {
	// Count returns the number of records in the collection.
	Count(context.Context) (int, error)

	// Add inserts all records in a single batch.
	Add(ctx context.Context, records []Record) error

	// Query returns up to nResults records closest to embedding, nearest first.
	Query(ctx context.Context, embedding []float32, nResults int) ([]Neighbor, error)

	// Reset removes every record from the collection.
	Reset(context.Context) error

	// Close releases the resources held by the store.
	Close() error
}

type StoreKind string

const (
	StoreSQLite   StoreKind = "sqlite"
	StorePgVector StoreKind = "pgvector"
	StoreQdrant   StoreKind = "qdrant"
)

// StoreConfig selects and locates the vector store backing a memory.
type StoreConfig struct {
	// Backend kind. Defaults to StoreSQLite.
	Kind StoreKind

	// Data source name for SQLite or connection string for PostgreSQL.
	DSN string

	// gRPC address of the Qdrant server.
	Addr string
}

// OpenStore opens (or creates) the named collection in the configured backend.
func OpenStore(ctx context.Context, collection string, cfg StoreConfig) (VectorStore, error) {
	switch cfg.Kind {
	case "", StoreSQLite:
		return NewSQLiteVecStore(ctx, SQLiteVecStoreParams{
			Collection:       collection,
			DBDataSourceName: cfg.DSN,
		})
	case StorePgVector:
		return NewPgVectorStore(ctx, PgVectorStoreParams{
			Collection:       collection,
			ConnectionString: cfg.DSN,
		})
	case StoreQdrant:
		return NewQdrantStore(ctx, QdrantStoreParams{
			Collection: collection,
			Addr:       cfg.Addr,
		})
	default:
		return nil, fmt.Errorf("unknown vector store kind %q", cfg.Kind)
	}
}
