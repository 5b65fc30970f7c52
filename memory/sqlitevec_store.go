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
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"github.com/nlpodyssey/tradingagents-go/metrics"
	"github.com/nlpodyssey/tradingagents-go/util/transforms"
)

func init() {
	// Make vec0 available on every connection opened by the sqlite3 driver.
	sqlite_vec.Auto()
}

// DefaultSQLiteDSN is an in-memory database shared by all connections of
// the process. It is lost when the process ends.
const DefaultSQLiteDSN = "file:tradingagents?mode=memory&cache=shared"

// SQLiteVecStore is a VectorStore backed by SQLite and the sqlite-vec vec0
// virtual table.
//
// Situations live in a regular table; their embeddings live in a vec0 table
// sharing the same rowid. The vec0 table is created on the first insert,
// once the embedding dimensionality is known. Distances are L2, the vec0
// default.
type SQLiteVecStore struct {
	dbDSN          string
	situationTable string
	vectorTable    string
	db             *sql.DB
	mu             sync.Mutex
}

type SQLiteVecStoreParams struct {
	// Name of the collection. It is turned into a table name prefix.
	Collection string

	// Optional database data source name.
	// Defaults to DefaultSQLiteDSN (in-memory database).
	DBDataSourceName string
}

// NewSQLiteVecStore opens the database and creates the collection tables
// if they do not exist yet.
func NewSQLiteVecStore(ctx context.Context, params SQLiteVecStoreParams) (_ *SQLiteVecStore, err error) {
	prefix := transforms.SQLIdentifier(params.Collection)
	s := &SQLiteVecStore{
		dbDSN:          cmp.Or(params.DBDataSourceName, DefaultSQLiteDSN),
		situationTable: prefix + "_situations",
		vectorTable:    prefix + "_vectors",
	}

	s.db, err = sql.Open("sqlite3", s.dbDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite3 database: %w", err)
	}

	defer func() {
		if err != nil {
			if e := s.Close(); e != nil {
				err = errors.Join(err, e)
			}
		}
	}()

	// A single connection keeps a shared in-memory database alive and
	// serializes writers.
	s.db.SetMaxOpenConns(1)

	_, err = s.db.ExecContext(ctx, `PRAGMA journal_mode=WAL`)
	if err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	var vecVersion string
	if err = s.db.QueryRowContext(ctx, `SELECT vec_version()`).Scan(&vecVersion); err != nil {
		return nil, fmt.Errorf("sqlite-vec extension not available: %w", err)
	}

	if err = s.initDB(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteVecStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count(ctx)
}

func (s *SQLiteVecStore) count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, s.situationTable)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting situations: %w", err)
	}
	return n, nil
}

func (s *SQLiteVecStore) Add(ctx context.Context, records []Record) (err error) {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.ensureVectorTable(ctx, len(records[0].Embedding)); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if e := tx.Rollback(); e != nil {
				err = errors.Join(err, fmt.Errorf("error rolling back transaction: %w", e))
			}
		}
	}()

	for _, r := range records {
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO "%s" (id, situation, recommendation) VALUES (?, ?, ?)`, s.situationTable),
			r.ID, r.Situation, r.Recommendation)
		if err != nil {
			return fmt.Errorf("error inserting situation %q: %w", r.ID, err)
		}
		rowID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("error reading rowid of situation %q: %w", r.ID, err)
		}

		blob, err := sqlite_vec.SerializeFloat32(r.Embedding)
		if err != nil {
			return fmt.Errorf("error serializing embedding of situation %q: %w", r.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO "%s" (rowid, embedding) VALUES (?, ?)`, s.vectorTable),
			rowID, blob)
		if err != nil {
			return fmt.Errorf("error inserting embedding of situation %q: %w", r.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteVecStore) Query(ctx context.Context, embedding []float32, nResults int) (_ []Neighbor, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer metrics.ObserveSince("sqlite-vec", time.Now())

	n, err := s.count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 || nResults <= 0 {
		return nil, nil
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, fmt.Errorf("error serializing query embedding: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		WITH knn AS (
			SELECT rowid, distance FROM "%s"
			WHERE embedding MATCH ? AND k = ?
		)
		SELECT s.id, s.situation, s.recommendation, knn.distance
		FROM knn JOIN "%s" s ON s.seq = knn.rowid
		ORDER BY knn.distance ASC
	`, s.vectorTable, s.situationTable), blob, min(nResults, n))
	if err != nil {
		return nil, fmt.Errorf("error querying nearest situations: %w", err)
	}
	defer func() {
		if e := rows.Close(); e != nil {
			err = errors.Join(err, fmt.Errorf("error closing sql.Rows: %w", e))
		}
	}()

	var neighbors []Neighbor
	for rows.Next() {
		var nb Neighbor
		if err = rows.Scan(&nb.ID, &nb.Situation, &nb.Recommendation, &nb.Distance); err != nil {
			return nil, fmt.Errorf("sql rows scan error: %w", err)
		}
		neighbors = append(neighbors, nb)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sql rows scan error: %w", err)
	}
	return neighbors, nil
}

// Reset deletes all situations and drops the vector table, so that the
// collection can be refilled with embeddings of a different size.
func (s *SQLiteVecStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, s.vectorTable))
	if err != nil {
		return fmt.Errorf("error dropping vector table: %w", err)
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM "%s"`, s.situationTable))
	if err != nil {
		return fmt.Errorf("error deleting situations: %w", err)
	}
	return nil
}

// Close the database connection.
func (s *SQLiteVecStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteVecStore) initDB(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s" (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			situation TEXT NOT NULL,
			recommendation TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, s.situationTable))
	if err != nil {
		return fmt.Errorf("error creating situations table: %w", err)
	}
	return nil
}

func (s *SQLiteVecStore) ensureVectorTable(ctx context.Context, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("cannot index an empty embedding")
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS "%s" USING vec0(embedding float[%d])`,
		s.vectorTable, dims))
	if err != nil {
		return fmt.Errorf("error creating vector table: %w", err)
	}
	return nil
}
