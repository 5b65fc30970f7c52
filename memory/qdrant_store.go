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
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nlpodyssey/tradingagents-go/metrics"
	"github.com/nlpodyssey/tradingagents-go/util/transforms"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	qdrantPayloadID             = "id"
	qdrantPayloadSituation      = "situation"
	qdrantPayloadRecommendation = "recommendation"
)

// QdrantStore is a VectorStore backed by a Qdrant collection reached over
// gRPC. The collection uses cosine distance; Qdrant reports cosine
// similarity, which is turned into the distance 1 - score.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	exists      bool
	mu          sync.Mutex
}

type QdrantStoreParams struct {
	// Name of the collection. Dashes and other symbols are replaced with
	// underscores.
	Collection string

	// gRPC address of the Qdrant server, e.g. "localhost:6334".
	Addr string

	// Optional clients for dependency injection (mainly for testing).
	// When both are set, Addr is ignored.
	Points      pb.PointsClient
	Collections pb.CollectionsClient
}

// NewQdrantStore connects to Qdrant and checks whether the collection
// already exists. The collection is created on the first insert.
func NewQdrantStore(ctx context.Context, params QdrantStoreParams) (*QdrantStore, error) {
	s := &QdrantStore{
		points:      params.Points,
		collections: params.Collections,
		collection:  transforms.SQLIdentifier(params.Collection),
	}

	if s.points == nil || s.collections == nil {
		if params.Addr == "" {
			return nil, fmt.Errorf("qdrant address is required")
		}
		conn, err := grpc.NewClient(params.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("dial qdrant %s: %w", params.Addr, err)
		}
		s.conn = conn
		s.points = pb.NewPointsClient(conn)
		s.collections = pb.NewCollectionsClient(conn)
	}

	exists, err := s.collectionExists(ctx)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.exists = exists
	return s, nil
}

func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists {
		return 0, nil
	}
	exact := true
	resp, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: s.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("count points in %s: %w", s.collection, err)
	}
	return int(resp.GetResult().GetCount()), nil
}

func (s *QdrantStore) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureCollection(ctx, len(records[0].Embedding)); err != nil {
		return err
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		points[i] = &pb.PointStruct{
			Id: qdrantPointID(r.ID),
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: r.Embedding},
				},
			},
			Payload: map[string]*pb.Value{
				qdrantPayloadID:             stringValue(r.ID),
				qdrantPayloadSituation:      stringValue(r.Situation),
				qdrantPayloadRecommendation: stringValue(r.Recommendation),
			},
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(records), err)
	}
	return nil
}

func (s *QdrantStore) Query(ctx context.Context, embedding []float32, nResults int) ([]Neighbor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists || nResults <= 0 {
		return nil, nil
	}

	defer metrics.ObserveSince("qdrant", time.Now())

	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         embedding,
		Limit:          uint64(nResults),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.collection, err)
	}

	neighbors := make([]Neighbor, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		payload := r.GetPayload()
		neighbors[i] = Neighbor{
			ID:             payload[qdrantPayloadID].GetStringValue(),
			Situation:      payload[qdrantPayloadSituation].GetStringValue(),
			Recommendation: payload[qdrantPayloadRecommendation].GetStringValue(),
			Distance:       1 - float64(r.GetScore()),
		}
	}
	return neighbors, nil
}

// Reset deletes the whole collection. It is created again by the next Add.
func (s *QdrantStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists {
		return nil
	}
	_, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: s.collection})
	if err != nil {
		return fmt.Errorf("delete collection %s: %w", s.collection, err)
	}
	s.exists = false
	return nil
}

// Close closes the underlying gRPC connection, if the store owns one.
func (s *QdrantStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *QdrantStore) collectionExists(ctx context.Context) (bool, error) {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return true, nil
		}
	}
	return false, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context, dims int) error {
	if s.exists {
		return nil
	}
	if dims <= 0 {
		return fmt.Errorf("cannot index an empty embedding")
	}
	_, err := s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	s.exists = true
	return nil
}

// qdrantPointID maps a record ID to a Qdrant point ID. Qdrant only accepts
// unsigned integers and UUIDs, so other IDs are hashed into a UUID.
func qdrantPointID(id string) *pb.PointId {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: n}}
	}
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{
		Uuid: uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String(),
	}}
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}
