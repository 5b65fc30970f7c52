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
	"errors"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

type fakeCollectionsClient struct {
	pb.CollectionsClient
	names   []string
	created []*pb.CreateCollection
	deleted []string
	listErr error
}

func (f *fakeCollectionsClient) List(context.Context, *pb.ListCollectionsRequest, ...grpc.CallOption) (*pb.ListCollectionsResponse, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	resp := &pb.ListCollectionsResponse{}
	for _, n := range f.names {
		resp.Collections = append(resp.Collections, &pb.CollectionDescription{Name: n})
	}
	return resp, nil
}

func (f *fakeCollectionsClient) Create(_ context.Context, in *pb.CreateCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	f.created = append(f.created, in)
	f.names = append(f.names, in.CollectionName)
	return &pb.CollectionOperationResponse{Result: true}, nil
}

func (f *fakeCollectionsClient) Delete(_ context.Context, in *pb.DeleteCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	f.deleted = append(f.deleted, in.CollectionName)
	return &pb.CollectionOperationResponse{Result: true}, nil
}

type fakePointsClient struct {
	pb.PointsClient
	upserts  []*pb.UpsertPoints
	searches []*pb.SearchPoints
	results  []*pb.ScoredPoint
	count    uint64
}

func (f *fakePointsClient) Upsert(_ context.Context, in *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	f.upserts = append(f.upserts, in)
	f.count += uint64(len(in.Points))
	return &pb.PointsOperationResponse{}, nil
}

func (f *fakePointsClient) Search(_ context.Context, in *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	f.searches = append(f.searches, in)
	return &pb.SearchResponse{Result: f.results}, nil
}

func (f *fakePointsClient) Count(context.Context, *pb.CountPoints, ...grpc.CallOption) (*pb.CountResponse, error) {
	return &pb.CountResponse{Result: &pb.CountResult{Count: f.count}}, nil
}

func newTestQdrantStore(t *testing.T, collections *fakeCollectionsClient, points *fakePointsClient) *QdrantStore {
	t.Helper()
	s, err := NewQdrantStore(t.Context(), QdrantStoreParams{
		Collection:  "bull-memory",
		Points:      points,
		Collections: collections,
	})
	require.NoError(t, err)
	return s
}

func TestNewQdrantStore(t *testing.T) {
	t.Run("missing address", func(t *testing.T) {
		_, err := NewQdrantStore(t.Context(), QdrantStoreParams{Collection: "test"})
		assert.ErrorContains(t, err, "qdrant address is required")
	})

	t.Run("existing collection", func(t *testing.T) {
		s := newTestQdrantStore(t, &fakeCollectionsClient{names: []string{"bull_memory"}}, &fakePointsClient{count: 4})
		assert.True(t, s.exists)

		n, err := s.Count(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("list error", func(t *testing.T) {
		_, err := NewQdrantStore(t.Context(), QdrantStoreParams{
			Collection:  "test",
			Points:      &fakePointsClient{},
			Collections: &fakeCollectionsClient{listErr: errors.New("unavailable")},
		})
		assert.ErrorContains(t, err, "unavailable")
	})
}

func TestQdrantStore_Add(t *testing.T) {
	collections := &fakeCollectionsClient{}
	points := &fakePointsClient{}
	s := newTestQdrantStore(t, collections, points)

	n, err := s.Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Add(t.Context(), []Record{
		{ID: "0", Situation: "a", Recommendation: "ra", Embedding: []float32{1, 0, 0}},
		{ID: "x", Situation: "b", Recommendation: "rb", Embedding: []float32{0, 1, 0}},
	}))

	require.Len(t, collections.created, 1)
	params := collections.created[0].GetVectorsConfig().GetParams()
	assert.Equal(t, uint64(3), params.GetSize())
	assert.Equal(t, pb.Distance_Cosine, params.GetDistance())

	require.Len(t, points.upserts, 1)
	up := points.upserts[0]
	assert.Equal(t, "bull_memory", up.CollectionName)
	require.Len(t, up.Points, 2)
	assert.Equal(t, uint64(0), up.Points[0].GetId().GetNum())
	assert.NotEmpty(t, up.Points[1].GetId().GetUuid())
	assert.Equal(t, "rb", up.Points[1].GetPayload()[qdrantPayloadRecommendation].GetStringValue())

	// The collection is created only once.
	require.NoError(t, s.Add(t.Context(), []Record{
		{ID: "2", Situation: "c", Recommendation: "rc", Embedding: []float32{0, 0, 1}},
	}))
	assert.Len(t, collections.created, 1)

	n, err = s.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestQdrantStore_Query(t *testing.T) {
	points := &fakePointsClient{
		results: []*pb.ScoredPoint{
			{
				Score: 0.75,
				Payload: map[string]*pb.Value{
					qdrantPayloadID:             stringValue("3"),
					qdrantPayloadSituation:      stringValue("s"),
					qdrantPayloadRecommendation: stringValue("r"),
				},
			},
		},
	}
	s := newTestQdrantStore(t, &fakeCollectionsClient{names: []string{"bull_memory"}}, points)

	got, err := s.Query(t.Context(), []float32{1, 2}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Neighbor{ID: "3", Situation: "s", Recommendation: "r", Distance: 0.25}, got[0])

	require.Len(t, points.searches, 1)
	assert.Equal(t, uint64(5), points.searches[0].Limit)
	assert.Equal(t, []float32{1, 2}, points.searches[0].Vector)
}

func TestQdrantStore_QueryMissingCollection(t *testing.T) {
	points := &fakePointsClient{}
	s := newTestQdrantStore(t, &fakeCollectionsClient{}, points)

	got, err := s.Query(t.Context(), []float32{1, 2}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, points.searches)
}

func TestQdrantStore_Reset(t *testing.T) {
	collections := &fakeCollectionsClient{names: []string{"bull_memory"}}
	s := newTestQdrantStore(t, collections, &fakePointsClient{})

	require.NoError(t, s.Reset(t.Context()))
	assert.Equal(t, []string{"bull_memory"}, collections.deleted)
	assert.False(t, s.exists)

	n, err := s.Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, s.Close())
}
