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

package dataflows

import (
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_Get(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisCache(client, "")
	ctx := t.Context()

	mock.ExpectGet(DefaultCachePrefix + "hit").SetVal("cached reply")
	mock.ExpectGet(DefaultCachePrefix + "miss").RedisNil()
	mock.ExpectGet(DefaultCachePrefix + "broken").SetErr(errors.New("connection refused"))

	value, ok, err := cache.Get(ctx, "hit")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cached reply", value)

	value, ok, err = cache.Get(ctx, "miss")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)

	_, ok, err = cache.Get(ctx, "broken")
	assert.EqualError(t, err, "connection refused")
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_Set(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisCache(client, "test:")

	mock.ExpectSet("test:k", "v", time.Hour).SetVal("OK")
	require.NoError(t, cache.Set(t.Context(), "k", "v", time.Hour))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_WithAlphaVantage(t *testing.T) {
	srv, server := newAVServer(t, map[string]string{"OVERVIEW": `{"Symbol": "MSFT"}`})
	client, mock := redismock.NewClientMock()
	av := newTestAlphaVantage(t, server.URL, NewRedisCache(client, ""))

	key := DefaultCachePrefix + "alpha_vantage:function=OVERVIEW&symbol=MSFT"
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, `{"Symbol": "MSFT"}`, DefaultCacheTTL).SetVal("OK")
	mock.ExpectGet(key).SetVal(`{"Symbol": "MSFT"}`)

	for range 2 {
		out, err := av.Fundamentals(t.Context(), "MSFT")
		require.NoError(t, err)
		assert.Equal(t, `{"Symbol": "MSFT"}`, out)
	}
	assert.Equal(t, 1, srv.count())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRedisCacheFromURL(t *testing.T) {
	_, err := NewRedisCacheFromURL("not a url")
	assert.Error(t, err)

	cache, err := NewRedisCacheFromURL("redis://localhost:6379/0")
	require.NoError(t, err)
	assert.Equal(t, DefaultCachePrefix, cache.prefix)
}
