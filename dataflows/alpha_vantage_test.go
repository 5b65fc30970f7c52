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
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type avServer struct {
	mu      sync.Mutex
	queries []url.Values
	status  int
	body    map[string]string
}

func newAVServer(t *testing.T, body map[string]string) (*avServer, *httptest.Server) {
	t.Helper()
	s := &avServer{status: http.StatusOK, body: body}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.queries = append(s.queries, r.URL.Query())
		status := s.status
		s.mu.Unlock()

		w.WriteHeader(status)
		_, _ = w.Write([]byte(s.body[r.URL.Query().Get("function")]))
	}))
	t.Cleanup(server.Close)
	return s, server
}

func (s *avServer) lastQuery() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[len(s.queries)-1]
}

func (s *avServer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

func newTestAlphaVantage(t *testing.T, baseURL string, cache Cache) *AlphaVantage {
	t.Helper()
	av, err := NewAlphaVantage(AlphaVantageParams{
		APIKey:            "test-key",
		BaseURL:           baseURL,
		RequestsPerMinute: 600000,
		Cache:             cache,
	})
	require.NoError(t, err)
	return av
}

func TestNewAlphaVantage(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		t.Setenv("ALPHA_VANTAGE_API_KEY", "")
		_, err := NewAlphaVantage(AlphaVantageParams{})
		assert.ErrorIs(t, err, ErrMissingAlphaVantageKey)
	})

	t.Run("api key from environment", func(t *testing.T) {
		t.Setenv("ALPHA_VANTAGE_API_KEY", "env-key")
		av, err := NewAlphaVantage(AlphaVantageParams{})
		require.NoError(t, err)
		assert.Equal(t, "env-key", av.apiKey)
		assert.Equal(t, DefaultAlphaVantageURL, av.baseURL)
		assert.Equal(t, DefaultCacheTTL, av.cacheTTL)
		assert.Equal(t, "alpha_vantage", av.Name())
	})

	t.Run("negative rate", func(t *testing.T) {
		_, err := NewAlphaVantage(AlphaVantageParams{APIKey: "k", RequestsPerMinute: -1})
		assert.Error(t, err)
	})
}

func TestAlphaVantage_Fundamentals(t *testing.T) {
	srv, server := newAVServer(t, map[string]string{
		"OVERVIEW": `{"Symbol": "AAPL", "Name": "Apple Inc", "PERatio": "29.5"}`,
	})
	av := newTestAlphaVantage(t, server.URL, nil)

	out, err := av.Fundamentals(t.Context(), " aapl ")
	require.NoError(t, err)
	assert.Contains(t, out, `"PERatio": "29.5"`)

	q := srv.lastQuery()
	assert.Equal(t, "OVERVIEW", q.Get("function"))
	assert.Equal(t, "AAPL", q.Get("symbol"))
	assert.Equal(t, "test-key", q.Get("apikey"))
}

func TestAlphaVantage_EmptyTicker(t *testing.T) {
	av := newTestAlphaVantage(t, "http://127.0.0.1:1", nil)
	_, err := av.Fundamentals(t.Context(), "  ")
	assert.EqualError(t, err, "ticker symbol is required")
}

func TestAlphaVantage_Statements(t *testing.T) {
	srv, server := newAVServer(t, map[string]string{
		"BALANCE_SHEET": `{
			"symbol": "IBM",
			"annualReports": [{"fiscalDateEnding": "2023-12-31", "totalAssets": "135241000000"}],
			"quarterlyReports": [{"fiscalDateEnding": "2024-03-31", "totalAssets": "137169000000"}]
		}`,
		"CASH_FLOW":        `{"symbol": "IBM", "annualReports": [], "quarterlyReports": []}`,
		"INCOME_STATEMENT": `{"symbol": "IBM", "quarterlyReports": [{"fiscalDateEnding": "2024-03-31", "netIncome": "1605000000"}]}`,
	})
	av := newTestAlphaVantage(t, server.URL, nil)
	ctx := t.Context()

	out, err := av.BalanceSheet(ctx, "IBM", Annual)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Balance sheet (annual) for IBM\n\n"))
	assert.Contains(t, out, "135241000000")
	assert.NotContains(t, out, "137169000000")

	out, err = av.BalanceSheet(ctx, "IBM", Quarterly)
	require.NoError(t, err)
	assert.Contains(t, out, "137169000000")

	out, err = av.CashFlow(ctx, "IBM", Quarterly)
	require.NoError(t, err)
	assert.Equal(t, "No quarterly cash flow statement data found for symbol 'IBM'", out)

	out, err = av.IncomeStatement(ctx, "IBM", Quarterly)
	require.NoError(t, err)
	assert.Contains(t, out, "1605000000")
	assert.Equal(t, "INCOME_STATEMENT", srv.lastQuery().Get("function"))
}

const dailyCSV = `timestamp,open,high,low,close,volume
2024-01-05,181.99,182.76,180.17,181.18,62303300
2024-01-04,182.15,183.09,180.88,181.91,71983600
2024-01-03,184.22,185.88,183.43,184.25,58414500
2024-01-02,187.15,188.44,183.89,185.64,82488700
2023-12-29,193.90,194.40,191.73,192.53,42628800
`

func TestAlphaVantage_StockData(t *testing.T) {
	srv, server := newAVServer(t, map[string]string{"TIME_SERIES_DAILY": dailyCSV})
	av := newTestAlphaVantage(t, server.URL, nil)
	ctx := t.Context()

	t.Run("filters and sorts rows", func(t *testing.T) {
		out, err := av.StockData(ctx, "AAPL", "2024-01-02", "2024-01-04")
		require.NoError(t, err)
		expected := "# Stock data for AAPL from 2024-01-02 to 2024-01-04\n" +
			"# Total records: 3\n\n" +
			"timestamp,open,high,low,close,volume\n" +
			"2024-01-02,187.15,188.44,183.89,185.64,82488700\n" +
			"2024-01-03,184.22,185.88,183.43,184.25,58414500\n" +
			"2024-01-04,182.15,183.09,180.88,181.91,71983600\n"
		assert.Equal(t, expected, out)

		q := srv.lastQuery()
		assert.Equal(t, "csv", q.Get("datatype"))
		assert.Equal(t, "full", q.Get("outputsize"))
	})

	t.Run("no rows in range", func(t *testing.T) {
		out, err := av.StockData(ctx, "AAPL", "2022-01-01", "2022-02-01")
		require.NoError(t, err)
		assert.Equal(t, "No data found for symbol 'AAPL' between 2022-01-01 and 2022-02-01", out)
	})

	t.Run("invalid dates", func(t *testing.T) {
		_, err := av.StockData(ctx, "AAPL", "01/02/2024", "2024-01-04")
		assert.ErrorContains(t, err, "invalid start date")

		_, err = av.StockData(ctx, "AAPL", "2024-01-04", "2024-01-02")
		assert.ErrorContains(t, err, "is before start date")
	})
}

func TestAlphaVantage_Indicator(t *testing.T) {
	srv, server := newAVServer(t, map[string]string{
		"RSI": `{
			"Meta Data": {"1: Symbol": "AAPL"},
			"Technical Analysis: RSI": {
				"2024-01-05": {"RSI": "41.20"},
				"2024-01-04": {"RSI": "39.87"},
				"2023-12-01": {"RSI": "55.00"}
			}
		}`,
		"BBANDS": `{"Technical Analysis: BBANDS": {"2024-01-05": {"Real Upper Band": "199.1", "Real Middle Band": "190.2", "Real Lower Band": "181.3"}}}`,
		"SMA":    `{"Meta Data": {}}`,
	})
	av := newTestAlphaVantage(t, server.URL, nil)
	ctx := t.Context()

	out, err := av.Indicator(ctx, "AAPL", "rsi", "2024-01-05", 10)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "## rsi values from 2023-12-26 to 2024-01-05:\n\n2024-01-05: 41.20\n2024-01-04: 39.87\n\n"))
	assert.NotContains(t, out, "55.00")
	q := srv.lastQuery()
	assert.Equal(t, "14", q.Get("time_period"))
	assert.Equal(t, "daily", q.Get("interval"))

	out, err = av.Indicator(ctx, "AAPL", "boll_ub", "2024-01-05", 5)
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01-05: 199.1\n")

	_, err = av.Indicator(ctx, "AAPL", "close_50_sma", "2024-01-05", 5)
	var vendorErr *VendorError
	assert.ErrorAs(t, err, &vendorErr)

	_, err = av.Indicator(ctx, "AAPL", "vwma", "2024-01-05", 5)
	assert.ErrorContains(t, err, `indicator "vwma" is not supported`)
}

func TestAlphaVantage_News(t *testing.T) {
	srv, server := newAVServer(t, map[string]string{
		"NEWS_SENTIMENT":       `{"items": "1", "feed": [{"title": "Apple beats estimates"}]}`,
		"INSIDER_TRANSACTIONS": `{"data": [{"executive": "COOK TIMOTHY D", "acquisition_or_disposal": "D"}]}`,
	})
	av := newTestAlphaVantage(t, server.URL, nil)
	ctx := t.Context()

	out, err := av.News(ctx, "AAPL", "2024-01-01", "2024-01-07")
	require.NoError(t, err)
	assert.Contains(t, out, "Apple beats estimates")
	q := srv.lastQuery()
	assert.Equal(t, "AAPL", q.Get("tickers"))
	assert.Equal(t, "20240101T0000", q.Get("time_from"))
	assert.Equal(t, "20240107T2359", q.Get("time_to"))

	_, err = av.GlobalNews(ctx, "2024-01-07", 7, 0)
	require.NoError(t, err)
	q = srv.lastQuery()
	assert.Equal(t, globalNewsTopics, q.Get("topics"))
	assert.Equal(t, "20231231T0000", q.Get("time_from"))
	assert.Equal(t, "50", q.Get("limit"))

	out, err = av.InsiderTransactions(ctx, "aapl")
	require.NoError(t, err)
	assert.Contains(t, out, "COOK TIMOTHY D")
}

func TestAlphaVantage_Errors(t *testing.T) {
	t.Run("error payloads", func(t *testing.T) {
		for key, message := range map[string]string{
			"Error Message": "Invalid API call.",
			"Information":   "We have detected your API key as premium-only.",
			"Note":          "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute.",
		} {
			t.Run(key, func(t *testing.T) {
				_, server := newAVServer(t, map[string]string{"OVERVIEW": `{"` + key + `": "` + message + `"}`})
				av := newTestAlphaVantage(t, server.URL, nil)

				_, err := av.Fundamentals(t.Context(), "AAPL")
				var vendorErr *VendorError
				require.ErrorAs(t, err, &vendorErr)
				assert.Equal(t, "OVERVIEW", vendorErr.Function)
				assert.Zero(t, vendorErr.StatusCode)
				assert.Equal(t, message, vendorErr.Message)
			})
		}
	})

	t.Run("non-2xx status", func(t *testing.T) {
		srv, server := newAVServer(t, map[string]string{"OVERVIEW": strings.Repeat("x", 500)})
		srv.mu.Lock()
		srv.status = http.StatusServiceUnavailable
		srv.mu.Unlock()
		av := newTestAlphaVantage(t, server.URL, nil)

		_, err := av.Fundamentals(t.Context(), "AAPL")
		var vendorErr *VendorError
		require.ErrorAs(t, err, &vendorErr)
		assert.Equal(t, http.StatusServiceUnavailable, vendorErr.StatusCode)
		assert.Len(t, vendorErr.Message, maxErrorBodyLen)
	})

	t.Run("non-2xx status keeps whole characters", func(t *testing.T) {
		srv, server := newAVServer(t, map[string]string{"OVERVIEW": "x" + strings.Repeat("€", 500)})
		srv.mu.Lock()
		srv.status = http.StatusBadGateway
		srv.mu.Unlock()
		av := newTestAlphaVantage(t, server.URL, nil)

		_, err := av.Fundamentals(t.Context(), "AAPL")
		var vendorErr *VendorError
		require.ErrorAs(t, err, &vendorErr)
		assert.True(t, utf8.ValidString(vendorErr.Message))
		assert.Equal(t, "x"+strings.Repeat("€", maxErrorBodyLen-1), vendorErr.Message)
	})
}

type mapCache struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
}

func newMapCache() *mapCache {
	return &mapCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	c.ttls[key] = ttl
	return nil
}

func TestAlphaVantage_Cache(t *testing.T) {
	srv, server := newAVServer(t, map[string]string{
		"OVERVIEW": `{"Symbol": "AAPL"}`,
	})
	cache := newMapCache()
	av := newTestAlphaVantage(t, server.URL, cache)
	ctx := t.Context()

	first, err := av.Fundamentals(ctx, "AAPL")
	require.NoError(t, err)
	second, err := av.Fundamentals(ctx, "AAPL")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, srv.count())

	key := "alpha_vantage:function=OVERVIEW&symbol=AAPL"
	assert.Equal(t, first, cache.values[key])
	assert.Equal(t, DefaultCacheTTL, cache.ttls[key])
	for k := range cache.values {
		assert.NotContains(t, k, "test-key")
	}
}

func TestAlphaVantage_ErrorsAreNotCached(t *testing.T) {
	_, server := newAVServer(t, map[string]string{"OVERVIEW": `{"Note": "slow down"}`})
	cache := newMapCache()
	av := newTestAlphaVantage(t, server.URL, cache)

	_, err := av.Fundamentals(t.Context(), "AAPL")
	assert.Error(t, err)
	assert.Empty(t, cache.values)
}

func TestAlphaVantage_RateLimitHonoursContext(t *testing.T) {
	_, server := newAVServer(t, map[string]string{"OVERVIEW": `{}`})
	av, err := NewAlphaVantage(AlphaVantageParams{APIKey: "k", BaseURL: server.URL, RequestsPerMinute: 1})
	require.NoError(t, err)

	_, err = av.Fundamentals(t.Context(), "AAPL")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	_, err = av.Fundamentals(ctx, "AAPL")
	assert.Error(t, err)
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency("")
	require.NoError(t, err)
	assert.Equal(t, Quarterly, f)

	f, err = ParseFrequency("Annual")
	require.NoError(t, err)
	assert.Equal(t, Annual, f)

	_, err = ParseFrequency("monthly")
	assert.Error(t, err)
}
