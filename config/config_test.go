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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nlpodyssey/tradingagents-go/agentstesting"
	"github.com/nlpodyssey/tradingagents-go/analysts"
	"github.com/nlpodyssey/tradingagents-go/dataflows"
	"github.com/nlpodyssey/tradingagents-go/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	noEnvFile(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "o4-mini", cfg.DeepThinkLLM)
	assert.Equal(t, "gpt-4o-mini", cfg.QuickThinkLLM)
	assert.Equal(t, "https://api.openai.com/v1", cfg.BackendURL)
	assert.Equal(t, 8, cfg.MaxToolTurns)
	assert.Equal(t, "sqlite", cfg.Memory.Store)
	assert.Equal(t, memory.StoreConfig{Kind: memory.StoreSQLite, DSN: DefaultMemoryDSN}, cfg.StoreConfig())
	assert.Equal(t, "alpha_vantage", cfg.DataVendor.Name)
	assert.Equal(t, dataflows.DefaultRequestsPerMinute, cfg.DataVendor.RequestsPerMinute)
	assert.Equal(t, dataflows.DefaultCacheTTL, cfg.DataVendor.CacheTTL)
	assert.Empty(t, cfg.Redis.URL)

	kinds, err := cfg.Analysts()
	require.NoError(t, err)
	assert.Equal(t, analysts.DefaultKinds, kinds)
}

func TestLoad_File(t *testing.T) {
	noEnvFile(t)
	path := writeFile(t, "tradingagents.yaml", `
llm_provider: anthropic
deep_think_llm: claude-sonnet-4-0
quick_think_llm: claude-3-5-haiku-latest
backend_url: https://api.anthropic.com/
max_tool_turns: 4
selected_analysts: [fundamentals, news]
memory:
  store: qdrant
  addr: localhost:6334
data_vendor:
  requests_per_minute: 5
  cache_ttl: 1h
redis:
  url: redis://localhost:6379/1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLMProvider)
	assert.Equal(t, "claude-sonnet-4-0", cfg.DeepThinkLLM)
	assert.Equal(t, 4, cfg.MaxToolTurns)
	assert.Equal(t, 5, cfg.DataVendor.RequestsPerMinute)
	assert.Equal(t, time.Hour, cfg.DataVendor.CacheTTL)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Redis.URL)

	kinds, err := cfg.Analysts()
	require.NoError(t, err)
	assert.Equal(t, []analysts.Kind{analysts.Fundamentals, analysts.News}, kinds)

	assert.Equal(t, memory.StoreConfig{Kind: memory.StoreQdrant, Addr: "localhost:6334"}, cfg.StoreConfig())

	params := cfg.ModelParams(cfg.QuickThinkLLM)
	assert.Equal(t, "anthropic", params.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", params.Model)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	noEnvFile(t)
	path := writeFile(t, "tradingagents.yaml", "quick_think_llm: from-file\n")
	t.Setenv("TRADINGAGENTS_QUICK_THINK_LLM", "from-env")
	t.Setenv("TRADINGAGENTS_MEMORY_STORE", "pgvector")
	t.Setenv("TRADINGAGENTS_MEMORY_DSN", "postgres://localhost/agents")
	t.Setenv("TRADINGAGENTS_SELECTED_ANALYSTS", "market,social")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.QuickThinkLLM)
	assert.Equal(t, memory.StoreConfig{Kind: memory.StorePgVector, DSN: "postgres://localhost/agents"}, cfg.StoreConfig())

	kinds, err := cfg.Analysts()
	require.NoError(t, err)
	assert.Equal(t, []analysts.Kind{analysts.Market, analysts.Social}, kinds)
}

func TestLoad_DotEnv(t *testing.T) {
	t.Setenv("TRADINGAGENTS_DEEP_THINK_LLM", "")
	require.NoError(t, os.Unsetenv("TRADINGAGENTS_DEEP_THINK_LLM"))
	t.Setenv("ENV_FILE", writeFile(t, "test.env", "TRADINGAGENTS_DEEP_THINK_LLM=from-dotenv\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.DeepThinkLLM)
}

func TestLoad_Errors(t *testing.T) {
	noEnvFile(t)

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "error reading config file")
	})

	t.Run("invalid max turns", func(t *testing.T) {
		_, err := Load(writeFile(t, "c.yaml", "max_tool_turns: 0\n"))
		assert.ErrorContains(t, err, "max_tool_turns must be positive")
	})

	t.Run("unknown analyst", func(t *testing.T) {
		_, err := Load(writeFile(t, "c.yaml", "selected_analysts: [market, astrologer]\n"))
		assert.ErrorContains(t, err, `unknown analyst "astrologer"`)
	})

	t.Run("unsupported vendor", func(t *testing.T) {
		_, err := Load(writeFile(t, "c.yaml", "data_vendor:\n  name: yfinance\n"))
		assert.ErrorContains(t, err, `unsupported data vendor "yfinance"`)
	})
}

func TestEmbeddingParams(t *testing.T) {
	cfg := Config{LLMProvider: "ollama", BackendURL: "http://localhost:11434/v1", APIKey: "k", EmbeddingModel: "mxbai"}
	p := cfg.EmbeddingParams()
	assert.Equal(t, "ollama", p.Provider)
	assert.Equal(t, "mxbai", p.Model)
	assert.Equal(t, "k", p.APIKey)

	cfg.LLMProvider = "anthropic"
	assert.Empty(t, cfg.EmbeddingParams().APIKey)
}

func TestStoreConfig_DefaultPersistsAcrossOpens(t *testing.T) {
	noEnvFile(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	ctx := t.Context()
	embedder := agentstesting.NewFakeEmbedder(8)
	open := func() *memory.FinancialSituationMemory {
		m, err := memory.NewFinancialSituationMemory(ctx, "trader_memory", memory.FinancialSituationMemoryParams{
			Embedder:    embedder,
			StoreConfig: cfg.StoreConfig(),
		})
		require.NoError(t, err)
		return m
	}

	m := open()
	require.NoError(t, m.AddSituations(ctx, []memory.SituationAdvice{
		{Situation: "Rising rates squeeze tech valuations", Recommendation: "Trim growth exposure"},
	}))
	require.NoError(t, m.Close())

	m = open()
	defer func() { assert.NoError(t, m.Close()) }()

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	matches, err := m.GetMemories(ctx, "Rising rates squeeze tech valuations", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Trim growth exposure", matches[0].Recommendation)
	assert.FileExists(t, "tradingagents.db")
}

func TestStoreConfig(t *testing.T) {
	empty := &Config{}
	assert.Equal(t, memory.StoreConfig{Kind: memory.StoreSQLite, DSN: DefaultMemoryDSN}, empty.StoreConfig())

	explicit := &Config{Memory: MemoryConfig{Store: "SQLite", DSN: "/var/lib/agents.db"}}
	assert.Equal(t, memory.StoreConfig{Kind: memory.StoreSQLite, DSN: "/var/lib/agents.db"}, explicit.StoreConfig())
}
