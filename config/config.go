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

// Package config loads the settings of the trading agents from a YAML file,
// a .env file and TRADINGAGENTS_* environment variables.
package config

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nlpodyssey/tradingagents-go/analysts"
	"github.com/nlpodyssey/tradingagents-go/dataflows"
	"github.com/nlpodyssey/tradingagents-go/embedding"
	"github.com/nlpodyssey/tradingagents-go/llm"
	"github.com/nlpodyssey/tradingagents-go/logging"
	"github.com/nlpodyssey/tradingagents-go/memory"
	"github.com/spf13/viper"
)

const (
	FileName  = "tradingagents"
	EnvPrefix = "TRADINGAGENTS"
)

// DefaultMemoryDSN is the SQLite database file, relative to the working
// directory, used when memory.store is sqlite and memory.dsn is empty.
const DefaultMemoryDSN = "file:tradingagents.db"

type Config struct {
	LLMProvider   string `mapstructure:"llm_provider"`
	DeepThinkLLM  string `mapstructure:"deep_think_llm"`
	QuickThinkLLM string `mapstructure:"quick_think_llm"`
	BackendURL    string `mapstructure:"backend_url"`

	// Optional API key for the chat model provider. When empty, each SDK
	// reads its own environment variable.
	APIKey string `mapstructure:"api_key"`

	// Optional embedding model; see embedding.ResolveModel.
	EmbeddingModel string `mapstructure:"embedding_model"`

	MaxToolTurns     int      `mapstructure:"max_tool_turns"`
	SelectedAnalysts []string `mapstructure:"selected_analysts"`

	Memory     MemoryConfig     `mapstructure:"memory"`
	DataVendor DataVendorConfig `mapstructure:"data_vendor"`
	Redis      RedisConfig      `mapstructure:"redis"`
}

type MemoryConfig struct {
	Store string `mapstructure:"store"`
	DSN   string `mapstructure:"dsn"`
	Addr  string `mapstructure:"addr"`
}

type DataVendorConfig struct {
	Name              string        `mapstructure:"name"`
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

type RedisConfig struct {
	// Optional. When set, vendor replies are cached in Redis.
	URL string `mapstructure:"url"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm_provider", "openai")
	v.SetDefault("deep_think_llm", "o4-mini")
	v.SetDefault("quick_think_llm", "gpt-4o-mini")
	v.SetDefault("backend_url", "https://api.openai.com/v1")
	v.SetDefault("api_key", "")
	v.SetDefault("embedding_model", "")
	v.SetDefault("max_tool_turns", analysts.DefaultMaxTurns)
	v.SetDefault("selected_analysts", []string{"market", "social", "news", "fundamentals"})

	v.SetDefault("memory.store", string(memory.StoreSQLite))
	v.SetDefault("memory.dsn", "")
	v.SetDefault("memory.addr", "")

	v.SetDefault("data_vendor.name", "alpha_vantage")
	v.SetDefault("data_vendor.api_key", "")
	v.SetDefault("data_vendor.base_url", dataflows.DefaultAlphaVantageURL)
	v.SetDefault("data_vendor.requests_per_minute", dataflows.DefaultRequestsPerMinute)
	v.SetDefault("data_vendor.cache_ttl", dataflows.DefaultCacheTTL)

	v.SetDefault("redis.url", "")
}

// Load reads the configuration.
//
// The .env file named by ENV_FILE (default ".env") is loaded first, if it
// exists; it never overrides variables already set. Then path is read when
// given, otherwise tradingagents.yaml is looked up in ./config and the
// working directory, and a missing file is not an error. Environment
// variables such as TRADINGAGENTS_QUICK_THINK_LLM or
// TRADINGAGENTS_MEMORY_STORE override both.
func Load(path string) (*Config, error) {
	envFile := cmp.Or(os.Getenv("ENV_FILE"), ".env")
	if err := godotenv.Load(envFile); err != nil {
		logging.Logger().Debug("No .env file loaded", slog.String("file", envFile))
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		logging.Logger().Debug("Config file not found, using defaults and environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.MaxToolTurns <= 0 {
		return fmt.Errorf("max_tool_turns must be positive, got %d", c.MaxToolTurns)
	}
	if c.DataVendor.Name != "alpha_vantage" {
		return fmt.Errorf("unsupported data vendor %q", c.DataVendor.Name)
	}
	if _, err := c.Analysts(); err != nil {
		return err
	}
	return nil
}

// Analysts returns the selected analyst kinds, in order.
func (c *Config) Analysts() ([]analysts.Kind, error) {
	kinds := make([]analysts.Kind, 0, len(c.SelectedAnalysts))
	for _, name := range c.SelectedAnalysts {
		if strings.TrimSpace(name) == "" {
			continue
		}
		k, err := analysts.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func (c *Config) ModelParams(model string) llm.ProviderParams {
	return llm.ProviderParams{
		Provider:   c.LLMProvider,
		Model:      model,
		BackendURL: c.BackendURL,
		APIKey:     c.APIKey,
	}
}

func (c *Config) EmbeddingParams() embedding.Params {
	params := embedding.Params{
		Provider:   c.LLMProvider,
		BackendURL: c.BackendURL,
		Model:      c.EmbeddingModel,
	}
	// Anthropic keys are not valid for embeddings.
	if embedding.NormalizeProvider(c.LLMProvider) != embedding.ProviderAnthropic {
		params.APIKey = c.APIKey
	}
	return params
}

func (c *Config) StoreConfig() memory.StoreConfig {
	kind := memory.StoreKind(cmp.Or(strings.ToLower(c.Memory.Store), string(memory.StoreSQLite)))
	dsn := c.Memory.DSN
	if kind == memory.StoreSQLite && dsn == "" {
		dsn = DefaultMemoryDSN
	}
	return memory.StoreConfig{
		Kind: kind,
		DSN:  dsn,
		Addr: c.Memory.Addr,
	}
}

func (c *Config) AlphaVantageParams() dataflows.AlphaVantageParams {
	return dataflows.AlphaVantageParams{
		APIKey:            c.DataVendor.APIKey,
		BaseURL:           c.DataVendor.BaseURL,
		RequestsPerMinute: c.DataVendor.RequestsPerMinute,
		CacheTTL:          c.DataVendor.CacheTTL,
	}
}
