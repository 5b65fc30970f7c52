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

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/nlpodyssey/tradingagents-go/dataflows"
	"github.com/nlpodyssey/tradingagents-go/llm"
	"github.com/nlpodyssey/tradingagents-go/logging"
	"github.com/nlpodyssey/tradingagents-go/memory"
	"github.com/nlpodyssey/tradingagents-go/tools"
)

const traderMemoryName = "trader_memory"

func openMemory(ctx context.Context, name string) (*memory.FinancialSituationMemory, error) {
	return memory.NewFinancialSituationMemory(ctx, name, memory.FinancialSituationMemoryParams{
		Embedding:   cfg.EmbeddingParams(),
		StoreConfig: cfg.StoreConfig(),
	})
}

func newVendor() (dataflows.Vendor, error) {
	params := cfg.AlphaVantageParams()
	if cfg.Redis.URL != "" {
		cache, err := dataflows.NewRedisCacheFromURL(cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		params.Cache = cache
	}
	return dataflows.NewAlphaVantage(params)
}

func newModels(ctx context.Context) (quick, deep llm.Model, err error) {
	if quick, err = llm.NewModel(ctx, cfg.ModelParams(cfg.QuickThinkLLM)); err != nil {
		return nil, nil, fmt.Errorf("quick thinking model: %w", err)
	}
	if deep, err = llm.NewModel(ctx, cfg.ModelParams(cfg.DeepThinkLLM)); err != nil {
		return nil, nil, fmt.Errorf("deep thinking model: %w", err)
	}
	return quick, deep, nil
}

// connectMCPServers starts each command line as a stdio MCP server.
func connectMCPServers(ctx context.Context, commandLines []string) (_ []*tools.MCPClientSession, err error) {
	var sessions []*tools.MCPClientSession
	defer func() {
		if err != nil {
			err = errors.Join(err, closeMCPServers(sessions))
		}
	}()

	for i, line := range commandLines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := fmt.Sprintf("mcp_server_%d", i)
		session := tools.NewMCPServerStdio(name, exec.Command(fields[0], fields[1:]...))
		if err := session.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connecting to %q: %w", line, err)
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func asMCPServers(sessions []*tools.MCPClientSession) []tools.MCPServer {
	servers := make([]tools.MCPServer, len(sessions))
	for i, s := range sessions {
		servers[i] = s
	}
	return servers
}

func closeMCPServers(sessions []*tools.MCPClientSession) error {
	var errs []error
	for _, s := range sessions {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// buildRegistry registers the vendor toolkit; tools served by the MCP
// servers take precedence over vendor tools with the same name.
func buildRegistry(ctx context.Context, vendor dataflows.Vendor, servers ...tools.MCPServer) (*tools.Registry, error) {
	registry, err := dataflows.NewToolRegistry(vendor)
	if err != nil {
		return nil, err
	}
	for _, server := range servers {
		fns, err := tools.MCPTools(ctx, server)
		if err != nil {
			return nil, err
		}
		if err := registry.Override(fns...); err != nil {
			return nil, err
		}
		for _, f := range fns {
			logging.Logger().Debug("Registered MCP tool", slog.String("server", server.Name()), slog.String("tool", f.Name))
		}
	}
	return registry, nil
}
