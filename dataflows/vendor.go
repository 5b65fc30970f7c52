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

// Package dataflows fetches market data, company financials and news for
// the analysts, and exposes them as model-callable tools.
package dataflows

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the date format accepted by every vendor operation.
const DateLayout = "2006-01-02"

// Frequency selects annual or quarterly financial statements.
type Frequency string

const (
	Annual    Frequency = "annual"
	Quarterly Frequency = "quarterly"
)

// ParseFrequency accepts "annual" or "quarterly", case-insensitively.
// An empty value means quarterly.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Quarterly):
		return Quarterly, nil
	case string(Annual):
		return Annual, nil
	default:
		return "", fmt.Errorf("invalid frequency %q: expected annual or quarterly", s)
	}
}

// A Vendor serves the raw text the analysts read. Every date argument uses
// DateLayout.
type Vendor interface {
	Name() string

	Fundamentals(ctx context.Context, ticker string) (string, error)
	BalanceSheet(ctx context.Context, ticker string, freq Frequency) (string, error)
	CashFlow(ctx context.Context, ticker string, freq Frequency) (string, error)
	IncomeStatement(ctx context.Context, ticker string, freq Frequency) (string, error)
	InsiderTransactions(ctx context.Context, ticker string) (string, error)

	// StockData returns daily OHLCV rows, as CSV, between startDate and
	// endDate inclusive.
	StockData(ctx context.Context, ticker, startDate, endDate string) (string, error)

	// Indicator returns the values of a technical indicator over the
	// lookBackDays days ending at currDate.
	Indicator(ctx context.Context, ticker, indicator, currDate string, lookBackDays int) (string, error)

	News(ctx context.Context, ticker, startDate, endDate string) (string, error)
	GlobalNews(ctx context.Context, currDate string, lookBackDays, limit int) (string, error)
}

func parseDate(name, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", name, value)
	}
	return t, nil
}
