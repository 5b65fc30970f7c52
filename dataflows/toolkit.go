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
	"fmt"

	"github.com/nlpodyssey/tradingagents-go/tools"
)

const (
	defaultIndicatorLookBack  = 30
	defaultGlobalNewsLookBack = 7
	defaultGlobalNewsLimit    = 5
)

type tickerArgs struct {
	Ticker string `json:"ticker" jsonschema:"description=Ticker symbol of the company (e.g. AAPL)"`
}

type statementArgs struct {
	Ticker string `json:"ticker" jsonschema:"description=Ticker symbol of the company (e.g. AAPL)"`
	Freq   string `json:"freq,omitempty" jsonschema:"description=Reporting frequency; quarterly when omitted,enum=annual,enum=quarterly"`
}

type dateRangeArgs struct {
	Ticker    string `json:"ticker" jsonschema:"description=Ticker symbol of the company (e.g. AAPL)"`
	StartDate string `json:"start_date" jsonschema:"description=Start date in yyyy-mm-dd format"`
	EndDate   string `json:"end_date" jsonschema:"description=End date in yyyy-mm-dd format"`
}

type indicatorArgs struct {
	Ticker       string `json:"ticker" jsonschema:"description=Ticker symbol of the company (e.g. AAPL)"`
	Indicator    string `json:"indicator" jsonschema:"description=Technical indicator to compute,enum=close_50_sma,enum=close_200_sma,enum=close_10_ema,enum=macd,enum=macds,enum=macdh,enum=rsi,enum=boll,enum=boll_ub,enum=boll_lb,enum=atr"`
	CurrDate     string `json:"curr_date" jsonschema:"description=The current trading date in yyyy-mm-dd format"`
	LookBackDays int    `json:"look_back_days,omitempty" jsonschema:"description=How many days to look back; 30 when omitted,minimum=0"`
}

type globalNewsArgs struct {
	CurrDate     string `json:"curr_date" jsonschema:"description=The current date in yyyy-mm-dd format"`
	LookBackDays int    `json:"look_back_days,omitempty" jsonschema:"description=How many days to look back; 7 when omitted,minimum=0"`
	Limit        int    `json:"limit,omitempty" jsonschema:"description=Maximum number of articles; 5 when omitted,minimum=1"`
}

// Toolkit returns the data tools the analysts can call, all served by vendor.
func Toolkit(vendor Vendor) []tools.Function {
	statement := func(name, what string, fetch func(context.Context, string, Frequency) (string, error)) tools.Function {
		return tools.NewFunctionTool(name, fmt.Sprintf("Retrieve %s data for a given ticker symbol.", what),
			func(ctx context.Context, args statementArgs) (string, error) {
				freq, err := ParseFrequency(args.Freq)
				if err != nil {
					return "", err
				}
				return fetch(ctx, args.Ticker, freq)
			})
	}

	return []tools.Function{
		tools.NewFunctionTool("get_fundamentals",
			"Retrieve comprehensive fundamental data (company profile, valuation ratios, margins) for a given ticker symbol.",
			func(ctx context.Context, args tickerArgs) (string, error) {
				return vendor.Fundamentals(ctx, args.Ticker)
			}),
		statement("get_balance_sheet", "balance sheet", vendor.BalanceSheet),
		statement("get_cashflow", "cash flow statement", vendor.CashFlow),
		statement("get_income_statement", "income statement", vendor.IncomeStatement),
		tools.NewFunctionTool("get_stock_data",
			"Retrieve daily stock price data (OHLCV) for a given ticker symbol, as CSV.",
			func(ctx context.Context, args dateRangeArgs) (string, error) {
				return vendor.StockData(ctx, args.Ticker, args.StartDate, args.EndDate)
			}),
		tools.NewFunctionTool("get_indicators",
			"Retrieve the recent values of a technical indicator for a given ticker symbol.",
			func(ctx context.Context, args indicatorArgs) (string, error) {
				lookBack := args.LookBackDays
				if lookBack == 0 {
					lookBack = defaultIndicatorLookBack
				}
				return vendor.Indicator(ctx, args.Ticker, args.Indicator, args.CurrDate, lookBack)
			}),
		tools.NewFunctionTool("get_news",
			"Retrieve news articles and sentiment about a given ticker symbol within a date range.",
			func(ctx context.Context, args dateRangeArgs) (string, error) {
				return vendor.News(ctx, args.Ticker, args.StartDate, args.EndDate)
			}),
		tools.NewFunctionTool("get_global_news",
			"Retrieve global macroeconomic and market news up to a given date.",
			func(ctx context.Context, args globalNewsArgs) (string, error) {
				lookBack := args.LookBackDays
				if lookBack == 0 {
					lookBack = defaultGlobalNewsLookBack
				}
				limit := args.Limit
				if limit == 0 {
					limit = defaultGlobalNewsLimit
				}
				return vendor.GlobalNews(ctx, args.CurrDate, lookBack, limit)
			}),
		tools.NewFunctionTool("get_insider_transactions",
			"Retrieve insider transactions (company executives and directors) for a given ticker symbol.",
			func(ctx context.Context, args tickerArgs) (string, error) {
				return vendor.InsiderTransactions(ctx, args.Ticker)
			}),
	}
}

// NewToolRegistry registers the Toolkit of vendor.
func NewToolRegistry(vendor Vendor) (*tools.Registry, error) {
	return tools.NewRegistry(Toolkit(vendor)...)
}
