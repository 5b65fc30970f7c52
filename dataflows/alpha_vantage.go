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
	"bytes"
	"cmp"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nlpodyssey/tradingagents-go/logging"
	"github.com/nlpodyssey/tradingagents-go/metrics"
	"golang.org/x/time/rate"
)

const (
	DefaultAlphaVantageURL   = "https://www.alphavantage.co/query"
	DefaultRequestsPerMinute = 60
	DefaultCacheTTL          = 24 * time.Hour
)

const alphaVantageName = "alpha_vantage"

// ErrMissingAlphaVantageKey is returned when no API key is configured and
// ALPHA_VANTAGE_API_KEY is unset.
var ErrMissingAlphaVantageKey = errors.New("ALPHA_VANTAGE_API_KEY is not set")

// maxErrorBodyLen bounds the characters of an error reply kept in a VendorError.
const maxErrorBodyLen = 300

type AlphaVantageParams struct {
	// Optional API key. Defaults to the ALPHA_VANTAGE_API_KEY environment variable.
	APIKey string

	// Optional endpoint. Defaults to DefaultAlphaVantageURL.
	BaseURL string

	// Optional HTTP client. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Optional request budget. Defaults to DefaultRequestsPerMinute.
	RequestsPerMinute int

	// Optional reply cache.
	Cache Cache

	// Optional cache TTL. Defaults to DefaultCacheTTL.
	CacheTTL time.Duration
}

// AlphaVantage is a Vendor backed by the Alpha Vantage query API.
type AlphaVantage struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
	cacheTTL   time.Duration
}

func NewAlphaVantage(params AlphaVantageParams) (*AlphaVantage, error) {
	apiKey := cmp.Or(params.APIKey, os.Getenv("ALPHA_VANTAGE_API_KEY"))
	if apiKey == "" {
		return nil, ErrMissingAlphaVantageKey
	}
	rpm := cmp.Or(params.RequestsPerMinute, DefaultRequestsPerMinute)
	if rpm < 0 {
		return nil, fmt.Errorf("requests per minute must be positive, got %d", rpm)
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &AlphaVantage{
		apiKey:     apiKey,
		baseURL:    cmp.Or(params.BaseURL, DefaultAlphaVantageURL),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		cache:      params.Cache,
		cacheTTL:   cmp.Or(params.CacheTTL, DefaultCacheTTL),
	}, nil
}

func (av *AlphaVantage) Name() string { return alphaVantageName }

func (av *AlphaVantage) Fundamentals(ctx context.Context, ticker string) (string, error) {
	symbol, err := normalizeTicker(ticker)
	if err != nil {
		return "", err
	}
	return av.query(ctx, "OVERVIEW", url.Values{"symbol": {symbol}})
}

func (av *AlphaVantage) BalanceSheet(ctx context.Context, ticker string, freq Frequency) (string, error) {
	return av.statement(ctx, "BALANCE_SHEET", "Balance sheet", ticker, freq)
}

func (av *AlphaVantage) CashFlow(ctx context.Context, ticker string, freq Frequency) (string, error) {
	return av.statement(ctx, "CASH_FLOW", "Cash flow statement", ticker, freq)
}

func (av *AlphaVantage) IncomeStatement(ctx context.Context, ticker string, freq Frequency) (string, error) {
	return av.statement(ctx, "INCOME_STATEMENT", "Income statement", ticker, freq)
}

// statement keeps only the reports of the requested frequency.
func (av *AlphaVantage) statement(ctx context.Context, function, title, ticker string, freq Frequency) (string, error) {
	symbol, err := normalizeTicker(ticker)
	if err != nil {
		return "", err
	}
	body, err := av.query(ctx, function, url.Values{"symbol": {symbol}})
	if err != nil {
		return "", err
	}

	var reports struct {
		Symbol    string            `json:"symbol"`
		Annual    []json.RawMessage `json:"annualReports"`
		Quarterly []json.RawMessage `json:"quarterlyReports"`
	}
	if err := json.Unmarshal([]byte(body), &reports); err != nil {
		return body, nil
	}
	selected := reports.Quarterly
	if freq == Annual {
		selected = reports.Annual
	}
	if len(selected) == 0 {
		return fmt.Sprintf("No %s %s data found for symbol '%s'", freq, strings.ToLower(title), symbol), nil
	}
	out, err := json.MarshalIndent(selected, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("# %s (%s) for %s\n\n%s", title, freq, cmp.Or(reports.Symbol, symbol), out), nil
}

func (av *AlphaVantage) InsiderTransactions(ctx context.Context, ticker string) (string, error) {
	symbol, err := normalizeTicker(ticker)
	if err != nil {
		return "", err
	}
	return av.query(ctx, "INSIDER_TRANSACTIONS", url.Values{"symbol": {symbol}})
}

func (av *AlphaVantage) StockData(ctx context.Context, ticker, startDate, endDate string) (string, error) {
	symbol, err := normalizeTicker(ticker)
	if err != nil {
		return "", err
	}
	start, err := parseDate("start date", startDate)
	if err != nil {
		return "", err
	}
	end, err := parseDate("end date", endDate)
	if err != nil {
		return "", err
	}
	if end.Before(start) {
		return "", fmt.Errorf("end date %s is before start date %s", endDate, startDate)
	}

	body, err := av.query(ctx, "TIME_SERIES_DAILY", url.Values{
		"symbol":     {symbol},
		"outputsize": {"full"},
		"datatype":   {"csv"},
	})
	if err != nil {
		return "", err
	}

	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to parse stock data CSV: %w", err)
	}
	if len(records) == 0 {
		return fmt.Sprintf("No data found for symbol '%s' between %s and %s", symbol, startDate, endDate), nil
	}

	header, rows := records[0], records[1:]
	rows = slices.DeleteFunc(rows, func(row []string) bool {
		if len(row) == 0 {
			return true
		}
		day, err := time.Parse(DateLayout, row[0])
		return err != nil || day.Before(start) || day.After(end)
	})
	if len(rows) == 0 {
		return fmt.Sprintf("No data found for symbol '%s' between %s and %s", symbol, startDate, endDate), nil
	}
	slices.SortFunc(rows, func(a, b []string) int { return strings.Compare(a[0], b[0]) })

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "# Stock data for %s from %s to %s\n# Total records: %d\n\n", symbol, startDate, endDate, len(rows))
	w := csv.NewWriter(&buf)
	_ = w.Write(header)
	_ = w.WriteAll(rows)
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type indicatorSpec struct {
	function    string
	timePeriod  int
	field       string
	description string
}

var indicatorSpecs = map[string]indicatorSpec{
	"close_50_sma":  {"SMA", 50, "SMA", "50 SMA: a medium-term trend indicator. Use it to identify trend direction and as dynamic support/resistance."},
	"close_200_sma": {"SMA", 200, "SMA", "200 SMA: a long-term trend benchmark. Use it to confirm the overall market trend and spot golden/death cross setups."},
	"close_10_ema":  {"EMA", 10, "EMA", "10 EMA: a responsive short-term average. Use it to capture quick shifts in momentum and potential entry points."},
	"macd":          {"MACD", 0, "MACD", "MACD: momentum computed as the difference of EMAs. Look for crossovers and divergence as signals of trend change."},
	"macds":         {"MACD", 0, "MACD_Signal", "MACD Signal: an EMA smoothing of the MACD line. Crossovers with the MACD line trigger trades."},
	"macdh":         {"MACD", 0, "MACD_Hist", "MACD Histogram: the gap between MACD and its signal. Visualizes momentum strength and spots divergence early."},
	"rsi":           {"RSI", 14, "RSI", "RSI: momentum measuring overbought/oversold conditions with 70/30 thresholds. Watch for divergence to signal reversals."},
	"boll":          {"BBANDS", 20, "Real Middle Band", "Bollinger Middle: a 20 SMA serving as the basis for Bollinger Bands. Acts as a dynamic benchmark for price movement."},
	"boll_ub":       {"BBANDS", 20, "Real Upper Band", "Bollinger Upper Band: typically 2 standard deviations above the middle line. Signals potential overbought conditions and breakout zones."},
	"boll_lb":       {"BBANDS", 20, "Real Lower Band", "Bollinger Lower Band: typically 2 standard deviations below the middle line. Indicates potential oversold conditions."},
	"atr":           {"ATR", 14, "ATR", "ATR: averages true range to measure volatility. Use it to set stop-loss levels and adjust position sizes."},
}

// SupportedIndicators lists the indicator names Indicator accepts.
func SupportedIndicators() []string {
	return slices.Sorted(maps.Keys(indicatorSpecs))
}

func (av *AlphaVantage) Indicator(ctx context.Context, ticker, indicator, currDate string, lookBackDays int) (string, error) {
	symbol, err := normalizeTicker(ticker)
	if err != nil {
		return "", err
	}
	spec, ok := indicatorSpecs[strings.ToLower(strings.TrimSpace(indicator))]
	if !ok {
		return "", fmt.Errorf("indicator %q is not supported, choose one of: %s", indicator, strings.Join(SupportedIndicators(), ", "))
	}
	end, err := parseDate("current date", currDate)
	if err != nil {
		return "", err
	}
	if lookBackDays < 0 {
		return "", fmt.Errorf("look back days must not be negative, got %d", lookBackDays)
	}
	start := end.AddDate(0, 0, -lookBackDays)

	args := url.Values{
		"symbol":      {symbol},
		"interval":    {"daily"},
		"series_type": {"close"},
	}
	if spec.timePeriod > 0 {
		args.Set("time_period", strconv.Itoa(spec.timePeriod))
	}
	body, err := av.query(ctx, spec.function, args)
	if err != nil {
		return "", err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return "", fmt.Errorf("failed to parse %s response: %w", spec.function, err)
	}
	var series map[string]map[string]string
	for key, raw := range payload {
		if strings.HasPrefix(key, "Technical Analysis") {
			if err := json.Unmarshal(raw, &series); err != nil {
				return "", fmt.Errorf("failed to parse %s series: %w", spec.function, err)
			}
			break
		}
	}
	if series == nil {
		return "", &VendorError{Vendor: alphaVantageName, Function: spec.function, Message: "no technical analysis series in response"}
	}

	var days []string
	for day := range series {
		t, err := time.Parse(DateLayout, day)
		if err != nil || t.Before(start) || t.After(end) {
			continue
		}
		days = append(days, day)
	}
	slices.Sort(days)
	slices.Reverse(days)

	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "## %s values from %s to %s:\n\n", indicator, start.Format(DateLayout), currDate)
	if len(days) == 0 {
		sb.WriteString("No data available for the selected range.\n")
	}
	for _, day := range days {
		_, _ = fmt.Fprintf(&sb, "%s: %s\n", day, cmp.Or(series[day][spec.field], "N/A"))
	}
	sb.WriteString("\n")
	sb.WriteString(spec.description)
	return sb.String(), nil
}

func (av *AlphaVantage) News(ctx context.Context, ticker, startDate, endDate string) (string, error) {
	symbol, err := normalizeTicker(ticker)
	if err != nil {
		return "", err
	}
	start, err := parseDate("start date", startDate)
	if err != nil {
		return "", err
	}
	end, err := parseDate("end date", endDate)
	if err != nil {
		return "", err
	}
	return av.query(ctx, "NEWS_SENTIMENT", url.Values{
		"tickers":   {symbol},
		"time_from": {newsTime(start, false)},
		"time_to":   {newsTime(end, true)},
		"sort":      {"LATEST"},
		"limit":     {"50"},
	})
}

const globalNewsTopics = "financial_markets,economy_macro,economy_monetary"

func (av *AlphaVantage) GlobalNews(ctx context.Context, currDate string, lookBackDays, limit int) (string, error) {
	end, err := parseDate("current date", currDate)
	if err != nil {
		return "", err
	}
	if lookBackDays < 0 {
		return "", fmt.Errorf("look back days must not be negative, got %d", lookBackDays)
	}
	if limit <= 0 {
		limit = 50
	}
	return av.query(ctx, "NEWS_SENTIMENT", url.Values{
		"topics":    {globalNewsTopics},
		"time_from": {newsTime(end.AddDate(0, 0, -lookBackDays), false)},
		"time_to":   {newsTime(end, true)},
		"sort":      {"LATEST"},
		"limit":     {strconv.Itoa(limit)},
	})
}

// query performs one API call. The cache key is made of the function and
// its arguments, never the API key.
func (av *AlphaVantage) query(ctx context.Context, function string, args url.Values) (_ string, err error) {
	args = maps.Clone(args)
	if args == nil {
		args = url.Values{}
	}
	args.Set("function", function)
	cacheKey := alphaVantageName + ":" + args.Encode()

	if av.cache != nil {
		value, ok, err := av.cache.Get(ctx, cacheKey)
		switch {
		case err != nil:
			logging.Logger().Warn("Data cache lookup failed", slog.String("key", cacheKey), slog.String("error", err.Error()))
		case ok:
			logging.Logger().Debug("Data cache hit", slog.String("key", cacheKey))
			return value, nil
		}
	}

	if err := av.limiter.Wait(ctx); err != nil {
		return "", err
	}

	defer func() {
		metrics.VendorRequests.WithLabelValues(alphaVantageName, function, metrics.Outcome(err)).Inc()
	}()

	q := maps.Clone(args)
	q.Set("apikey", av.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, av.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	logging.Logger().Debug("Alpha Vantage request", slog.String("function", function))

	resp, err := av.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("alpha vantage %s request failed: %w", function, err)
	}
	defer func() {
		if e := resp.Body.Close(); e != nil {
			err = errors.Join(err, e)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &VendorError{Vendor: alphaVantageName, Function: function, StatusCode: resp.StatusCode, Message: truncate(body, maxErrorBodyLen)}
	}
	if err := checkErrorPayload(function, body); err != nil {
		return "", err
	}

	text := string(body)
	if av.cache != nil {
		if err := av.cache.Set(ctx, cacheKey, text, av.cacheTTL); err != nil {
			logging.Logger().Warn("Data cache store failed", slog.String("key", cacheKey), slog.String("error", err.Error()))
		}
	}
	return text, nil
}

// Alpha Vantage reports bad symbols, exhausted quotas and throttling with
// a 200 reply carrying one of these keys.
var errorPayloadKeys = []string{"Error Message", "Information", "Note"}

func checkErrorPayload(function string, body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if !bytes.HasPrefix(trimmed, []byte("{")) {
		return nil
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil
	}
	for _, key := range errorPayloadKeys {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var message string
		if err := json.Unmarshal(raw, &message); err != nil {
			message = string(raw)
		}
		return &VendorError{Vendor: alphaVantageName, Function: function, Message: message}
	}
	return nil
}

func normalizeTicker(ticker string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" {
		return "", errors.New("ticker symbol is required")
	}
	return symbol, nil
}

// newsTime formats a day as YYYYMMDDTHHMM, at the start or end of the day.
// truncate keeps at most n runes of body, never splitting one.
func truncate(body []byte, n int) string {
	i := 0
	for ; n > 0 && i < len(body); n-- {
		_, size := utf8.DecodeRune(body[i:])
		i += size
	}
	return string(body[:i])
}

func newsTime(day time.Time, endOfDay bool) string {
	if endOfDay {
		return day.Format("20060102") + "T2359"
	}
	return day.Format("20060102") + "T0000"
}
