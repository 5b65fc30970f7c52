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

package trading

import (
	"strings"

	"github.com/nlpodyssey/tradingagents-go/analysts"
)

// Reports holds the analyst reports of one run.
type Reports struct {
	Market       string `json:"market_report,omitempty"`
	Sentiment    string `json:"sentiment_report,omitempty"`
	News         string `json:"news_report,omitempty"`
	Fundamentals string `json:"fundamentals_report,omitempty"`
}

// Set stores the report written by an analyst of the given kind.
func (r *Reports) Set(kind analysts.Kind, report string) {
	switch kind {
	case analysts.Market:
		r.Market = report
	case analysts.Social:
		r.Sentiment = report
	case analysts.News:
		r.News = report
	case analysts.Fundamentals:
		r.Fundamentals = report
	}
}

// Situation is the text embedded to look up and store memories.
func (r Reports) Situation() string {
	return strings.Join([]string{r.Market, r.Sentiment, r.News, r.Fundamentals}, "\n\n")
}

// TradeState is the input shared by the trader and the reflector.
type TradeState struct {
	Ticker    string
	TradeDate string
	Reports   Reports
}
