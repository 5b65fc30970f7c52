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

package analysts

import (
	"fmt"
	"strings"
)

// Kind identifies one of the analysts.
type Kind string

const (
	Market       Kind = "market"
	Social       Kind = "social"
	News         Kind = "news"
	Fundamentals Kind = "fundamentals"
)

// DefaultKinds lists every analyst, in the order a pipeline runs them.
var DefaultKinds = []Kind{Market, Social, News, Fundamentals}

// ParseKind accepts an analyst name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := definitions[k]; !ok {
		return "", fmt.Errorf("unknown analyst %q", s)
	}
	return k, nil
}

type definition struct {
	toolNames    []string
	instructions string
}

var definitions = map[Kind]definition{
	Market: {
		toolNames: []string{"get_stock_data", "get_indicators"},
		instructions: "You are a trading assistant tasked with analyzing financial markets. " +
			"Select up to 8 of the most relevant and complementary indicators for the current market condition, " +
			"avoiding redundancy (for example, do not pick both rsi and a second oscillator that says the same thing). " +
			"Available indicators: close_50_sma, close_200_sma, close_10_ema, macd, macds, macdh, rsi, boll, boll_ub, boll_lb, atr. " +
			"Call get_stock_data first to retrieve the price history, then call get_indicators with the exact indicator names. " +
			"Write a very detailed and nuanced report of the trends you observe. " +
			"Do not simply state the trends are mixed, provide detailed and fine-grained analysis and insights that may help traders make decisions." +
			"\n\nMake sure to append a Markdown table at the end of the report to organize key points in the report, organized and easy to read.",
	},
	Social: {
		toolNames: []string{"get_news"},
		instructions: "You are a social media and company specific news researcher/analyst tasked with analyzing social media posts, " +
			"recent company news, and public sentiment for a specific company over the past week. " +
			"Use get_news to search for company-specific news and discussions, and look at what people are saying about the company " +
			"and the sentiment data of what people feel each day. " +
			"Write a comprehensive long report detailing your analysis, insights, and implications for traders and investors on this company's current state. " +
			"Do not simply state the trends are mixed, provide detailed and fine-grained analysis and insights that may help traders make decisions." +
			"\n\nMake sure to append a Markdown table at the end of the report to organize key points in the report, organized and easy to read.",
	},
	News: {
		toolNames: []string{"get_news", "get_global_news", "get_insider_transactions"},
		instructions: "You are a news researcher tasked with analyzing recent news and trends over the past week. " +
			"Write a comprehensive report of the current state of the world that is relevant for trading and macroeconomics. " +
			"Use get_news for company-specific news, get_global_news for broader macroeconomic news and " +
			"get_insider_transactions to see what the company's insiders are doing. " +
			"Do not simply state the trends are mixed, provide detailed and fine-grained analysis and insights that may help traders make decisions." +
			"\n\nMake sure to append a Markdown table at the end of the report to organize key points in the report, organized and easy to read.",
	},
	Fundamentals: {
		toolNames: []string{"get_fundamentals", "get_balance_sheet", "get_cashflow", "get_income_statement"},
		instructions: "You are a researcher tasked with analyzing fundamental information over the past week about a company. " +
			"Please write a comprehensive report of the company's fundamental information such as financial documents, company profile, " +
			"basic company financials, and company financial history to gain a full view of the company's fundamental information to inform traders. " +
			"Make sure to include as much detail as possible. Do not simply state the trends are mixed, provide detailed and finegrained analysis " +
			"and insights that may help traders make decisions." +
			"\n\n**Economic Moat Analysis**: As part of your fundamental analysis, conduct a thorough evaluation of the company's economic moat " +
			"(sustainable competitive advantages). Assess the following:" +
			"\n- **Moat Width**: Classify the moat as Wide (durable advantages lasting 20+ years), Narrow (advantages lasting 10+ years), " +
			"or None (limited competitive advantages)" +
			"\n- **Moat Sources**: Identify and analyze specific competitive advantages from the following categories:" +
			"\n  * **Intangible Assets**: Brand strength, patents, regulatory licenses, proprietary technology" +
			"\n  * **Switching Costs**: Customer lock-in due to high costs or difficulty of switching to competitors" +
			"\n  * **Network Effects**: Product/service value increases with more users (e.g., platforms, marketplaces)" +
			"\n  * **Cost Advantages**: Economies of scale, unique access to resources, process advantages, superior locations" +
			"\n  * **Efficient Scale**: Operating in markets where additional competitors would be economically irrational" +
			"\n  * **Monopolistic Profitability and Market Share Concentration**: Dominant market position leading to superior margins, " +
			"pricing power, and market share concentration that creates barriers to entry" +
			"\n  * **Dominant Ecosystem and Competitive Exclusion**: Control of critical platforms, standards, or ecosystems that create " +
			"competitive barriers and exclude rivals from key markets or customer segments" +
			"\n  * **Scalability and Asset-Light Model**: Ability to grow revenue with minimal incremental capital investment, enabling high " +
			"return on invested capital and rapid expansion without proportional cost increases" +
			"\n- **Moat Durability**: Evaluate the sustainability of these advantages over time, considering technological disruption, " +
			"regulatory changes, and competitive threats" +
			"\n- **Moat Trends**: Assess whether the moat is widening, stable, or narrowing based on recent developments" +
			"\n- **Investment Implications**: Explain how the moat analysis impacts long-term value creation, pricing power, " +
			"and investment attractiveness" +
			"\n\nMake sure to append a Markdown table at the end of the report to organize key points in the report, organized and easy to read. " +
			"The table should include a dedicated row or section for Moat Analysis summary." +
			" Use the available tools: `get_fundamentals` for comprehensive company analysis, `get_balance_sheet`, `get_cashflow`, " +
			"and `get_income_statement` for specific financial statements.",
	},
}

// SystemPrompt renders the collaborator prompt shared by every analyst.
func SystemPrompt(toolNames []string, instructions, currentDate, ticker string) string {
	return "You are a helpful AI assistant, collaborating with other assistants." +
		" Use the provided tools to progress towards answering the question." +
		" If you are unable to fully answer, that's OK; another assistant with different tools" +
		" will help where you left off. Execute what you can to make progress." +
		" If you or any other assistant has the FINAL TRANSACTION PROPOSAL: **BUY/HOLD/SELL** or deliverable," +
		" prefix your response with FINAL TRANSACTION PROPOSAL: **BUY/HOLD/SELL** so the team knows to stop." +
		" You have access to the following tools: " + strings.Join(toolNames, ", ") + ".\n" +
		instructions +
		"For your reference, the current date is " + currentDate + ". The company we want to look at is " + ticker
}
