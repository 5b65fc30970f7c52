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
	"regexp"
	"strings"
)

// Signal is the final trading decision.
type Signal string

const (
	SignalBuy     Signal = "BUY"
	SignalHold    Signal = "HOLD"
	SignalSell    Signal = "SELL"
	SignalUnknown Signal = "UNKNOWN"
)

var proposalPattern = regexp.MustCompile(`(?i)FINAL\s+TRANSACTION\s+PROPOSAL\s*:?\s*\**\s*(BUY|HOLD|SELL)\b(\s*/)?`)

// ExtractSignal returns the signal of the last FINAL TRANSACTION PROPOSAL
// in text, or SignalUnknown if there is none. The "BUY/HOLD/SELL"
// placeholder is not a proposal.
func ExtractSignal(text string) Signal {
	signal := SignalUnknown
	for _, m := range proposalPattern.FindAllStringSubmatch(text, -1) {
		if m[2] != "" {
			continue
		}
		signal = Signal(strings.ToUpper(m[1]))
	}
	return signal
}
