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

// Package logging holds the process-wide structured logger shared by the
// memory, model and analyst packages.
package logging

import (
	"log/slog"
	"os"
	"sync/atomic"
)

var tradingLogger atomic.Pointer[slog.Logger]

// DontLogModelData, when true, keeps prompts, tool arguments and model
// replies out of debug logs.
var DontLogModelData = true

func init() {
	ResetLogger()
}

// Logger returns the global logger.
// By default, it is a logger with a text handler which writes to stderr,
// with minimum level "info". You can change it with SetLogger.
func Logger() *slog.Logger {
	return tradingLogger.Load()
}

// SetLogger sets the global logger.
// A nil value is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		tradingLogger.Store(l)
	}
}

func ResetLogger() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	SetLogger(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}

// EnableVerboseStdoutLogging switches the global logger to debug level and
// lets model data through.
func EnableVerboseStdoutLogging() {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	tradingLogger.Store(slog.New(slog.NewTextHandler(os.Stdout, opts)))
	DontLogModelData = false
}
