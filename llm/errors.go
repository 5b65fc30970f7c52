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

package llm

import (
	"errors"
	"fmt"
)

// UserError is returned when a model is misconfigured or used with
// arguments it cannot serve.
type UserError error

func NewUserError(message string) UserError {
	return UserError(errors.New(message))
}

func UserErrorf(format string, a ...any) UserError {
	return UserError(fmt.Errorf(format, a...))
}

// ErrEmptyResponse is returned when a provider answers without any choice
// or candidate.
var ErrEmptyResponse = errors.New("model returned an empty response")
