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

package embedding

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrMissingAPIKey is returned by GoogleEmbedder when GOOGLE_API_KEY is unset.
var ErrMissingAPIKey = errors.New("GOOGLE_API_KEY is not set. Please export GOOGLE_API_KEY to use Google embeddings")

// ErrUnexpectedResponse is returned when an upstream reply carries no vector.
var ErrUnexpectedResponse = errors.New("unexpected embeddings response shape")

// maxErrorBodyLen bounds the characters of the response kept in a StatusError.
const maxErrorBodyLen = 300

// StatusError reports a non-success HTTP reply from an embeddings endpoint.
type StatusError struct {
	StatusCode int

	// The first characters of the response body.
	Body string
}

func (err *StatusError) Error() string {
	return fmt.Sprintf("google embeddings error %d: %s", err.StatusCode, err.Body)
}

func newStatusError(statusCode int, body []byte) *StatusError {
	return &StatusError{StatusCode: statusCode, Body: truncate(body, maxErrorBodyLen)}
}

// truncate keeps at most n runes of body, never splitting one.
func truncate(body []byte, n int) string {
	i := 0
	for ; n > 0 && i < len(body); n-- {
		_, size := utf8.DecodeRune(body[i:])
		i += size
	}
	return string(body[:i])
}
