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

package transforms

import (
	"regexp"
	"strings"
)

var nonAlphanumericRegexp = regexp.MustCompile(`[^a-zA-Z0-9]`)

// TransformStringFunctionStyle lower-cases name and replaces every
// non-alphanumeric character with an underscore, producing a string usable
// as a tool or function name.
func TransformStringFunctionStyle(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = nonAlphanumericRegexp.ReplaceAllString(name, "_")
	return strings.ToLower(name)
}

// SQLIdentifier turns a collection name into a safe, unquoted SQL
// identifier. Names starting with a digit get a "c_" prefix and an empty
// name becomes "collection".
func SQLIdentifier(name string) string {
	id := TransformStringFunctionStyle(strings.TrimSpace(name))
	switch {
	case id == "":
		return "collection"
	case id[0] >= '0' && id[0] <= '9':
		return "c_" + id
	default:
		return id
	}
}
