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

import "fmt"

// VendorError is an error reported by a data vendor, either as a non-2xx
// HTTP status or as an error payload in a successful reply.
type VendorError struct {
	Vendor   string
	Function string

	// Zero when the vendor replied 200 with an error payload.
	StatusCode int

	Message string
}

func (err *VendorError) Error() string {
	if err.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed with status %d: %s", err.Vendor, err.Function, err.StatusCode, err.Message)
	}
	return fmt.Sprintf("%s %s: %s", err.Vendor, err.Function, err.Message)
}
