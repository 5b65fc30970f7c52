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

import "fmt"

// MaxTurnsExceededError is returned when an analyst keeps calling tools
// past its turn budget.
type MaxTurnsExceededError error

func MaxTurnsExceededErrorf(format string, a ...any) MaxTurnsExceededError {
	return MaxTurnsExceededError(fmt.Errorf(format, a...))
}

// ModelBehaviorError is returned when the model does something unexpected,
// e.g. calling a tool the analyst does not have.
type ModelBehaviorError error

func ModelBehaviorErrorf(format string, a ...any) ModelBehaviorError {
	return ModelBehaviorError(fmt.Errorf(format, a...))
}
