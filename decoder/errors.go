/*
Copyright 2020 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package decoder

import (
	"fmt"
)

// SearchFailure means no derivation covers the whole sentence. Callers
// decoding a batch should skip the sentence and carry on.
type SearchFailure struct {
	Length int
	Reason string
}

func (e *SearchFailure) Error() string {
	return fmt.Sprintf("no derivation covers the sentence of length %d: %s", e.Length, e.Reason)
}

// InvariantViolation reports chart bookkeeping that went wrong. It is a
// bug, never an expected outcome of a decode.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string {
	return "chart invariant violated: " + e.Msg
}

// ScoreError is returned when a model produces a cost that is not a finite
// number.
type ScoreError struct {
	// Model is the position of the model in the set, -1 when the value is
	// a sum over models.
	Model int
	Rule  string
	Value float64
}

func (e *ScoreError) Error() string {
	if e.Model < 0 {
		return fmt.Sprintf("non finite cost %v for rule %s", e.Value, e.Rule)
	}
	return fmt.Sprintf("model %d returned non finite cost %v for rule %s", e.Model, e.Value, e.Rule)
}
