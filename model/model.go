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

package model

import (
	"strings"

	"sigs.k8s.io/hiero-decoder/grammar"
)

// Kind tells the chart how much context a model needs.
type Kind int

const (
	// Stateless models price a rule on its own. Their cost is folded into
	// Rule.StatelessCost when the grammar is loaded.
	Stateless Kind = iota
	// Contextual models additionally look at the span.
	Contextual
	// Stateful models depend on the antecedents' states.
	Stateful
)

func (k Kind) String() string {
	switch k {
	case Stateless:
		return "stateless"
	case Contextual:
		return "contextual"
	case Stateful:
		return "stateful"
	}
	return "unknown"
}

// State is the part of a derivation a stateful model needs to score
// future combinations. Two states with the same key are interchangeable.
type State interface {
	Key() string
}

// Bundle holds one State per model of a Set, by position. Entries of
// models that keep no state are nil.
type Bundle []State

// Key is the recombination key of the bundle.
func (b Bundle) Key() string {
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, s := range b {
		if i > 0 {
			sb.WriteByte('|')
		}
		if s != nil {
			sb.WriteString(s.Key())
		}
	}
	return sb.String()
}

// Transition is the unweighted result of applying a rule under a model.
type Transition struct {
	Cost float64
	// Bonus is a future cost estimate for the parts of the new item the
	// model could not score yet.
	Bonus float64
	State State
}

// Model is one scoring component. Costs are unweighted; callers multiply
// by Weight.
type Model interface {
	Kind() Kind
	Weight() float64
	// Estimate prices a rule without any context.
	Estimate(r *grammar.Rule) float64
	// Transition prices applying r over [i,j) to antecedents with the given
	// states, which are ordered like the rule's source nonterminals.
	Transition(r *grammar.Rule, ants []State, i, j int) Transition
	// FinalTransition prices turning an item with state s into a goal item.
	FinalTransition(s State) float64
}

// Set is the ordered list of models used in a decode.
type Set struct {
	models []Model
}

func NewSet(models ...Model) *Set {
	return &Set{models: models}
}

func (s *Set) Models() []Model {
	if s == nil {
		return nil
	}
	return s.models
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.models)
}

// Estimate implements grammar.Estimator: stateless is the weighted cost of
// the stateless models, estimate the weighted estimate of every model.
func (s *Set) Estimate(r *grammar.Rule) (stateless, estimate float64) {
	for _, m := range s.Models() {
		cost := m.Estimate(r) * m.Weight()
		estimate += cost
		if m.Kind() == Stateless {
			stateless += cost
		}
	}
	return stateless, estimate
}

var _ grammar.Estimator = &Set{}
