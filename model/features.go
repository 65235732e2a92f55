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
	"math"

	"sigs.k8s.io/hiero-decoder/grammar"
	"sigs.k8s.io/hiero-decoder/symbol"
)

// Alpha is the per-event cost of the penalty features.
var Alpha = math.Log10(math.E)

// stateless provides the context free half of the Model interface.
type stateless struct {
	weight float64
}

func (s stateless) Kind() Kind {
	return Stateless
}

func (s stateless) Weight() float64 {
	return s.weight
}

func (s stateless) FinalTransition(State) float64 {
	return 0
}

// WordPenalty charges Alpha per target terminal.
type WordPenalty struct {
	stateless
}

func NewWordPenalty(weight float64) *WordPenalty {
	return &WordPenalty{stateless{weight}}
}

func (m *WordPenalty) Estimate(r *grammar.Rule) float64 {
	n := 0
	for _, a := range r.TargetAnts {
		if a < 0 {
			n++
		}
	}
	return Alpha * float64(n)
}

func (m *WordPenalty) Transition(r *grammar.Rule, _ []State, _, _ int) Transition {
	return Transition{Cost: m.Estimate(r)}
}

// PhraseModel reads one score column of the rules it owns.
type PhraseModel struct {
	stateless
	Owner  symbol.ID
	Column int
}

func NewPhraseModel(owner symbol.ID, column int, weight float64) *PhraseModel {
	return &PhraseModel{stateless: stateless{weight}, Owner: owner, Column: column}
}

func (m *PhraseModel) Estimate(r *grammar.Rule) float64 {
	if r.Owner != m.Owner || m.Column >= len(r.Scores) {
		return 0
	}
	return r.Scores[m.Column]
}

func (m *PhraseModel) Transition(r *grammar.Rule, _ []State, _, _ int) Transition {
	return Transition{Cost: m.Estimate(r)}
}

// PhrasePenalty charges Alpha for every rule of its owner.
type PhrasePenalty struct {
	stateless
	Owner symbol.ID
}

func NewPhrasePenalty(owner symbol.ID, weight float64) *PhrasePenalty {
	return &PhrasePenalty{stateless: stateless{weight}, Owner: owner}
}

func (m *PhrasePenalty) Estimate(r *grammar.Rule) float64 {
	if r.Owner != m.Owner {
		return 0
	}
	return Alpha
}

func (m *PhrasePenalty) Transition(r *grammar.Rule, _ []State, _, _ int) Transition {
	return Transition{Cost: m.Estimate(r)}
}

// ArityPhrasePenalty is PhrasePenalty restricted to rules whose arity
// lies in [MinArity, MaxArity].
type ArityPhrasePenalty struct {
	stateless
	Owner              symbol.ID
	MinArity, MaxArity int
}

func NewArityPhrasePenalty(owner symbol.ID, minArity, maxArity int, weight float64) *ArityPhrasePenalty {
	return &ArityPhrasePenalty{stateless: stateless{weight}, Owner: owner, MinArity: minArity, MaxArity: maxArity}
}

func (m *ArityPhrasePenalty) Estimate(r *grammar.Rule) float64 {
	if r.Owner != m.Owner || r.Arity < m.MinArity || r.Arity > m.MaxArity {
		return 0
	}
	return Alpha
}

func (m *ArityPhrasePenalty) Transition(r *grammar.Rule, _ []State, _, _ int) Transition {
	return Transition{Cost: m.Estimate(r)}
}

var (
	_ Model = &WordPenalty{}
	_ Model = &PhraseModel{}
	_ Model = &PhrasePenalty{}
	_ Model = &ArityPhrasePenalty{}
)
