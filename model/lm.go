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
	"strconv"

	"sigs.k8s.io/hiero-decoder/grammar"
	"sigs.k8s.io/hiero-decoder/symbol"
)

// DefaultOOVCost is the cost of a word the language model has never seen,
// the srilm convention of a log10 probability of -100.
const DefaultOOVCost = 100.0

// EdgeState keeps the outermost target words of a derivation, all a
// bigram model needs to score it in a larger context. An empty yield has
// both ends set to symbol.None.
type EdgeState struct {
	Left, Right symbol.ID
}

func (s EdgeState) Key() string {
	return strconv.Itoa(int(s.Left)) + " " + strconv.Itoa(int(s.Right))
}

func (s EdgeState) empty() bool {
	return s.Left == symbol.None
}

type unigram struct {
	logProb, backoff float64
}

// BigramLM is a backoff bigram language model over target words. Costs
// are negated log10 probabilities.
type BigramLM struct {
	weight  float64
	oovCost float64

	unigrams map[symbol.ID]unigram
	bigrams  map[[2]symbol.ID]float64
	unk      symbol.ID
}

func NewBigramLM(weight, oovCost float64) *BigramLM {
	return &BigramLM{
		weight:   weight,
		oovCost:  oovCost,
		unigrams: map[symbol.ID]unigram{},
		bigrams:  map[[2]symbol.ID]float64{},
		unk:      symbol.Terminal("<unk>"),
	}
}

func (lm *BigramLM) AddUnigram(word string, logProb, backoff float64) {
	lm.unigrams[symbol.Terminal(word)] = unigram{logProb: logProb, backoff: backoff}
}

func (lm *BigramLM) AddBigram(w1, w2 string, logProb float64) {
	lm.bigrams[[2]symbol.ID{symbol.Terminal(w1), symbol.Terminal(w2)}] = logProb
}

func (lm *BigramLM) Kind() Kind {
	return Stateful
}

func (lm *BigramLM) Weight() float64 {
	return lm.weight
}

// UnigramCost is the cost of w without any history.
func (lm *BigramLM) UnigramCost(w symbol.ID) float64 {
	if u, ok := lm.unigrams[w]; ok {
		return -u.logProb
	}
	if u, ok := lm.unigrams[lm.unk]; ok {
		return -u.logProb
	}
	return lm.oovCost
}

// BigramCost is the cost of w2 following w1, backing off to the unigram.
func (lm *BigramLM) BigramCost(w1, w2 symbol.ID) float64 {
	if lp, ok := lm.bigrams[[2]symbol.ID{w1, w2}]; ok {
		return -lp
	}
	cost := lm.UnigramCost(w2)
	if u, ok := lm.unigrams[w1]; ok {
		cost -= u.backoff
	}
	return cost
}

// Estimate scores each run of target terminals, the first word of a run by
// its unigram cost.
func (lm *BigramLM) Estimate(r *grammar.Rule) float64 {
	cost := 0.0
	prev := symbol.None
	for k, w := range r.Target {
		if r.TargetAnts[k] >= 0 {
			prev = symbol.None
			continue
		}
		if prev == symbol.None {
			cost += lm.UnigramCost(w)
		} else {
			cost += lm.BigramCost(prev, w)
		}
		prev = w
	}
	return cost
}

// Transition scores every bigram that spans a boundary between rule
// terminals and antecedent yields. The new left word has no history yet;
// its unigram cost is returned as the bonus.
func (lm *BigramLM) Transition(r *grammar.Rule, ants []State, _, _ int) Transition {
	var out EdgeState
	cost := 0.0
	extend := func(left, right symbol.ID) {
		if out.empty() {
			out.Left = left
		} else {
			cost += lm.BigramCost(out.Right, left)
		}
		out.Right = right
	}
	for k, w := range r.Target {
		a := r.TargetAnts[k]
		if a < 0 {
			extend(w, w)
			continue
		}
		var s EdgeState
		if a < len(ants) && ants[a] != nil {
			s = ants[a].(EdgeState)
		}
		if !s.empty() {
			extend(s.Left, s.Right)
		}
	}
	t := Transition{Cost: cost, State: out}
	if !out.empty() {
		t.Bonus = lm.UnigramCost(out.Left)
	}
	return t
}

// FinalTransition wraps the yield in sentence boundary markers.
func (lm *BigramLM) FinalTransition(s State) float64 {
	var e EdgeState
	if s != nil {
		e = s.(EdgeState)
	}
	if e.empty() {
		return lm.BigramCost(symbol.Start, symbol.End)
	}
	return lm.BigramCost(symbol.Start, e.Left) + lm.BigramCost(e.Right, symbol.End)
}

var _ Model = &BigramLM{}
