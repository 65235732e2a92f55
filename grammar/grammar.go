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

package grammar

import (
	"fmt"
	"strings"

	"sigs.k8s.io/hiero-decoder/symbol"
)

// MaxArity is the largest number of source nonterminals the chart can
// combine in a single rule application.
const MaxArity = 2

// Grammar is everything the chart needs from a translation grammar: the
// root of a trie over source-side symbols and a span admissibility test.
// Implementations are read-only once decoding starts.
type Grammar interface {
	Root() TrieNode
	// FilterSpan reports whether rules of this grammar may cover [i,j) in a
	// sentence of length n.
	FilterSpan(i, j, n int) bool
}

// TrieNode is one position in the source-side trie.
type TrieNode interface {
	// Match returns the child reached by sym, or nil.
	Match(sym symbol.ID) TrieNode
	// RuleBin returns the rules whose source side ends here, or nil.
	RuleBin() RuleBin
	// HasChildren is false for leaves, which can never be extended.
	HasChildren() bool
}

// RuleBin holds the rules sharing a source side, and therefore an arity.
type RuleBin interface {
	// SortedRules returns the rules best (lowest estimated cost) first.
	SortedRules() []*Rule
	Arity() int
	Source() []symbol.ID
}

// Rule is a synchronous production. Rules are immutable once added to a
// grammar.
type Rule struct {
	ID  int
	LHS symbol.ID
	// Source holds terminals and base nonterminals, the trie path of the rule.
	Source []symbol.ID
	Target []symbol.ID
	// TargetAnts[k] is the antecedent index of Target[k], or -1 for terminals.
	TargetAnts []int
	Arity      int
	Scores     []float64
	Owner      symbol.ID

	// StatelessCost is the weighted sum of the stateless model costs.
	StatelessCost float64
	// EstCost additionally includes context free estimates of the other
	// models and orders the rules inside a RuleBin.
	EstCost float64
}

// Estimator fills in rule costs from the model set.
type Estimator interface {
	Estimate(r *Rule) (stateless, estimate float64)
}

// Estimate sets the rule's cost fields through est. A nil estimator leaves
// the rule as is.
func (r *Rule) Estimate(est Estimator) {
	if est == nil {
		return
	}
	r.StatelessCost, r.EstCost = est.Estimate(r)
}

// NewPassThroughRule builds the rule used for unknown words: lhs rewrites
// the source word as itself.
func NewPassThroughRule(lhs, word, owner symbol.ID) *Rule {
	return &Rule{
		LHS:        lhs,
		Source:     []symbol.ID{word},
		Target:     []symbol.ID{word},
		TargetAnts: []int{-1},
		Scores:     []float64{0},
		Owner:      owner,
	}
}

func (r *Rule) String() string {
	src := make([]string, len(r.Source))
	for i, s := range r.Source {
		src[i] = s.String()
	}
	tgt := make([]string, len(r.Target))
	for i, s := range r.Target {
		if a := r.TargetAnts[i]; a >= 0 {
			tgt[i] = fmt.Sprintf("[%s,%d]", strings.Trim(s.String(), "[]"), a+1)
			continue
		}
		tgt[i] = s.String()
	}
	return fmt.Sprintf("%v ||| %s ||| %s ||| stateless=%.3f est=%.3f",
		r.LHS, strings.Join(src, " "), strings.Join(tgt, " "), r.StatelessCost, r.EstCost)
}
