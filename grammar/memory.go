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
	"math"
	"sort"

	"k8s.io/apimachinery/pkg/util/sets"

	"sigs.k8s.io/hiero-decoder/debug"
	"sigs.k8s.io/hiero-decoder/symbol"
)

const (
	DefaultMaxRules              = 50
	DefaultRuleRelativeThreshold = 10.0
	// GlueSpanLimit marks a grammar whose rules may only cover spans
	// starting at the first word.
	GlueSpanLimit = -1
)

// ConfigurationError reports a rule the chart cannot use.
type ConfigurationError struct {
	Rule  string
	Arity int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("rule %q has arity %d, at most %d nonterminals are supported", e.Rule, e.Arity, MaxArity)
}

type Options struct {
	// SpanLimit bounds j-i for admissible spans; GlueSpanLimit restricts
	// the grammar to spans starting at 0.
	SpanLimit int
	// MaxRules caps each RuleBin, 0 means unlimited.
	MaxRules int
	// RuleRelativeThreshold drops rules whose estimate is this much worse
	// than the best rule of their bin.
	RuleRelativeThreshold float64
}

func DefaultOptions() Options {
	return Options{
		SpanLimit:             10,
		MaxRules:              DefaultMaxRules,
		RuleRelativeThreshold: DefaultRuleRelativeThreshold,
	}
}

// MemoryGrammar is a trie grammar held fully in memory.
type MemoryGrammar struct {
	opts Options
	root *trieNode

	nextRuleID int
	numRules   int
	numBins    int
	numPruned  int
	finalized  bool
}

func NewMemoryGrammar(opts Options) *MemoryGrammar {
	return &MemoryGrammar{opts: opts, root: newTrieNode()}
}

func (g *MemoryGrammar) Root() TrieNode {
	return g.root
}

func (g *MemoryGrammar) FilterSpan(i, j, n int) bool {
	if g.opts.SpanLimit < 0 {
		return i == 0
	}
	return j-i <= g.opts.SpanLimit
}

// AddRule inserts r along its source side. Rules with more than MaxArity
// nonterminals are rejected here rather than in the middle of a decode.
func (g *MemoryGrammar) AddRule(r *Rule) error {
	if r.Arity > MaxArity {
		return &ConfigurationError{Rule: r.String(), Arity: r.Arity}
	}
	if len(r.Source) == 0 {
		return fmt.Errorf("rule for %v has an empty source side", r.LHS)
	}
	g.nextRuleID++
	if r.ID == 0 {
		r.ID = g.nextRuleID
	}
	g.numRules++

	pos := g.root
	for _, sym := range r.Source {
		next, ok := pos.children[sym]
		if !ok {
			next = newTrieNode()
			pos.children[sym] = next
		}
		pos = next
	}
	if pos.bin == nil {
		pos.bin = &ruleBin{source: r.Source, arity: r.Arity}
		g.numBins++
	}
	pos.bin.rules = append(pos.bin.rules, r)
	pos.bin.sorted = false
	g.finalized = false
	return nil
}

// Finalize sorts and prunes every rule bin. It must run before decoding so
// that SortedRules is a pure read.
func (g *MemoryGrammar) Finalize() {
	if g.finalized {
		return
	}
	g.root.walk(func(n *trieNode) {
		if n.bin != nil {
			g.numPruned += n.bin.sortAndPrune(g.opts.MaxRules, g.opts.RuleRelativeThreshold)
		}
	})
	g.finalized = true
	debug.Debugf("grammar finalized: rules=%d bins=%d pruned=%d\n", g.numRules, g.numBins, g.numPruned)
}

// NumRules returns the number of rules read and the number pruned away.
func (g *MemoryGrammar) NumRules() (read, pruned int) {
	return g.numRules, g.numPruned
}

// Vocabulary returns the source terminals that start a rule.
func (g *MemoryGrammar) Vocabulary() sets.String {
	vocab := sets.NewString()
	for sym := range g.root.children {
		if !sym.IsNonterminal() {
			vocab.Insert(sym.String())
		}
	}
	return vocab
}

type trieNode struct {
	children map[symbol.ID]*trieNode
	bin      *ruleBin
}

func newTrieNode() *trieNode {
	return &trieNode{children: map[symbol.ID]*trieNode{}}
}

func (n *trieNode) Match(sym symbol.ID) TrieNode {
	if next, ok := n.children[sym]; ok {
		return next
	}
	return nil
}

func (n *trieNode) RuleBin() RuleBin {
	if n.bin == nil {
		return nil
	}
	return n.bin
}

func (n *trieNode) HasChildren() bool {
	return len(n.children) > 0
}

func (n *trieNode) walk(f func(*trieNode)) {
	f(n)
	for _, c := range n.children {
		c.walk(f)
	}
}

type ruleBin struct {
	source []symbol.ID
	arity  int
	rules  []*Rule
	sorted bool
}

func (b *ruleBin) SortedRules() []*Rule {
	if !b.sorted {
		b.sortAndPrune(0, math.Inf(1))
	}
	return b.rules
}

func (b *ruleBin) Arity() int {
	return b.arity
}

func (b *ruleBin) Source() []symbol.ID {
	return b.source
}

// sortAndPrune orders rules by estimated cost and keeps those within
// threshold of the best one, at most maxRules of them.
func (b *ruleBin) sortAndPrune(maxRules int, threshold float64) int {
	sort.SliceStable(b.rules, func(x, y int) bool {
		return b.rules[x].EstCost < b.rules[y].EstCost
	})
	b.sorted = true
	keep := len(b.rules)
	if keep == 0 {
		return 0
	}
	cutoff := b.rules[0].EstCost + threshold
	for k := 1; k < keep; k++ {
		if b.rules[k].EstCost >= cutoff {
			keep = k
			break
		}
	}
	if maxRules > 0 && keep > maxRules {
		keep = maxRules
	}
	pruned := len(b.rules) - keep
	b.rules = b.rules[:keep]
	return pruned
}
