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
	"strconv"
	"strings"

	"sigs.k8s.io/hiero-decoder/grammar"
	"sigs.k8s.io/hiero-decoder/model"
	"sigs.k8s.io/hiero-decoder/symbol"
)

// Item is a hypergraph vertex: every derivation of LHS over [I,J) that
// ends up in the same model states.
type Item struct {
	I, J   int
	LHS    symbol.ID
	States model.Bundle
	// Signature decides recombination inside a bin.
	Signature string
	// EstTotalCost includes the model bonus and orders items for pruning.
	EstTotalCost  float64
	BestDeduction *Deduction
	Deductions    []*Deduction

	// dead is set once the item is no longer in its bin's table, either
	// replaced by a cheaper item with the same signature or pruned.
	dead bool
	seq  int
}

func newItem(i, j int, lhs symbol.ID, states model.Bundle, dt *Deduction, total float64) *Item {
	return &Item{
		I:             i,
		J:             j,
		LHS:           lhs,
		States:        states,
		Signature:     signature(i, j, lhs, states),
		EstTotalCost:  total,
		BestDeduction: dt,
		Deductions:    []*Deduction{dt},
	}
}

func signature(i, j int, lhs symbol.ID, states model.Bundle) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(i))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(j))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(int(lhs)))
	sb.WriteByte(' ')
	sb.WriteString(states.Key())
	return sb.String()
}

// Live reports whether the item is still the representative of its
// signature in its bin.
func (it *Item) Live() bool {
	return !it.dead
}

// BestCost is the cost of the best deduction, without the bonus.
func (it *Item) BestCost() float64 {
	return it.BestDeduction.BestCost
}

func (it *Item) String() string {
	return it.LHS.String() + "{" + strconv.Itoa(it.I) + "-" + strconv.Itoa(it.J) + "}"
}

// Deduction is a hyperedge. It never changes once created.
type Deduction struct {
	// Rule is nil for the edges into the goal item.
	Rule        *grammar.Rule
	Antecedents []*Item
	// BestCost is AdditiveCost + TransitionCost.
	BestCost       float64
	AdditiveCost   float64
	TransitionCost float64
}

// SuperItem groups the items of a bin sharing a left hand side, best
// first once the bin is sorted.
type SuperItem struct {
	LHS   symbol.ID
	Items []*Item
}

// HyperGraph is the packed forest of a decode, rooted at the goal item.
type HyperGraph struct {
	Goal           *Item
	SentenceLength int
}

// BestCost is the cost of the 1-best derivation including the final
// transition.
func (h *HyperGraph) BestCost() float64 {
	return h.Goal.BestCost()
}

// NumItems counts the items reachable from the goal.
func (h *HyperGraph) NumItems() (items, deductions int) {
	seen := map[*Item]bool{}
	var walk func(*Item)
	walk = func(it *Item) {
		if seen[it] {
			return
		}
		seen[it] = true
		items++
		deductions += len(it.Deductions)
		for _, dt := range it.Deductions {
			for _, ant := range dt.Antecedents {
				walk(ant)
			}
		}
	}
	walk(h.Goal)
	return items, deductions
}

// Derivation is one tree of the forest.
type Derivation struct {
	Rule     *grammar.Rule
	LHS      symbol.ID
	I, J     int
	Cost     float64
	Children []*Derivation
}

// Best follows the best deduction of every item from the goal down.
func (h *HyperGraph) Best() *Derivation {
	top := h.Goal.BestDeduction
	d := bestDerivation(top.Antecedents[0])
	d.Cost = top.BestCost
	return d
}

func bestDerivation(it *Item) *Derivation {
	dt := it.BestDeduction
	d := &Derivation{Rule: dt.Rule, LHS: it.LHS, I: it.I, J: it.J, Cost: dt.BestCost}
	for _, ant := range dt.Antecedents {
		d.Children = append(d.Children, bestDerivation(ant))
	}
	return d
}

// Yield is the target side word sequence.
func (d *Derivation) Yield() []symbol.ID {
	var out []symbol.ID
	for k, sym := range d.Rule.Target {
		if a := d.Rule.TargetAnts[k]; a >= 0 {
			out = append(out, d.Children[a].Yield()...)
			continue
		}
		out = append(out, sym)
	}
	return out
}

// Translation is the yield joined by spaces.
func (d *Derivation) Translation() string {
	return strings.Join(symbol.Strings(d.Yield()), " ")
}

// Tree renders the derivation as a bracketed target side tree.
func (d *Derivation) Tree() string {
	var sb strings.Builder
	d.writeTree(&sb)
	return sb.String()
}

func (d *Derivation) writeTree(sb *strings.Builder) {
	sb.WriteString("(")
	sb.WriteString(strings.Trim(d.LHS.String(), "[]"))
	sb.WriteString("{" + strconv.Itoa(d.I) + "-" + strconv.Itoa(d.J) + "}")
	for k, sym := range d.Rule.Target {
		sb.WriteByte(' ')
		if a := d.Rule.TargetAnts[k]; a >= 0 {
			d.Children[a].writeTree(sb)
			continue
		}
		sb.WriteString(sym.String())
	}
	sb.WriteString(")")
}
