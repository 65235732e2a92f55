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
	"container/heap"
	"fmt"
	"math"
	"sort"

	"sigs.k8s.io/hiero-decoder/grammar"
	"sigs.k8s.io/hiero-decoder/model"
	"sigs.k8s.io/hiero-decoder/symbol"
)

// Costs is what ComputeItem returns for one rule application.
type Costs struct {
	// Total = Additive + Transition + Bonus, used for pruning and ordering.
	Total float64
	// Additive is the rule's stateless cost plus the antecedents' best costs.
	Additive float64
	// Transition is the weighted cost of the stateful models.
	Transition float64
	Bonus      float64
	States     model.Bundle
}

// Bin is the chart cell for the span [i,j). Only one goroutine may modify
// a bin at a time.
type Bin struct {
	i, j   int
	cfg    *Config
	models *model.Set

	// table holds the live item of every signature.
	table map[string]*Item
	// heap keeps items worst first. Replaced items stay in it, marked dead,
	// until they surface.
	heap      itemHeap
	deadItems int
	seq       int

	superItems map[symbol.ID]*SuperItem
	sorted     []*Item
	superList  []*SuperItem
	isSorted   bool

	BestItemCost float64
	CutoffCost   float64

	stats Stats
}

func NewBin(i, j int, cfg *Config, models *model.Set) *Bin {
	return &Bin{
		i:            i,
		j:            j,
		cfg:          cfg,
		models:       models,
		table:        map[string]*Item{},
		superItems:   map[symbol.ID]*SuperItem{},
		BestItemCost: math.Inf(1),
		CutoffCost:   math.Inf(1),
	}
}

func (b *Bin) Span() (int, int) {
	return b.i, b.j
}

// Len is the number of live items.
func (b *Bin) Len() int {
	return len(b.table)
}

func (b *Bin) Stats() Stats {
	return b.stats
}

// ComputeItem prices applying r to ants over this bin's span. It does not
// change the bin apart from its counters.
func (b *Bin) ComputeItem(r *grammar.Rule, ants []*Item) (Costs, error) {
	b.stats.ComputeItemCalls++
	c := Costs{Additive: r.StatelessCost}
	for _, ant := range ants {
		c.Additive += ant.BestCost()
	}

	models := b.models.Models()
	for idx, m := range models {
		if m.Kind() != model.Stateful {
			continue
		}
		if c.States == nil {
			c.States = make(model.Bundle, len(models))
		}
		antStates := make([]model.State, len(ants))
		for k, ant := range ants {
			if idx < len(ant.States) {
				antStates[k] = ant.States[idx]
			}
		}
		t := m.Transition(r, antStates, b.i, b.j)
		if !finite(t.Cost) {
			return c, &ScoreError{Model: idx, Rule: r.String(), Value: t.Cost}
		}
		if !finite(t.Bonus) {
			return c, &ScoreError{Model: idx, Rule: r.String(), Value: t.Bonus}
		}
		w := m.Weight()
		c.Transition += t.Cost * w
		c.Bonus += t.Bonus * w
		c.States[idx] = t.State
	}
	c.Total = c.Additive + c.Transition + c.Bonus
	if !finite(c.Total) {
		return c, &ScoreError{Model: -1, Rule: r.String(), Value: c.Total}
	}
	return c, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// AddAxiom adds a rule without antecedents.
func (b *Bin) AddAxiom(r *grammar.Rule) error {
	c, err := b.ComputeItem(r, nil)
	if err != nil {
		return err
	}
	b.AddDeductionInBin(c, r, nil)
	return nil
}

// CompleteCell applies every rule of rb to every combination of items of
// the antecedent super items.
func (b *Bin) CompleteCell(ants []*SuperItem, rb grammar.RuleBin) error {
	if err := checkArity(ants, rb); err != nil {
		return err
	}
	for _, r := range rb.SortedRules() {
		switch rb.Arity() {
		case 1:
			for _, a1 := range ants[0].Items {
				if err := b.complete(r, []*Item{a1}); err != nil {
					return err
				}
			}
		case 2:
			for _, a1 := range ants[0].Items {
				for _, a2 := range ants[1].Items {
					if err := b.complete(r, []*Item{a1, a2}); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func (b *Bin) complete(r *grammar.Rule, ants []*Item) error {
	c, err := b.ComputeItem(r, ants)
	if err != nil {
		return err
	}
	b.AddDeductionInBin(c, r, ants)
	return nil
}

func checkArity(ants []*SuperItem, rb grammar.RuleBin) error {
	if rb.Arity() > grammar.MaxArity {
		rule := ""
		if rules := rb.SortedRules(); len(rules) > 0 {
			rule = rules[0].String()
		}
		return &grammar.ConfigurationError{Rule: rule, Arity: rb.Arity()}
	}
	if len(ants) != rb.Arity() {
		return &InvariantViolation{Msg: fmt.Sprintf("%d antecedents for a rule bin of arity %d", len(ants), rb.Arity())}
	}
	return nil
}

// AddDeductionInBin rejects c if it is already over the cutoff, otherwise
// it builds the item and recombines it into the bin. inserted is true when
// the item became the live item of its signature.
func (b *Bin) AddDeductionInBin(c Costs, r *grammar.Rule, ants []*Item) (it *Item, inserted bool) {
	if b.shouldPrune(c.Total) {
		b.stats.Prepruned++
		return nil, false
	}
	dt := &Deduction{
		Rule:           r,
		Antecedents:    ants,
		BestCost:       c.Additive + c.Transition,
		AdditiveCost:   c.Additive,
		TransitionCost: c.Transition,
	}
	it = newItem(b.i, b.j, r.LHS, c.States, dt, c.Total)
	return it, b.addDeduction(it)
}

func (b *Bin) shouldPrune(total float64) bool {
	return total >= b.CutoffCost
}

func (b *Bin) addDeduction(it *Item) bool {
	inserted := false
	if old, ok := b.table[it.Signature]; ok {
		b.stats.Merged++
		if it.EstTotalCost < old.EstTotalCost {
			old.dead = true
			b.deadItems++
			it.Deductions = append(it.Deductions, old.Deductions...)
			b.addNewItem(it)
			inserted = true
		} else {
			old.Deductions = append(old.Deductions, it.Deductions...)
		}
	} else {
		b.stats.Added++
		b.addNewItem(it)
		inserted = true
	}
	b.CutoffCost = math.Min(b.BestItemCost+b.cfg.RelativeThreshold, math.Inf(1))
	b.runPruning()
	return inserted
}

func (b *Bin) addNewItem(it *Item) {
	b.seq++
	it.seq = b.seq
	b.table[it.Signature] = it
	heap.Push(&b.heap, it)
	b.isSorted = false
	if it.EstTotalCost < b.BestItemCost {
		b.BestItemCost = it.EstTotalCost
	}
}

func (b *Bin) runPruning() {
	if len(b.heap) == b.deadItems {
		b.heap = b.heap[:0]
		b.deadItems = 0
		return
	}
	for len(b.heap) > 0 && (b.cfg.overCap(len(b.heap)-b.deadItems) || b.heap[0].EstTotalCost >= b.CutoffCost) {
		worst := heap.Pop(&b.heap).(*Item)
		if worst.dead {
			b.deadItems--
			continue
		}
		delete(b.table, worst.Signature)
		worst.dead = true
		b.isSorted = false
		b.stats.Pruned++
	}
	for len(b.heap) > 0 && b.heap[0].dead {
		heap.Pop(&b.heap)
		b.deadItems--
	}
	if len(b.heap) > 0 && b.cfg.atCap(len(b.heap)-b.deadItems) {
		b.CutoffCost = math.Min(b.CutoffCost, b.heap[0].EstTotalCost+Epsilon)
	}
}

// SortedItems returns the live items best first. Ties keep insertion order.
func (b *Bin) SortedItems() []*Item {
	b.ensureSorted()
	return b.sorted
}

// SuperItems returns the non empty super items ordered by their best item.
func (b *Bin) SuperItems() []*SuperItem {
	b.ensureSorted()
	return b.superList
}

// SuperItem returns the items with left hand side lhs, or nil.
func (b *Bin) SuperItem(lhs symbol.ID) *SuperItem {
	b.ensureSorted()
	return b.superItems[lhs]
}

func (b *Bin) ensureSorted() {
	if b.isSorted {
		return
	}
	items := make([]*Item, 0, len(b.table))
	for _, it := range b.table {
		items = append(items, it)
	}
	sort.Slice(items, func(x, y int) bool {
		if items[x].EstTotalCost != items[y].EstTotalCost {
			return items[x].EstTotalCost < items[y].EstTotalCost
		}
		return items[x].seq < items[y].seq
	})
	b.sorted = items

	for _, si := range b.superItems {
		si.Items = nil
	}
	b.superList = nil
	for _, it := range items {
		si, ok := b.superItems[it.LHS]
		if !ok {
			si = &SuperItem{LHS: it.LHS}
			b.superItems[it.LHS] = si
		}
		if len(si.Items) == 0 {
			b.superList = append(b.superList, si)
		}
		si.Items = append(si.Items, it)
	}
	for lhs, si := range b.superItems {
		if len(si.Items) == 0 {
			delete(b.superItems, lhs)
		}
	}
	b.isSorted = true
}

// TransitToGoal applies the final transition of every model to the goal
// items of src and packs them into the single item of this bin.
func (b *Bin) TransitToGoal(src *Bin, goal symbol.ID) error {
	var goalItem *Item
	models := b.models.Models()
	for _, it := range src.SortedItems() {
		if it.LHS != goal {
			continue
		}
		cost := it.BestCost()
		final := 0.0
		for idx, m := range models {
			var s model.State
			if idx < len(it.States) {
				s = it.States[idx]
			}
			v := m.FinalTransition(s)
			if !finite(v) {
				return &ScoreError{Model: idx, Rule: "goal", Value: v}
			}
			final += v * m.Weight()
		}
		dt := &Deduction{
			Antecedents:    []*Item{it},
			BestCost:       cost + final,
			AdditiveCost:   cost,
			TransitionCost: final,
		}
		if goalItem == nil {
			goalItem = newItem(b.i, b.j, goal, nil, dt, cost+final)
			continue
		}
		goalItem.Deductions = append(goalItem.Deductions, dt)
		if goalItem.BestDeduction.BestCost > dt.BestCost {
			goalItem.BestDeduction = dt
			goalItem.EstTotalCost = dt.BestCost
		}
	}
	if goalItem == nil {
		return &SearchFailure{Length: src.j, Reason: fmt.Sprintf("no %v item over the full span", goal)}
	}
	b.seq++
	goalItem.seq = b.seq
	b.table[goalItem.Signature] = goalItem
	b.isSorted = false
	if n := len(b.SortedItems()); n != 1 {
		return &InvariantViolation{Msg: fmt.Sprintf("goal bin holds %d items", n)}
	}
	return nil
}

// itemHeap is a max-heap on EstTotalCost so the worst item is on top.
type itemHeap []*Item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(x, y int) bool { return h[x].EstTotalCost > h[y].EstTotalCost }

func (h itemHeap) Swap(x, y int) { h[x], h[y] = h[y], h[x] }

func (h *itemHeap) Push(x interface{}) { *h = append(*h, x.(*Item)) }

func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}
