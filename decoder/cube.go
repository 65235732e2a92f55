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
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"sigs.k8s.io/hiero-decoder/grammar"
)

// cubeState is one point of the cube: a rule rank and one item rank per
// antecedent, all zero based.
type cubeState struct {
	ranks []int
	rule  *grammar.Rule
	ants  []*Item
	costs Costs
	// order breaks cost ties, the state materialized first wins
	order int
}

func rankKey(ranks []int) string {
	parts := make([]string, len(ranks))
	for k, r := range ranks {
		parts[k] = strconv.Itoa(r)
	}
	return strings.Join(parts, " ")
}

// CompleteCellCubePrune combines the rules of rb with the antecedent items
// best first, exploring neighbours of popped states only. Rules and items
// must be sorted best first.
func (b *Bin) CompleteCellCubePrune(ants []*SuperItem, rb grammar.RuleBin) error {
	if err := checkArity(ants, rb); err != nil {
		return err
	}
	rules := rb.SortedRules()
	if len(rules) == 0 {
		return nil
	}
	bounds := make([]int, 1+len(ants))
	bounds[0] = len(rules)
	cur := make([]*Item, len(ants))
	for k, si := range ants {
		if len(si.Items) == 0 {
			return nil
		}
		bounds[k+1] = len(si.Items)
		cur[k] = si.Items[0]
	}

	costs, err := b.ComputeItem(rules[0], cur)
	if err != nil {
		return err
	}
	order := 0
	cands := &cubeHeap{}
	explored := sets.NewString()
	seed := &cubeState{ranks: make([]int, len(bounds)), rule: rules[0], ants: cur, costs: costs}
	heap.Push(cands, seed)
	explored.Insert(rankKey(seed.ranks))

	for cands.Len() > 0 {
		st := heap.Pop(cands).(*cubeState)
		b.AddDeductionInBin(st.costs, st.rule, st.ants)

		// everything still queued is at least as expensive
		if st.costs.Total > b.CutoffCost+b.cfg.Fuzz1 {
			b.stats.PreprunedFuzz1 += cands.Len()
			break
		}

		for k := range st.ranks {
			next := make([]int, len(st.ranks))
			copy(next, st.ranks)
			next[k]++
			if next[k] >= bounds[k] {
				continue
			}
			key := rankKey(next)
			if explored.Has(key) {
				continue
			}

			rule := st.rule
			nextAnts := make([]*Item, len(st.ants))
			copy(nextAnts, st.ants)
			if k == 0 {
				rule = rules[next[0]]
			} else {
				nextAnts[k-1] = ants[k-1].Items[next[k]]
			}
			costs, err := b.ComputeItem(rule, nextAnts)
			if err != nil {
				return err
			}
			explored.Insert(key)

			if costs.Total < b.CutoffCost+b.cfg.Fuzz2 {
				order++
				heap.Push(cands, &cubeState{ranks: next, rule: rule, ants: nextAnts, costs: costs, order: order})
			} else {
				b.stats.PreprunedFuzz2++
			}
		}
	}
	return nil
}

// cubeHeap is a min-heap on total cost.
type cubeHeap []*cubeState

func (h cubeHeap) Len() int { return len(h) }

func (h cubeHeap) Less(x, y int) bool {
	if h[x].costs.Total != h[y].costs.Total {
		return h[x].costs.Total < h[y].costs.Total
	}
	return h[x].order < h[y].order
}

func (h cubeHeap) Swap(x, y int) { h[x], h[y] = h[y], h[x] }

func (h *cubeHeap) Push(x interface{}) { *h = append(*h, x.(*cubeState)) }

func (h *cubeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	st := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return st
}
