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
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"sigs.k8s.io/hiero-decoder/debug"
	"sigs.k8s.io/hiero-decoder/grammar"
	"sigs.k8s.io/hiero-decoder/model"
	"sigs.k8s.io/hiero-decoder/symbol"
)

// Chart is the search space of one sentence. Cell (i,j) covers the source
// words i..j-1.
type Chart struct {
	cfg      *Config
	models   *model.Set
	sentence []symbol.ID
	n        int
	goal     symbol.ID

	grammars  []grammar.Grammar
	dotCharts []*DotChart
	// bins[i][j] is nil until something is added to the span
	bins    [][]*Bin
	goalBin *Bin
}

func NewChart(cfg *Config, models *model.Set, sentence []symbol.ID) *Chart {
	n := len(sentence)
	bins := make([][]*Bin, n+1)
	for i := range bins {
		bins[i] = make([]*Bin, n+1)
	}
	return &Chart{
		cfg:      cfg,
		models:   models,
		sentence: sentence,
		n:        n,
		goal:     symbol.Nonterminal(cfg.GoalSymbol),
		bins:     bins,
		goalBin:  NewBin(0, n+1, cfg, models),
	}
}

// Bin returns the cell over [i,j), or nil if nothing was added to it.
func (c *Chart) Bin(i, j int) *Bin {
	return c.bins[i][j]
}

func (c *Chart) bin(i, j int) *Bin {
	if c.bins[i][j] == nil {
		c.bins[i][j] = NewBin(i, j, c.cfg, c.models)
	}
	return c.bins[i][j]
}

// GoalBin holds the goal item once Expand succeeded.
func (c *Chart) GoalBin() *Bin {
	return c.goalBin
}

// Seed starts a dot chart per grammar and gives every source word a pass
// through item per default nonterminal, so any sentence has a derivation.
func (c *Chart) Seed(grammars []grammar.Grammar, defaultNTs []symbol.ID) error {
	c.grammars = grammars
	c.dotCharts = make([]*DotChart, len(grammars))
	for k, g := range grammars {
		c.dotCharts[k] = NewDotChart(g, c)
		c.dotCharts[k].Seed()
	}
	for i, word := range c.sentence {
		for _, lhs := range defaultNTs {
			r := grammar.NewPassThroughRule(lhs, word, symbol.Untranslated)
			r.Estimate(c.models)
			if err := c.bin(i, i+1).AddAxiom(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// Expand fills the chart bottom up by span width and builds the goal item.
func (c *Chart) Expand(ctx context.Context) (*HyperGraph, error) {
	for width := 1; width <= c.n; width++ {
		if err := c.expandWidth(ctx, width); err != nil {
			return nil, err
		}
	}
	debug.Debugf("chart expanded: n=%d %v\n", c.n, c.Stats())

	full := c.bins[0][c.n]
	if full == nil || full.Len() == 0 {
		return nil, &SearchFailure{Length: c.n, Reason: "the full span is empty"}
	}
	if err := c.goalBin.TransitToGoal(full, c.goal); err != nil {
		return nil, err
	}
	goal := c.goalBin.SortedItems()[0]
	debug.Debugf("goal item: best cost %.3f, %d deductions\n", goal.BestCost(), len(goal.Deductions))
	return &HyperGraph{Goal: goal, SentenceLength: c.n}, nil
}

// expandWidth expands every cell of one width. The cells only read spans
// of smaller widths, so they may run concurrently.
func (c *Chart) expandWidth(ctx context.Context, width int) error {
	if !c.cfg.Parallel {
		for i := 0; i+width <= c.n; i++ {
			if err := c.expandCell(ctx, i, i+width); err != nil {
				return err
			}
		}
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i+width <= c.n; i++ {
		i := i
		g.Go(func() error {
			return c.expandCell(gctx, i, i+width)
		})
	}
	return g.Wait()
}

func (c *Chart) expandCell(ctx context.Context, i, j int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, dc := range c.dotCharts {
		dc.ExpandCell(i, j)
	}

	for k, g := range c.grammars {
		db := c.dotCharts[k].DotBin(i, j)
		if !g.FilterSpan(i, j, c.n) || db == nil {
			continue
		}
		for _, dt := range db.Items {
			rb := dt.Node.RuleBin()
			if rb == nil {
				continue
			}
			if err := c.completeDotItem(i, j, dt, rb); err != nil {
				return fmt.Errorf("span [%d,%d): %w", i, j, err)
			}
		}
	}

	for _, g := range c.grammars {
		if g.FilterSpan(i, j, c.n) {
			if err := c.addUnaryItems(g, i, j); err != nil {
				return fmt.Errorf("span [%d,%d): %w", i, j, err)
			}
		}
	}

	for k, g := range c.grammars {
		if g.FilterSpan(i, j, c.n) {
			c.dotCharts[k].StartDotItems(i, j)
		}
	}

	// freeze the cell for the wider spans
	if b := c.bins[i][j]; b != nil {
		b.SortedItems()
	}
	return nil
}

func (c *Chart) completeDotItem(i, j int, dt *DotItem, rb grammar.RuleBin) error {
	if rb.Arity() == 0 {
		for _, r := range rb.SortedRules() {
			if err := c.bin(i, j).AddAxiom(r); err != nil {
				return err
			}
		}
		return nil
	}
	ants := make([]*SuperItem, len(dt.Ants))
	for k, ref := range dt.Ants {
		src := c.bins[ref.I][ref.J]
		if src == nil {
			return &InvariantViolation{Msg: fmt.Sprintf("dot item refers to empty span [%d,%d)", ref.I, ref.J)}
		}
		if ants[k] = src.SuperItem(ref.LHS); ants[k] == nil {
			return &InvariantViolation{Msg: fmt.Sprintf("no %v items in span [%d,%d)", ref.LHS, ref.I, ref.J)}
		}
	}
	if c.cfg.UseCubePrune {
		return c.bin(i, j).CompleteCellCubePrune(ants, rb)
	}
	return c.bin(i, j).CompleteCell(ants, rb)
}

// addUnaryItems closes the cell under the unary rules of g. Items created
// here are queued as well, so chains of unary rules close in one call. The
// grammar must not contain unary cycles.
func (c *Chart) addUnaryItems(g grammar.Grammar, i, j int) error {
	b := c.bins[i][j]
	if b == nil {
		return nil
	}
	queue := append([]*Item(nil), b.SortedItems()...)
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if !it.Live() {
			continue
		}
		node := g.Root().Match(it.LHS)
		if node == nil {
			continue
		}
		rb := node.RuleBin()
		if rb == nil || rb.Arity() != 1 {
			continue
		}
		ants := []*Item{it}
		for _, r := range rb.SortedRules() {
			costs, err := b.ComputeItem(r, ants)
			if err != nil {
				return err
			}
			if res, inserted := b.AddDeductionInBin(costs, r, ants); inserted {
				queue = append(queue, res)
			}
		}
	}
	return nil
}

// Stats sums the counters of every bin and dot bin.
func (c *Chart) Stats() Stats {
	var s Stats
	for _, row := range c.bins {
		for _, b := range row {
			if b != nil {
				s.Add(b.stats)
			}
		}
	}
	s.Add(c.goalBin.stats)
	for _, dc := range c.dotCharts {
		s.Add(dc.stats())
	}
	return s
}
