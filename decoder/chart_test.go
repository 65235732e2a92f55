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
	"errors"
	"math"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"sigs.k8s.io/hiero-decoder/grammar"
	"sigs.k8s.io/hiero-decoder/model"
	"sigs.k8s.io/hiero-decoder/symbol"
)

var lexicalRules = []string{
	"X ||| a b ||| A B ||| 1.0",
	"X ||| c ||| C ||| 1.0",
	"X ||| [X,1] [X,2] ||| [X,1] [X,2] ||| 0.5",
	"S ||| [X,1] ||| [X,1] ||| 0.0",
}

var _ = Describe("Chart", func() {
	var (
		models *model.Set
		cfg    Config
		ctx    context.Context
	)
	BeforeEach(func() {
		models = phraseModels()
		cfg = DefaultConfig()
		ctx = context.Background()
	})

	decode := func(tokens []string, grammars ...grammar.Grammar) (*HyperGraph, *Chart, error) {
		chart := NewChart(&cfg, models, symbol.Terminals(tokens))
		Expect(chart.Seed(grammars, []symbol.ID{symbol.Nonterminal("X")})).To(Succeed())
		hg, err := chart.Expand(ctx)
		return hg, chart, err
	}

	Context("when a grammar covers the sentence", func() {
		It("should find the cheapest derivation", func() {
			hg, chart, err := decode([]string{"a", "b", "c"}, newGrammar(models, lexicalRules...))
			Expect(err).NotTo(HaveOccurred())
			Expect(hg.BestCost()).To(BeNumerically("~", 2.5, 1e-9))
			Expect(chart.GoalBin().SortedItems()).To(HaveLen(1))
			Expect(hg.Goal.I).To(Equal(0))
			Expect(hg.Goal.J).To(Equal(4))

			best := hg.Best()
			Expect(best.Translation()).To(Equal("A B C"))
			Expect(best.Tree()).To(Equal("(S{0-3} (X{0-3} (X{0-2} A B) (X{2-3} C)))"))
			Expect(best.Cost).To(BeNumerically("~", 2.5, 1e-9))

			stats := chart.Stats()
			Expect(stats.Added).To(BeNumerically(">", 0))
			Expect(stats.DotItemsAdded).To(BeNumerically(">", 0))
			Expect(stats.ComputeItemCalls).To(BeNumerically(">=", stats.Added))
		})

		It("should find the same derivation without cube pruning", func() {
			cfg.UseCubePrune = false
			hg, _, err := decode([]string{"a", "b", "c"}, newGrammar(models, lexicalRules...))
			Expect(err).NotTo(HaveOccurred())
			Expect(hg.BestCost()).To(BeNumerically("~", 2.5, 1e-9))
		})

		It("should find the same derivation expanding cells concurrently", func() {
			cfg.Parallel = true
			hg, _, err := decode([]string{"a", "b", "c", "a", "b", "c"}, newGrammar(models, lexicalRules...))
			Expect(err).NotTo(HaveOccurred())
			Expect(hg.BestCost()).To(BeNumerically("~", 4*1.0+3*0.5, 1e-9))
			Expect(hg.Best().Translation()).To(Equal("A B C A B C"))
		})

		It("should fall back to passing unknown words through", func() {
			hg, _, err := decode([]string{"a", "b", "zzz"}, newGrammar(models, lexicalRules...))
			Expect(err).NotTo(HaveOccurred())
			Expect(hg.Best().Translation()).To(Equal("A B zzz"))
			Expect(hg.BestCost()).To(BeNumerically("~", 1.0+10*model.Alpha+0.5, 1e-9))
		})

		It("should keep every deduction's cost free of the bonus", func() {
			models = phraseModels(testLM())
			hg, _, err := decode([]string{"a", "b", "c"}, newGrammar(models, lexicalRules...))
			Expect(err).NotTo(HaveOccurred())

			seen := map[*Item]bool{}
			var walk func(*Item)
			walk = func(it *Item) {
				if seen[it] {
					return
				}
				seen[it] = true
				for _, dt := range it.Deductions {
					Expect(dt.BestCost).To(Equal(dt.AdditiveCost + dt.TransitionCost))
					for _, ant := range dt.Antecedents {
						Expect(ant.I).To(BeNumerically(">=", it.I))
						Expect(ant.J).To(BeNumerically("<=", it.J))
						walk(ant)
					}
				}
			}
			walk(hg.Goal)
			items, deductions := hg.NumItems()
			Expect(items).To(Equal(len(seen)))
			Expect(deductions).To(BeNumerically(">=", items))
		})
	})

	Context("when combining with a glue grammar", func() {
		It("should glue phrases from the left", func() {
			g := newGrammar(models, "X ||| a b ||| A B ||| 1.0", "X ||| c ||| C ||| 1.0")
			glue, err := grammar.NewGlueGrammar(symbol.Goal, symbol.Nonterminal("X"), pt, models)
			Expect(err).NotTo(HaveOccurred())

			hg, _, err := decode([]string{"a", "b", "c"}, g, glue)
			Expect(err).NotTo(HaveOccurred())
			Expect(hg.Best().Translation()).To(Equal("A B C"))
			Expect(hg.BestCost()).To(BeNumerically("~", 2+math.Log10(math.E), 1e-9))
			Expect(hg.Best().Tree()).To(Equal("(S{0-3} (S{0-2} (X{0-2} A B)) (X{2-3} C))"))
		})
	})

	Context("when nothing derives the goal symbol", func() {
		It("should report a search failure", func() {
			_, _, err := decode([]string{"a", "b", "c"}, newGrammar(models, "X ||| a b ||| A B ||| 1.0"))
			var failure *SearchFailure
			Expect(errors.As(err, &failure)).To(BeTrue())
			Expect(failure.Length).To(Equal(3))
		})
	})

	Context("when the context is cancelled", func() {
		It("should stop expanding", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			ctx = cctx
			_, _, err := decode([]string{"a", "b", "c"}, newGrammar(models, lexicalRules...))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Context("when closing a cell under unary rules", func() {
		It("should follow a chain of unary rules in one pass", func() {
			g := newGrammar(models,
				"B ||| [A,1] ||| [A,1] ||| 1.0",
				"C ||| [B,1] ||| [B,1] ||| 1.0",
				"D ||| [C,1] ||| [C,1] ||| 1.0",
			)
			chart := NewChart(&cfg, models, symbol.Terminals([]string{"w"}))
			Expect(chart.Seed([]grammar.Grammar{g}, nil)).To(Succeed())
			Expect(chart.bin(0, 1).AddAxiom(parseRule(models, "A ||| w ||| w ||| 0.0"))).To(Succeed())

			Expect(chart.addUnaryItems(g, 0, 1)).To(Succeed())

			var ds []*Item
			for _, it := range chart.Bin(0, 1).SortedItems() {
				if it.LHS == symbol.Nonterminal("D") {
					ds = append(ds, it)
				}
			}
			Expect(ds).To(HaveLen(1))
			Expect(ds[0].BestCost()).To(BeNumerically("~", 3.0, 1e-9))
			Expect(chart.Bin(0, 1).Len()).To(Equal(4))
		})
	})
})
