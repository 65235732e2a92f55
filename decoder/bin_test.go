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
	"errors"
	"math"
	"strconv"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"sigs.k8s.io/hiero-decoder/grammar"
	"sigs.k8s.io/hiero-decoder/model"
	"sigs.k8s.io/hiero-decoder/symbol"
)

// fakeRuleBin serves rules of any arity.
type fakeRuleBin struct {
	rules []*grammar.Rule
	arity int
}

func (f *fakeRuleBin) SortedRules() []*grammar.Rule { return f.rules }
func (f *fakeRuleBin) Arity() int                   { return f.arity }
func (f *fakeRuleBin) Source() []symbol.ID          { return nil }

// nanModel is a stateful model that cannot score anything.
type nanModel struct{}

func (nanModel) Kind() model.Kind                    { return model.Stateful }
func (nanModel) Weight() float64                     { return 1 }
func (nanModel) Estimate(*grammar.Rule) float64      { return 0 }
func (nanModel) FinalTransition(model.State) float64 { return 0 }
func (nanModel) Transition(*grammar.Rule, []model.State, int, int) model.Transition {
	return model.Transition{Cost: math.NaN()}
}

var _ = Describe("Bin", func() {
	var (
		models *model.Set
		cfg    *Config
		bin    *Bin
	)
	BeforeEach(func() {
		models = phraseModels()
		cfg = unboundedConfig()
		bin = NewBin(0, 2, cfg, models)
	})

	Context("when two derivations share a signature", func() {
		It("should keep the cheaper one as best and both as deductions", func() {
			worse := parseRule(models, "X ||| a b ||| x y ||| 2")
			better := parseRule(models, "X ||| a b ||| x z ||| 1")
			Expect(bin.AddAxiom(worse)).To(Succeed())
			first := bin.SortedItems()[0]
			Expect(bin.AddAxiom(better)).To(Succeed())

			Expect(bin.Len()).To(Equal(1))
			item := bin.SortedItems()[0]
			Expect(item.Deductions).To(HaveLen(2))
			Expect(item.BestDeduction.Rule).To(BeIdenticalTo(better))
			Expect(item.EstTotalCost).To(Equal(1.0))
			Expect(first.Live()).To(BeFalse(), "the replaced item should be dead")
			Expect(bin.Stats().Merged).To(Equal(1))
		})

		It("should append a worse derivation without touching the best", func() {
			better := parseRule(models, "X ||| a b ||| x z ||| 1")
			worse := parseRule(models, "X ||| a b ||| x y ||| 2")
			Expect(bin.AddAxiom(better)).To(Succeed())
			Expect(bin.AddAxiom(worse)).To(Succeed())

			item := bin.SortedItems()[0]
			Expect(item.Live()).To(BeTrue())
			Expect(item.Deductions).To(HaveLen(2))
			Expect(item.BestDeduction.Rule).To(BeIdenticalTo(better))
			Expect(item.BestCost()).To(Equal(1.0))
		})
	})

	Context("when a stateful model adds a bonus", func() {
		It("should keep the bonus out of the deduction cost", func() {
			lm := testLM()
			models = phraseModels(lm)
			bin = NewBin(0, 1, cfg, models)
			r := parseRule(models, "X ||| s ||| a ||| 1")

			costs, err := bin.ComputeItem(r, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(costs.Bonus).To(BeNumerically("~", 1.0))
			Expect(costs.Total).To(BeNumerically("~", costs.Additive+costs.Transition+costs.Bonus))

			item, inserted := bin.AddDeductionInBin(costs, r, nil)
			Expect(inserted).To(BeTrue())
			Expect(item.BestDeduction.BestCost).To(Equal(costs.Additive + costs.Transition))
			Expect(item.EstTotalCost).To(Equal(costs.Total))
			Expect(item.States).To(HaveLen(3))
			Expect(item.States[2]).To(Equal(model.EdgeState{Left: symbol.Terminal("a"), Right: symbol.Terminal("a")}))
		})

		It("should fail on a non finite score", func() {
			models = model.NewSet(nanModel{})
			bin = NewBin(0, 1, cfg, models)
			err := bin.AddAxiom(parseRule(models, "X ||| s ||| a ||| 1"))
			var scoreErr *ScoreError
			Expect(errors.As(err, &scoreErr)).To(BeTrue())
			Expect(scoreErr.Model).To(Equal(0))
			Expect(bin.Len()).To(Equal(0))
		})
	})

	Context("when pruning", func() {
		addItems := func(costs ...float64) {
			for _, c := range costs {
				r := parseRule(models, "X ||| s ||| t ||| 0")
				r.LHS = symbol.Nonterminal("N" + strconv.FormatFloat(c, 'g', -1, 64))
				r.StatelessCost = c
				Expect(bin.AddAxiom(r)).To(Succeed())
			}
		}
		liveCosts := func() []float64 {
			var out []float64
			for _, it := range bin.SortedItems() {
				out = append(out, it.EstTotalCost)
			}
			return out
		}

		It("should evict the worst items beyond the size cap", func() {
			cfg.MaxNItems = 2
			addItems(5, 4, 3, 2, 1)
			Expect(bin.Len()).To(Equal(2))
			Expect(liveCosts()).To(Equal([]float64{1, 2}))
			Expect(bin.Stats().Pruned).To(Equal(3))
			Expect(bin.CutoffCost).To(BeNumerically("~", 2+Epsilon))

			addItems(10)
			Expect(bin.Stats().Prepruned).To(Equal(1))
			Expect(bin.Len()).To(Equal(2))
		})

		It("should drop items outside the beam", func() {
			cfg.RelativeThreshold = 1.5
			addItems(1, 2, 2.6)
			Expect(liveCosts()).To(Equal([]float64{1, 2}))
			Expect(bin.Stats().Prepruned).To(Equal(1))

			addItems(0.5)
			Expect(bin.CutoffCost).To(Equal(2.0))
			Expect(liveCosts()).To(Equal([]float64{0.5, 1}))
			for _, c := range liveCosts() {
				Expect(c).To(BeNumerically("<", bin.CutoffCost))
			}
		})
	})

	Context("when completing a cell", func() {
		var ants []*SuperItem
		BeforeEach(func() {
			models = phraseModels(testLM())
			left := NewBin(0, 1, cfg, models)
			for _, line := range []string{"X ||| s ||| a ||| 1", "X ||| s ||| b ||| 1.2", "X ||| s ||| c ||| 0.7"} {
				Expect(left.AddAxiom(parseRule(models, line))).To(Succeed())
			}
			right := NewBin(1, 2, cfg, models)
			for _, line := range []string{"X ||| t ||| d ||| 0.4", "X ||| t ||| e ||| 0.6"} {
				Expect(right.AddAxiom(parseRule(models, line))).To(Succeed())
			}
			ants = []*SuperItem{left.SuperItem(symbol.Nonterminal("X")), right.SuperItem(symbol.Nonterminal("X"))}
			Expect(ants[0].Items).To(HaveLen(3))
			Expect(ants[1].Items).To(HaveLen(2))
		})

		It("should find the same best items with cube pruning as exhaustively when nothing is pruned", func() {
			g := newGrammar(models,
				"X ||| [X,1] [X,2] ||| [X,1] [X,2] ||| 0.5",
				"X ||| [X,1] [X,2] ||| [X,2] [X,1] ||| 0.9",
				"X ||| [X,1] [X,2] ||| [X,1] and [X,2] ||| 0.2",
			)
			rb := ruleBin(g, "[X]", "[X]")

			exhaustive := NewBin(0, 2, cfg, models)
			Expect(exhaustive.CompleteCell(ants, rb)).To(Succeed())
			cube := NewBin(0, 2, cfg, models)
			Expect(cube.CompleteCellCubePrune(ants, rb)).To(Succeed())

			best := func(b *Bin) map[string][2]float64 {
				out := map[string][2]float64{}
				for _, it := range b.SortedItems() {
					out[it.Signature] = [2]float64{it.EstTotalCost, it.BestCost()}
				}
				return out
			}
			Expect(best(cube)).To(Equal(best(exhaustive)))
			Expect(cube.Len()).To(BeNumerically(">", 1))
			Expect(cube.Stats().ComputeItemCalls).To(Equal(exhaustive.Stats().ComputeItemCalls))
			Expect(cube.Stats().PreprunedFuzz1).To(Equal(0))
		})

		It("should stop early with a tight beam", func() {
			cfg.RelativeThreshold = 0.5
			cfg.Fuzz1 = 0.1
			cfg.Fuzz2 = 0.1
			g := newGrammar(models,
				"X ||| [X,1] [X,2] ||| [X,1] [X,2] ||| 0.5",
				"X ||| [X,1] [X,2] ||| [X,2] [X,1] ||| 3",
				"X ||| [X,1] [X,2] ||| [X,1] and [X,2] ||| 9",
			)
			rb := ruleBin(g, "[X]", "[X]")
			cube := NewBin(0, 2, cfg, models)
			Expect(cube.CompleteCellCubePrune(ants, rb)).To(Succeed())

			stats := cube.Stats()
			Expect(stats.ComputeItemCalls).To(BeNumerically("<", 3*3*2))
			Expect(stats.PreprunedFuzz1 + stats.PreprunedFuzz2 + stats.Prepruned).To(BeNumerically(">", 0))
			Expect(cube.Len()).To(BeNumerically(">=", 1))
		})

		It("should reject rules with more than two antecedents", func() {
			r := parseRule(models, "X ||| [X,1] [X,2] [X,3] ||| [X,1] [X,2] [X,3] ||| 0")
			rb := &fakeRuleBin{rules: []*grammar.Rule{r}, arity: 3}
			var cfgErr *grammar.ConfigurationError
			Expect(errors.As(bin.CompleteCell(append(ants, ants[0]), rb), &cfgErr)).To(BeTrue())
			Expect(errors.As(bin.CompleteCellCubePrune(append(ants, ants[0]), rb), &cfgErr)).To(BeTrue())
		})
	})

	Context("when building the goal item", func() {
		var full *Bin
		BeforeEach(func() {
			full = NewBin(0, 2, cfg, models)
			for _, line := range []string{"S ||| s ||| a ||| 2", "S ||| s ||| b ||| 1", "X ||| s ||| c ||| 0.5"} {
				Expect(full.AddAxiom(parseRule(models, line))).To(Succeed())
			}
		})

		It("should pack every goal item into one item", func() {
			goalBin := NewBin(0, 3, cfg, models)
			Expect(goalBin.TransitToGoal(full, symbol.Goal)).To(Succeed())
			items := goalBin.SortedItems()
			Expect(items).To(HaveLen(1))
			Expect(items[0].LHS).To(Equal(symbol.Goal))
			Expect(items[0].Deductions).To(HaveLen(1), "goal items without state recombine in the full span")
			Expect(items[0].BestCost()).To(Equal(1.0))
			Expect(items[0].I).To(Equal(0))
			Expect(items[0].J).To(Equal(3))
		})

		It("should report a search failure without goal items", func() {
			goalBin := NewBin(0, 3, cfg, models)
			err := goalBin.TransitToGoal(full, symbol.Nonterminal("NOPE"))
			var failure *SearchFailure
			Expect(errors.As(err, &failure)).To(BeTrue())
		})

		It("should report a broken goal bin", func() {
			goalBin := NewBin(0, 3, cfg, models)
			Expect(goalBin.AddAxiom(parseRule(models, "X ||| s ||| q ||| 0"))).To(Succeed())
			err := goalBin.TransitToGoal(full, symbol.Goal)
			var violation *InvariantViolation
			Expect(errors.As(err, &violation)).To(BeTrue())
		})
	})
})
