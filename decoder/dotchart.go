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
	"sigs.k8s.io/hiero-decoder/grammar"
	"sigs.k8s.io/hiero-decoder/symbol"
)

// SuperItemRef names a super item by position instead of holding it, so
// dot items never keep chart cells alive.
type SuperItemRef struct {
	I, J int
	LHS  symbol.ID
}

// DotItem is a rule whose source side has been matched up to Node over
// [I,J). Ants are the nonterminals matched so far, left to right.
type DotItem struct {
	I, J int
	Node grammar.TrieNode
	Ants []SuperItemRef
}

// DotBin holds the dot items of one span.
type DotBin struct {
	Items []*DotItem

	stats Stats
}

func (db *DotBin) Stats() Stats {
	return db.stats
}

// DotChart walks the trie of one grammar over the sentence.
type DotChart struct {
	g        grammar.Grammar
	chart    *Chart
	sentence []symbol.ID
	n        int
	// bins[i][j], j >= i
	bins [][]*DotBin
}

func NewDotChart(g grammar.Grammar, c *Chart) *DotChart {
	n := len(c.sentence)
	bins := make([][]*DotBin, n+1)
	for i := range bins {
		bins[i] = make([]*DotBin, n+1)
	}
	return &DotChart{g: g, chart: c, sentence: c.sentence, n: n, bins: bins}
}

// DotBin returns the dot items over [i,j), or nil.
func (d *DotChart) DotBin(i, j int) *DotBin {
	return d.bins[i][j]
}

// Seed puts a dot at the trie root of every admissible start position.
func (d *DotChart) Seed() {
	for j := 0; j < d.n; j++ {
		if d.g.FilterSpan(j, j, d.n) {
			d.add(d.g.Root(), j, j, nil)
		}
	}
}

// ExpandCell advances dots into [i,j), over a completed nonterminal ending
// at j and over the source word at j-1.
func (d *DotChart) ExpandCell(i, j int) {
	for k := i + 1; k < j; k++ {
		db := d.bins[i][k]
		b := d.chart.Bin(k, j)
		if db == nil || b == nil {
			continue
		}
		for _, dt := range db.Items {
			for _, si := range b.SuperItems() {
				if next := dt.Node.Match(si.LHS); next != nil {
					d.add(next, i, j, extend(dt.Ants, SuperItemRef{I: k, J: j, LHS: si.LHS}))
				}
			}
		}
	}

	if db := d.bins[i][j-1]; db != nil {
		word := d.sentence[j-1]
		for _, dt := range db.Items {
			if next := dt.Node.Match(word); next != nil {
				d.add(next, i, j, dt.Ants)
			}
		}
	}
}

// StartDotItems matches the super items of the completed cell [i,j) from
// the root dots at i. Trie leaves are skipped; unary rules are handled by
// the chart's unary closure.
func (d *DotChart) StartDotItems(i, j int) {
	db := d.bins[i][i]
	b := d.chart.Bin(i, j)
	if db == nil || b == nil {
		return
	}
	for _, dt := range db.Items {
		for _, si := range b.SuperItems() {
			if next := dt.Node.Match(si.LHS); next != nil && next.HasChildren() {
				d.add(next, i, j, extend(dt.Ants, SuperItemRef{I: i, J: j, LHS: si.LHS}))
			}
		}
	}
}

func (d *DotChart) add(node grammar.TrieNode, i, j int, ants []SuperItemRef) {
	db := d.bins[i][j]
	if db == nil {
		db = &DotBin{}
		d.bins[i][j] = db
	}
	db.Items = append(db.Items, &DotItem{I: i, J: j, Node: node, Ants: ants})
	db.stats.DotItemsAdded++
}

func (d *DotChart) stats() Stats {
	var s Stats
	for _, row := range d.bins {
		for _, db := range row {
			if db != nil {
				s.Add(db.stats)
			}
		}
	}
	return s
}

func extend(ants []SuperItemRef, ref SuperItemRef) []SuperItemRef {
	out := make([]SuperItemRef, len(ants), len(ants)+1)
	copy(out, ants)
	return append(out, ref)
}
