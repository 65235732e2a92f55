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
	"time"

	"k8s.io/apimachinery/pkg/util/sets"

	"sigs.k8s.io/hiero-decoder/debug"
	"sigs.k8s.io/hiero-decoder/grammar"
	"sigs.k8s.io/hiero-decoder/model"
	"sigs.k8s.io/hiero-decoder/symbol"
)

type finalizer interface {
	Finalize()
}

// Decoder translates sentences with a fixed configuration, model set and
// grammars. It is safe to call Decode from several goroutines.
type Decoder struct {
	cfg        Config
	models     *model.Set
	grammars   []grammar.Grammar
	defaultNTs []symbol.ID
}

func New(cfg Config, models *model.Set, grammars ...grammar.Grammar) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid decoder config: %w", err)
	}
	if len(grammars) == 0 {
		return nil, fmt.Errorf("at least one grammar is required")
	}
	for _, g := range grammars {
		// rule bins must be sorted before cells are expanded concurrently
		if f, ok := g.(finalizer); ok {
			f.Finalize()
		}
	}
	d := &Decoder{cfg: cfg, models: models, grammars: grammars}
	for _, nt := range sets.NewString(cfg.DefaultNonterminals...).List() {
		d.defaultNTs = append(d.defaultNTs, symbol.Nonterminal(nt))
	}
	return d, nil
}

func (d *Decoder) Config() Config {
	return d.cfg
}

func (d *Decoder) Grammars() []grammar.Grammar {
	return d.grammars
}

// Result is the outcome of decoding one sentence.
type Result struct {
	Source     []string
	HyperGraph *HyperGraph
	Best       *Derivation
	Stats      Stats
	Duration   time.Duration
}

// Decode runs the chart over one tokenized sentence. A *SearchFailure
// only concerns this sentence.
func (d *Decoder) Decode(ctx context.Context, tokens []string) (*Result, error) {
	start := time.Now()
	if len(tokens) == 0 {
		return nil, &SearchFailure{Length: 0, Reason: "empty sentence"}
	}
	chart := NewChart(&d.cfg, d.models, symbol.Terminals(tokens))
	if err := chart.Seed(d.grammars, d.defaultNTs); err != nil {
		return nil, err
	}
	hg, err := chart.Expand(ctx)
	res := &Result{Source: tokens, Stats: chart.Stats(), Duration: time.Since(start)}
	if err != nil {
		return res, err
	}
	res.HyperGraph = hg
	res.Best = hg.Best()
	debug.Debugf("decoded %d words in %v: %s\n", len(tokens), res.Duration, res.Best.Translation())
	return res, nil
}
