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

package config

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"sigs.k8s.io/hiero-decoder/decoder"
	"sigs.k8s.io/hiero-decoder/grammar"
	"sigs.k8s.io/hiero-decoder/model"
	"sigs.k8s.io/hiero-decoder/symbol"
)

// File is the YAML decoder configuration.
//
//	search:
//	  max_n_items: 30
//	  use_cube_prune: true
//	grammars:
//	- path: rules.txt
//	  span_limit: 10
//	glue:
//	  enabled: true
//	models:
//	- type: phrase_model
//	  column: 0
//	  weight: 1
//	- type: bigram_lm
//	  path: lm.arpa
//	  weight: 0.5
type File struct {
	Search   decoder.Config `yaml:"search"`
	Grammars []Grammar      `yaml:"grammars"`
	Glue     Glue           `yaml:"glue"`
	Models   []Model        `yaml:"models"`

	// relative paths are resolved against baseDir
	baseDir string
}

type Grammar struct {
	Path                  string   `yaml:"path"`
	Owner                 string   `yaml:"owner"`
	SpanLimit             *int     `yaml:"span_limit"`
	MaxNRules             *int     `yaml:"max_n_rules"`
	RuleRelativeThreshold *float64 `yaml:"rule_relative_threshold"`
}

type Glue struct {
	Enabled bool   `yaml:"enabled"`
	Owner   string `yaml:"owner"`
}

const (
	WordPenalty        = "word_penalty"
	PhraseModel        = "phrase_model"
	PhrasePenalty      = "phrase_penalty"
	ArityPhrasePenalty = "arity_phrase_penalty"
	BigramLM           = "bigram_lm"
)

type Model struct {
	Type     string   `yaml:"type"`
	Weight   *float64 `yaml:"weight"`
	Owner    string   `yaml:"owner"`
	Column   int      `yaml:"column"`
	MinArity int      `yaml:"min_arity"`
	MaxArity int      `yaml:"max_arity"`
	Path     string   `yaml:"path"`
	OOVCost  *float64 `yaml:"oov_cost"`
}

// DefaultModels price rules by the first score of the phrase table and of
// the glue grammar, and make passing a word through untranslated expensive.
func DefaultModels() []Model {
	ten := 10.0
	return []Model{
		{Type: PhraseModel, Owner: grammar.DefaultOwner},
		{Type: PhraseModel, Owner: grammar.GlueOwner},
		{Type: PhrasePenalty, Owner: symbol.UntranslatedName, Weight: &ten},
	}
}

func Default() *File {
	return &File{
		Search: decoder.DefaultConfig(),
		Glue:   Glue{Owner: grammar.GlueOwner},
	}
}

// Parse reads a configuration over the defaults. Unknown keys are errors.
func Parse(data []byte, baseDir string) (*File, error) {
	f := Default()
	if err := yaml.UnmarshalStrict(bytes.TrimSpace(data), f); err != nil {
		return nil, fmt.Errorf("unable to parse decoder config: %w", err)
	}
	f.baseDir = baseDir
	return f, f.Validate()
}

func Load(path string) (*File, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read decoder config: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

func (f *File) Validate() error {
	if err := f.Search.Validate(); err != nil {
		return err
	}
	for i, g := range f.Grammars {
		if g.Path == "" {
			return fmt.Errorf("grammars[%d]: path must be set", i)
		}
	}
	for i, m := range f.Models {
		switch m.Type {
		case WordPenalty, PhraseModel, PhrasePenalty:
		case ArityPhrasePenalty:
			if m.MinArity > m.MaxArity {
				return fmt.Errorf("models[%d]: min_arity %d exceeds max_arity %d", i, m.MinArity, m.MaxArity)
			}
		case BigramLM:
			if m.Path == "" {
				return fmt.Errorf("models[%d]: %s needs an ARPA path", i, BigramLM)
			}
		default:
			return fmt.Errorf("models[%d]: unknown model type %q", i, m.Type)
		}
	}
	return nil
}

func (f *File) resolve(path string) string {
	if filepath.IsAbs(path) || f.baseDir == "" {
		return path
	}
	return filepath.Join(f.baseDir, path)
}

func ownerOr(owner, def string) symbol.ID {
	if owner == "" {
		owner = def
	}
	return symbol.Terminal(owner)
}

// BuildModels creates the models in file order, or DefaultModels when the
// file names none.
func (f *File) BuildModels() (*model.Set, error) {
	specs := f.Models
	if len(specs) == 0 {
		specs = DefaultModels()
	}
	models := make([]model.Model, 0, len(specs))
	for i, m := range specs {
		weight := 1.0
		if m.Weight != nil {
			weight = *m.Weight
		}
		switch m.Type {
		case WordPenalty:
			models = append(models, model.NewWordPenalty(weight))
		case PhraseModel:
			models = append(models, model.NewPhraseModel(ownerOr(m.Owner, grammar.DefaultOwner), m.Column, weight))
		case PhrasePenalty:
			models = append(models, model.NewPhrasePenalty(ownerOr(m.Owner, grammar.DefaultOwner), weight))
		case ArityPhrasePenalty:
			models = append(models, model.NewArityPhrasePenalty(ownerOr(m.Owner, grammar.DefaultOwner), m.MinArity, m.MaxArity, weight))
		case BigramLM:
			oov := model.DefaultOOVCost
			if m.OOVCost != nil {
				oov = *m.OOVCost
			}
			lm, err := model.LoadARPA(f.resolve(m.Path), weight, oov)
			if err != nil {
				return nil, fmt.Errorf("models[%d]: %w", i, err)
			}
			models = append(models, lm)
		default:
			return nil, fmt.Errorf("models[%d]: unknown model type %q", i, m.Type)
		}
	}
	return model.NewSet(models...), nil
}

// BuildGrammars loads every grammar, with the glue grammar last.
func (f *File) BuildGrammars(est grammar.Estimator) ([]*grammar.MemoryGrammar, error) {
	var out []*grammar.MemoryGrammar
	for i, g := range f.Grammars {
		opts := grammar.DefaultOptions()
		if g.SpanLimit != nil {
			opts.SpanLimit = *g.SpanLimit
		}
		if g.MaxNRules != nil {
			opts.MaxRules = *g.MaxNRules
		}
		if g.RuleRelativeThreshold != nil {
			opts.RuleRelativeThreshold = *g.RuleRelativeThreshold
		}
		mg, err := grammar.LoadFile(f.resolve(g.Path), opts, ownerOr(g.Owner, grammar.DefaultOwner), est)
		if err != nil {
			return nil, fmt.Errorf("grammars[%d]: %w", i, err)
		}
		out = append(out, mg)
	}
	if f.Glue.Enabled {
		glue, err := grammar.NewGlueGrammar(
			symbol.Nonterminal(f.Search.GoalSymbol),
			symbol.Nonterminal(f.Search.DefaultNonterminals[0]),
			ownerOr(f.Glue.Owner, grammar.GlueOwner),
			est,
		)
		if err != nil {
			return nil, fmt.Errorf("unable to build glue grammar: %w", err)
		}
		out = append(out, glue)
	}
	return out, nil
}

// Build loads models and grammars and returns a ready decoder.
func (f *File) Build() (*decoder.Decoder, error) {
	models, err := f.BuildModels()
	if err != nil {
		return nil, err
	}
	loaded, err := f.BuildGrammars(models)
	if err != nil {
		return nil, err
	}
	grammars := make([]grammar.Grammar, len(loaded))
	for i, g := range loaded {
		grammars[i] = g
	}
	return decoder.New(f.Search, models, grammars...)
}
