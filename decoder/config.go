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
	"fmt"
	"math"

	"sigs.k8s.io/hiero-decoder/symbol"
)

const (
	DefaultMaxNItems         = 30
	DefaultRelativeThreshold = 10.0
	DefaultFuzz              = 0.1

	// Epsilon keeps a tightened cutoff strictly above the item it was
	// derived from.
	Epsilon = 1e-6
)

// Config holds the search settings. It is read only during a decode.
type Config struct {
	// MaxNItems caps the live items of a bin, 0 means no cap.
	MaxNItems         int     `yaml:"max_n_items" json:"max_n_items"`
	RelativeThreshold float64 `yaml:"relative_threshold" json:"relative_threshold"`
	UseCubePrune      bool    `yaml:"use_cube_prune" json:"use_cube_prune"`
	Fuzz1             float64 `yaml:"fuzz1" json:"fuzz1"`
	Fuzz2             float64 `yaml:"fuzz2" json:"fuzz2"`

	GoalSymbol          string   `yaml:"goal_symbol" json:"goal_symbol"`
	DefaultNonterminals []string `yaml:"default_nonterminals" json:"default_nonterminals"`

	// Parallel expands the cells of one width concurrently.
	Parallel bool `yaml:"parallel" json:"parallel"`
}

func DefaultConfig() Config {
	return Config{
		MaxNItems:           DefaultMaxNItems,
		RelativeThreshold:   DefaultRelativeThreshold,
		UseCubePrune:        true,
		Fuzz1:               DefaultFuzz,
		Fuzz2:               DefaultFuzz,
		GoalSymbol:          symbol.GoalName,
		DefaultNonterminals: []string{"X"},
	}
}

func (c Config) Validate() error {
	if c.MaxNItems < 0 {
		return fmt.Errorf("max_n_items must not be negative, got %d", c.MaxNItems)
	}
	for name, v := range map[string]float64{
		"relative_threshold": c.RelativeThreshold,
		"fuzz1":              c.Fuzz1,
		"fuzz2":              c.Fuzz2,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%s must be a non negative number, got %v", name, v)
		}
	}
	if c.GoalSymbol == "" {
		return fmt.Errorf("goal_symbol must be set")
	}
	if len(c.DefaultNonterminals) == 0 {
		return fmt.Errorf("at least one default nonterminal is required")
	}
	return nil
}

func (c Config) overCap(live int) bool {
	return c.MaxNItems > 0 && live > c.MaxNItems
}

func (c Config) atCap(live int) bool {
	return c.MaxNItems > 0 && live == c.MaxNItems
}
