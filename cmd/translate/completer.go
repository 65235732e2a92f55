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

package translate

import (
	"github.com/c-bata/go-prompt"
	"k8s.io/apimachinery/pkg/util/sets"

	"sigs.k8s.io/hiero-decoder/grammar"
)

const (
	// SourceTokenSeparators split the prompt line into source words.
	SourceTokenSeparators = " \t"

	maxSuggestions = 20
)

type vocabularyProvider interface {
	Vocabulary() sets.String
}

// Vocabulary collects the source words known to the grammars that can list
// them.
func Vocabulary(grammars []grammar.Grammar) sets.String {
	words := sets.NewString()
	for _, g := range grammars {
		if v, ok := g.(vocabularyProvider); ok {
			words = words.Union(v.Vocabulary())
		}
	}
	return words
}

type Completer struct {
	vocabulary sets.String
}

func NewCompleter(vocabulary sets.String) *Completer {
	return &Completer{vocabulary: vocabulary}
}

func (c *Completer) Complete(d prompt.Document) []prompt.Suggest {
	return c.suggest(d.GetWordBeforeCursorUntilSeparator(SourceTokenSeparators))
}

// suggest prefers prefix matches and falls back to fuzzy ones.
func (c *Completer) suggest(word string) []prompt.Suggest {
	if word == "" {
		return []prompt.Suggest{}
	}
	matches := FilterPrefix(c.vocabulary, word, true)
	kind := "source word"
	if matches.Len() == 0 {
		matches = FilterFuzzy(c.vocabulary, word, true)
		kind = "source word (fuzzy)"
	}
	list := matches.List()
	if len(list) > maxSuggestions {
		list = list[:maxSuggestions]
	}
	suggests := make([]prompt.Suggest, len(list))
	for i, s := range list {
		suggests[i] = prompt.Suggest{Text: s, Description: kind}
	}
	return suggests
}
