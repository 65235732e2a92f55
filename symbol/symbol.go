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

package symbol

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// ID is an interned terminal or nonterminal. Terminals are positive,
// nonterminals are negative and zero means "no symbol".
type ID int32

const (
	None ID = 0

	GoalName         = "S"
	UntranslatedName = "<unt>"
	SentenceStart    = "<s>"
	SentenceEnd      = "</s>"
)

// IsNonterminal reports whether id was interned as a nonterminal.
func (id ID) IsNonterminal() bool {
	return id < 0
}

func (id ID) String() string {
	return Default.String(id)
}

// Table interns symbol names. It is safe for concurrent use; lookups take
// a read lock only.
type Table struct {
	mu        sync.RWMutex
	terminals map[string]ID
	nonterms  map[string]ID
	// names are indexed by the absolute value of the id
	termNames    []string
	nontermNames []string
}

func NewTable() *Table {
	return &Table{
		terminals:    map[string]ID{},
		nonterms:     map[string]ID{},
		termNames:    []string{""},
		nontermNames: []string{""},
	}
}

// Terminal interns a terminal symbol.
func (t *Table) Terminal(name string) ID {
	t.mu.RLock()
	id, ok := t.terminals[name]
	t.mu.RUnlock()
	if ok {
		return id
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.terminals[name]; ok {
		return id
	}
	id = ID(len(t.termNames))
	t.terminals[name] = id
	t.termNames = append(t.termNames, name)
	return id
}

// Nonterminal interns a nonterminal. Brackets and an antecedent index are
// stripped, so "[X,1]", "[X]" and "X" all name the same symbol.
func (t *Table) Nonterminal(name string) ID {
	name = BaseName(name)
	t.mu.RLock()
	id, ok := t.nonterms[name]
	t.mu.RUnlock()
	if ok {
		return id
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.nonterms[name]; ok {
		return id
	}
	id = -ID(len(t.nontermNames))
	t.nonterms[name] = id
	t.nontermNames = append(t.nontermNames, name)
	return id
}

// LookupTerminal returns the id of an already interned terminal.
func (t *Table) LookupTerminal(name string) (ID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.terminals[name]
	return id, ok
}

// String returns the surface form. Nonterminals are rendered bracketed.
func (t *Table) String(id ID) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	switch {
	case id == None:
		return ""
	case id > 0 && int(id) < len(t.termNames):
		return t.termNames[id]
	case id < 0 && int(-id) < len(t.nontermNames):
		return "[" + t.nontermNames[-id] + "]"
	}
	return fmt.Sprintf("<unknown:%d>", id)
}

// Strings maps a sequence of ids to their surface forms.
func (t *Table) Strings(ids []ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = t.String(id)
	}
	return out
}

// IsNonterminalToken reports whether a rule token is written as a
// nonterminal, e.g. "[X]" or "[X,2]".
func IsNonterminalToken(tok string) bool {
	return len(tok) > 2 && tok[0] == '[' && tok[len(tok)-1] == ']'
}

// BaseName strips the brackets and antecedent index of a nonterminal token.
func BaseName(tok string) string {
	if IsNonterminalToken(tok) {
		tok = tok[1 : len(tok)-1]
	}
	if c := strings.LastIndexByte(tok, ','); c >= 0 {
		if _, err := strconv.Atoi(tok[c+1:]); err == nil {
			tok = tok[:c]
		}
	}
	return tok
}

// AntecedentIndex returns the zero based antecedent index written in a
// nonterminal token ("[X,2]" -> 1), or -1 when none is written.
func AntecedentIndex(tok string) int {
	if !IsNonterminalToken(tok) {
		return -1
	}
	inner := tok[1 : len(tok)-1]
	c := strings.LastIndexByte(inner, ',')
	if c < 0 {
		return -1
	}
	n, err := strconv.Atoi(inner[c+1:])
	if err != nil || n < 1 {
		return -1
	}
	return n - 1
}

// Default is the process wide table.
var Default = NewTable()

var (
	Goal         = Default.Nonterminal(GoalName)
	Untranslated = Default.Terminal(UntranslatedName)
	Start        = Default.Terminal(SentenceStart)
	End          = Default.Terminal(SentenceEnd)
)

func Terminal(name string) ID {
	return Default.Terminal(name)
}

func Nonterminal(name string) ID {
	return Default.Nonterminal(name)
}

func Terminals(names []string) []ID {
	ids := make([]ID, len(names))
	for i, n := range names {
		ids[i] = Default.Terminal(n)
	}
	return ids
}

func Strings(ids []ID) []string {
	return Default.Strings(ids)
}
