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

package grammar

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"sigs.k8s.io/hiero-decoder/symbol"
)

const (
	DefaultOwner = "pt"
	GlueOwner    = "glue"
)

var fieldSep = regexp.MustCompile(`\s+\|{3}\s+`)

// ParseRule reads one rule written as "LHS ||| source ||| target ||| scores".
// Nonterminals are bracketed; a target nonterminal "[X,k]" refers to the
// k-th nonterminal of the source side.
func ParseRule(line string, owner symbol.ID) (*Rule, error) {
	fds := fieldSep.Split(strings.TrimSpace(line), -1)
	if len(fds) != 4 {
		return nil, fmt.Errorf("rule line does not have four fields: %q", line)
	}
	r := &Rule{
		LHS:   symbol.Nonterminal(strings.TrimSpace(fds[0])),
		Owner: owner,
	}

	srcToks := strings.Fields(fds[1])
	if len(srcToks) == 0 {
		return nil, fmt.Errorf("rule has an empty source side: %q", line)
	}
	// source nonterminals are numbered in order of appearance unless the
	// token carries an explicit index
	srcIndex := map[int]int{}
	for _, tok := range srcToks {
		if symbol.IsNonterminalToken(tok) {
			written := symbol.AntecedentIndex(tok)
			if written < 0 {
				written = r.Arity
			}
			srcIndex[written] = r.Arity
			r.Arity++
			r.Source = append(r.Source, symbol.Nonterminal(tok))
			continue
		}
		r.Source = append(r.Source, symbol.Terminal(tok))
	}

	nextTgt := 0
	for _, tok := range strings.Fields(fds[2]) {
		if symbol.IsNonterminalToken(tok) {
			written := symbol.AntecedentIndex(tok)
			if written < 0 {
				written = nextTgt
			}
			nextTgt++
			ant, ok := srcIndex[written]
			if !ok {
				return nil, fmt.Errorf("target nonterminal %s has no source counterpart: %q", tok, line)
			}
			r.Target = append(r.Target, symbol.Nonterminal(tok))
			r.TargetAnts = append(r.TargetAnts, ant)
			continue
		}
		r.Target = append(r.Target, symbol.Terminal(tok))
		r.TargetAnts = append(r.TargetAnts, -1)
	}

	for _, s := range strings.Fields(fds[3]) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("bad score %q: %w", s, err)
		}
		r.Scores = append(r.Scores, v)
	}
	return r, nil
}

// ReadRules adds every rule read from in to g. Blank lines and lines
// starting with '#' are skipped.
func ReadRules(in io.Reader, g *MemoryGrammar, owner symbol.ID, est Estimator) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r, err := ParseRule(line, owner)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		r.Estimate(est)
		if err := g.AddRule(r); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// LoadFile reads a rule file into a new finalized grammar.
func LoadFile(path string, opts Options, owner symbol.ID, est Estimator) (*MemoryGrammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g := NewMemoryGrammar(opts)
	if err := ReadRules(f, g, owner, est); err != nil {
		return nil, fmt.Errorf("reading grammar %s: %w", path, err)
	}
	g.Finalize()
	return g, nil
}

// NewGlueGrammar builds the monotone glue grammar: goal -> [nt,1] and
// goal -> [goal,1] [nt,2]. Its rules only apply to spans starting at 0.
func NewGlueGrammar(goal, nt, owner symbol.ID, est Estimator) (*MemoryGrammar, error) {
	g := NewMemoryGrammar(Options{SpanLimit: GlueSpanLimit})
	goalName := strings.Trim(goal.String(), "[]")
	ntName := strings.Trim(nt.String(), "[]")
	lines := []string{
		fmt.Sprintf("%s ||| [%s,1] ||| [%s,1] ||| 0", goalName, ntName, ntName),
		fmt.Sprintf("%s ||| [%s,1] [%s,2] ||| [%s,1] [%s,2] ||| %v",
			goalName, goalName, ntName, goalName, ntName, math.Log10(math.E)),
	}
	for _, line := range lines {
		r, err := ParseRule(line, owner)
		if err != nil {
			return nil, err
		}
		r.Estimate(est)
		if err := g.AddRule(r); err != nil {
			return nil, err
		}
	}
	g.Finalize()
	return g, nil
}
