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
	"context"
	"io/ioutil"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"sigs.k8s.io/hiero-decoder/decoder"
)

const testRules = `
# lexical rules
X ||| a b ||| A B ||| 1.0
X ||| c ||| C ||| 1.0
`

const testARPA = `
\data\
ngram 1=4
ngram 2=1

\1-grams:
-1.0	<s>	-0.2
-1.0	</s>
-1.0	A	-0.2
-1.0	C	-0.2

\2-grams:
-0.1	A C

\end\
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := ioutil.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("unable to write %s: %v", name, err)
		}
	}
	return dir
}

func TestParse(t *testing.T) {
	testCases := []struct {
		name    string
		data    string
		check   func(*testing.T, *File)
		wantErr string
	}{
		{
			name: "empty file keeps defaults",
			data: "",
			check: func(t *testing.T, f *File) {
				if f.Search.MaxNItems != decoder.DefaultMaxNItems || !f.Search.UseCubePrune {
					t.Errorf("defaults lost: %+v", f.Search)
				}
			},
		},
		{
			name: "search overrides",
			data: "search:\n  max_n_items: 5\n  use_cube_prune: false\n  default_nonterminals: [Y, X]\n",
			check: func(t *testing.T, f *File) {
				if f.Search.MaxNItems != 5 || f.Search.UseCubePrune || f.Search.RelativeThreshold != decoder.DefaultRelativeThreshold {
					t.Errorf("unexpected search config %+v", f.Search)
				}
				if strings.Join(f.Search.DefaultNonterminals, ",") != "Y,X" {
					t.Errorf("default nonterminals = %v", f.Search.DefaultNonterminals)
				}
			},
		},
		{
			name: "grammar overrides",
			data: "grammars:\n- path: rules.txt\n  span_limit: 0\n",
			check: func(t *testing.T, f *File) {
				if f.Grammars[0].SpanLimit == nil || *f.Grammars[0].SpanLimit != 0 || f.Grammars[0].MaxNRules != nil {
					t.Errorf("unexpected grammar %+v", f.Grammars[0])
				}
			},
		},
		{name: "unknown key", data: "serch: {}\n", wantErr: "serch"},
		{name: "bad search", data: "search:\n  fuzz1: -1\n", wantErr: "fuzz1"},
		{name: "grammar without path", data: "grammars:\n- owner: pt\n", wantErr: "path"},
		{name: "unknown model", data: "models:\n- type: trigram\n", wantErr: "trigram"},
		{name: "lm without path", data: "models:\n- type: bigram_lm\n", wantErr: "ARPA"},
		{name: "inverted arity", data: "models:\n- type: arity_phrase_penalty\n  min_arity: 2\n  max_arity: 1\n", wantErr: "min_arity"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Parse([]byte(tc.data), "")
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Errorf("expected an error mentioning %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tc.check(t, f)
		})
	}
}

func TestBuild(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"rules.txt": testRules,
		"lm.arpa":   testARPA,
		"hiero.yaml": `
search:
  max_n_items: 10
grammars:
- path: rules.txt
glue:
  enabled: true
models:
- type: phrase_model
  column: 0
- type: phrase_model
  owner: glue
- type: phrase_penalty
  owner: <unt>
  weight: 10
- type: word_penalty
  weight: 0
- type: arity_phrase_penalty
  min_arity: 0
  max_arity: 0
  weight: 0
- type: bigram_lm
  path: lm.arpa
  weight: 0
`,
	})
	f, err := Load(filepath.Join(dir, "hiero.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, err := f.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(d.Grammars()); got != 2 {
		t.Errorf("expected the grammar and the glue grammar, got %d", got)
	}
	res, err := d.Decode(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Best.Translation(); got != "A B C" {
		t.Errorf("translation = %q", got)
	}
	if want := 2 + math.Log10(math.E); math.Abs(res.HyperGraph.BestCost()-want) > 1e-9 {
		t.Errorf("cost = %v, want %v", res.HyperGraph.BestCost(), want)
	}
}

func TestBuildMissingFiles(t *testing.T) {
	for _, data := range []string{
		"grammars:\n- path: missing.txt\n",
		"models:\n- type: bigram_lm\n  path: missing.arpa\n",
	} {
		f, err := Parse([]byte(data), t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := f.Build(); err == nil {
			t.Errorf("expected an error building %q", data)
		}
	}
}

func TestBuildDefaultModels(t *testing.T) {
	dir := writeFiles(t, map[string]string{"rules.txt": testRules})
	f, err := Parse([]byte("grammars:\n- path: rules.txt\nglue:\n  enabled: true\n"), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	models, err := f.BuildModels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if models.Len() != len(DefaultModels()) {
		t.Errorf("expected %d default models, got %d", len(DefaultModels()), models.Len())
	}
	d, err := f.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := d.Decode(context.Background(), []string{"c", "a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Best.Translation(); got != "C A B" {
		t.Errorf("translation = %q", got)
	}
}
