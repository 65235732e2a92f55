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
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Decoder", func() {
	It("should decode a batch of sentences independently", func() {
		models := phraseModels()
		d, err := New(DefaultConfig(), models, newGrammar(models, lexicalRules...))
		Expect(err).NotTo(HaveOccurred())

		res, err := d.Decode(context.Background(), []string{"a", "b", "c"})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Best.Translation()).To(Equal("A B C"))
		Expect(res.HyperGraph.BestCost()).To(BeNumerically("~", 2.5, 1e-9))
		Expect(res.Stats.Added).To(BeNumerically(">", 0))

		res, err = d.Decode(context.Background(), []string{"c"})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Best.Translation()).To(Equal("C"))
		Expect(res.Source).To(Equal([]string{"c"}))
	})

	It("should fail an empty sentence without failing the decoder", func() {
		models := phraseModels()
		d, err := New(DefaultConfig(), models, newGrammar(models, lexicalRules...))
		Expect(err).NotTo(HaveOccurred())

		_, err = d.Decode(context.Background(), nil)
		var failure *SearchFailure
		Expect(errors.As(err, &failure)).To(BeTrue())

		_, err = d.Decode(context.Background(), []string{"c"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should require a grammar", func() {
		_, err := New(DefaultConfig(), phraseModels())
		Expect(err).To(HaveOccurred())
	})
})

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "no cap", mutate: func(c *Config) { c.MaxNItems = 0 }},
		{name: "negative cap", mutate: func(c *Config) { c.MaxNItems = -1 }, wantErr: true},
		{name: "negative threshold", mutate: func(c *Config) { c.RelativeThreshold = -1 }, wantErr: true},
		{name: "negative fuzz", mutate: func(c *Config) { c.Fuzz2 = -0.5 }, wantErr: true},
		{name: "no goal", mutate: func(c *Config) { c.GoalSymbol = "" }, wantErr: true},
		{name: "no default nonterminal", mutate: func(c *Config) { c.DefaultNonterminals = nil }, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Errorf("expected an error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
