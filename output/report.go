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

package output

import (
	"strings"

	"github.com/google/uuid"

	"sigs.k8s.io/hiero-decoder/decoder"
)

// Report is the printable outcome of one decoded sentence.
type Report struct {
	ID          string        `json:"id" yaml:"id"`
	Source      string        `json:"source" yaml:"source"`
	Translation string        `json:"translation,omitempty" yaml:"translation,omitempty"`
	Tree        string        `json:"tree,omitempty" yaml:"tree,omitempty"`
	Cost        float64       `json:"cost,omitempty" yaml:"cost,omitempty"`
	Items       int           `json:"items,omitempty" yaml:"items,omitempty"`
	Deductions  int           `json:"deductions,omitempty" yaml:"deductions,omitempty"`
	Stats       decoder.Stats `json:"stats" yaml:"stats"`
	DurationMs  float64       `json:"duration_ms" yaml:"duration_ms"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewReport builds a report from what Decode returned. res may be nil.
func NewReport(id uuid.UUID, tokens []string, res *decoder.Result, err error) *Report {
	r := &Report{ID: id.String(), Source: strings.Join(tokens, " ")}
	if err != nil {
		r.Error = err.Error()
	}
	if res == nil {
		return r
	}
	r.Stats = res.Stats
	r.DurationMs = float64(res.Duration.Microseconds()) / 1000
	if res.HyperGraph != nil && res.Best != nil {
		r.Translation = res.Best.Translation()
		r.Tree = res.Best.Tree()
		r.Cost = res.HyperGraph.BestCost()
		r.Items, r.Deductions = res.HyperGraph.NumItems()
	}
	return r
}

func (r *Report) Failed() bool {
	return r.Error != ""
}
