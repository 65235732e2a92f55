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

import "fmt"

// Stats counts search events. Every Bin and DotBin keeps its own, so cells
// can be expanded concurrently; Chart.Stats sums them.
type Stats struct {
	Added            int `json:"added" yaml:"added"`
	Merged           int `json:"merged" yaml:"merged"`
	Pruned           int `json:"pruned" yaml:"pruned"`
	Prepruned        int `json:"prepruned" yaml:"prepruned"`
	PreprunedFuzz1   int `json:"prepruned_fuzz1" yaml:"prepruned_fuzz1"`
	PreprunedFuzz2   int `json:"prepruned_fuzz2" yaml:"prepruned_fuzz2"`
	DotItemsAdded    int `json:"dot_items_added" yaml:"dot_items_added"`
	ComputeItemCalls int `json:"compute_item_calls" yaml:"compute_item_calls"`
}

func (s *Stats) Add(o Stats) {
	s.Added += o.Added
	s.Merged += o.Merged
	s.Pruned += o.Pruned
	s.Prepruned += o.Prepruned
	s.PreprunedFuzz1 += o.PreprunedFuzz1
	s.PreprunedFuzz2 += o.PreprunedFuzz2
	s.DotItemsAdded += o.DotItemsAdded
	s.ComputeItemCalls += o.ComputeItemCalls
}

func (s Stats) String() string {
	return fmt.Sprintf("added=%d merged=%d pruned=%d prepruned=%d fuzz1=%d fuzz2=%d dot_items=%d compute_item=%d",
		s.Added, s.Merged, s.Pruned, s.Prepruned, s.PreprunedFuzz1, s.PreprunedFuzz2, s.DotItemsAdded, s.ComputeItemCalls)
}
