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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/golang/protobuf/proto"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v2"
)

var (
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgHiCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

func ToPrettyJson(r *Report) (*string, error) {
	s, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return proto.String(string(s)), nil
}

func ToPrettyColoredJson(r *Report) (*string, error) {
	f := prettyjson.NewFormatter()
	f.Indent = 4
	f.KeyColor = color.New(color.FgGreen)
	f.NullColor = color.New(color.Underline)
	f.NumberColor = color.New(color.FgYellow)
	f.StringColor = color.New(color.FgHiCyan)
	f.BoolColor = nil

	s, err := f.Marshal(r)
	if err != nil {
		return nil, err
	}
	return proto.String(string(s)), nil
}

func ToYaml(r *Report) (*string, error) {
	o, err := yaml.Marshal(r)
	if err != nil {
		return nil, err
	}
	return proto.String(string(o)), nil
}

// ToText renders a report for a terminal: the translation first, then the
// derivation and the search counters in an aligned block.
func ToText(r *Report, colorized bool) *string {
	paint := func(f func(...interface{}) string, s string) string {
		if colorized {
			return f(s)
		}
		return s
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", paint(yellow, "["+r.ID+"]"), r.Source)
	if r.Failed() {
		fmt.Fprintf(&sb, "  %s\n", paint(red, "error: "+r.Error))
	} else {
		fmt.Fprintf(&sb, "  %s %s\n", paint(green, "=>"), paint(cyan, r.Translation))
		fmt.Fprintf(&sb, "  %s\n", r.Tree)
	}
	rows := [][2]string{
		{"cost", fmt.Sprintf("%.6g", r.Cost)},
		{"items/deductions", fmt.Sprintf("%d/%d", r.Items, r.Deductions)},
		{"added", fmt.Sprint(r.Stats.Added)},
		{"merged", fmt.Sprint(r.Stats.Merged)},
		{"pruned", fmt.Sprint(r.Stats.Pruned)},
		{"prepruned", fmt.Sprintf("%d (fuzz1 %d, fuzz2 %d)", r.Stats.Prepruned, r.Stats.PreprunedFuzz1, r.Stats.PreprunedFuzz2)},
		{"dot items", fmt.Sprint(r.Stats.DotItemsAdded)},
		{"compute item", fmt.Sprint(r.Stats.ComputeItemCalls)},
		{"time", fmt.Sprintf("%.3fms", r.DurationMs)},
	}
	width := 0
	for _, row := range rows {
		if w := runewidth.StringWidth(row[0]); w > width {
			width = w
		}
	}
	for _, row := range rows {
		fmt.Fprintf(&sb, "    %s  %s\n", runewidth.FillRight(row[0], width), row[1])
	}
	return proto.String(sb.String())
}

func ToPrettyFormat(r *Report, outputType string, colorized bool) (*string, error) {
	switch outputType {
	case "json":
		if colorized {
			return ToPrettyColoredJson(r)
		}
		return ToPrettyJson(r)
	case "yaml":
		return ToYaml(r)
	case "text":
		return ToText(r, colorized), nil
	}
	return nil, fmt.Errorf("unsupported formatting option (%s)", outputType)
}
