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
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// FilterPrefix keeps the words that start with prefix.
func FilterPrefix(words sets.String, prefix string, ignoreCase bool) sets.String {
	return filterSet(words, prefix, ignoreCase, strings.HasPrefix)
}

// FilterFuzzy keeps the words that contain sub as a subsequence, i.e. "hs"
// matches "house".
func FilterFuzzy(words sets.String, sub string, ignoreCase bool) sets.String {
	return filterSet(words, sub, ignoreCase, fuzzyMatch)
}

func filterSet(words sets.String, sub string, ignoreCase bool, inclusionFunc func(string, string) bool) sets.String {
	if sub == "" {
		return words
	}
	if ignoreCase {
		sub = strings.ToLower(sub)
	}
	ret := sets.NewString()
	for word := range words {
		candidate := word
		if ignoreCase {
			candidate = strings.ToLower(word)
		}
		if inclusionFunc(candidate, sub) {
			ret.Insert(word)
		}
	}
	return ret
}

func fuzzyMatch(s, sub string) bool {
	sChars := []rune(s)
	idx := 0
	for _, c := range sub {
		found := false
		for ; idx < len(sChars); idx++ {
			if sChars[idx] == c {
				found = true
				idx++
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
