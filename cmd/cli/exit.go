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

package cli

import (
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/sets"
)

var (
	exitStrings = sets.NewString("q", "quit", "exit", ":q", ":quit")

	exitQuotes = []string{
		"\nA word is not a translation, but it is a start.",
		"\nEvery sentence has a cheapest derivation. Most of them are wrong.",
		"\nI tried to translate my thoughts, but the beam was too narrow.",
		"\nThe goal symbol was reached. Nobody knows how.",
		"\nSometimes the glue rule is all you have.",
		"\nOut of vocabulary, out of ideas.",
	}
)

// IsExit reports whether the prompt input asks to leave.
func IsExit(qs string) bool {
	return exitStrings.Has(strings.TrimSpace(qs))
}

// ExitFunc prints a parting quote to out when qs is an exit string. The
// caller is expected to stop reading input when it returns true.
func ExitFunc(out io.Writer, qs string) bool {
	if !IsExit(qs) {
		return false
	}
	r := rand.New(rand.NewSource(time.Now().Unix()))
	fmt.Fprintln(out, exitQuotes[r.Intn(len(exitQuotes))])
	return true
}
