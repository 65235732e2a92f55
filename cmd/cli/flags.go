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

	"k8s.io/cli-runtime/pkg/genericclioptions"
)

// DecodeFlags are the command line settings of a decode run. Zero values
// leave the configuration file untouched unless the flag was set.
type DecodeFlags struct {
	ConfigFile  string
	Grammars    []string
	Glue        bool
	Input       string
	Interactive bool
	Output      string
	NoColor     bool
	CubePrune   bool
	MaxItems    int
	ShowMetrics bool

	// Changed records which overriding flags were given explicitly.
	Changed map[string]bool
}

type DecodeCommand struct {
	Streams genericclioptions.IOStreams
}

func (c DecodeCommand) Fprintf(format string, a ...interface{}) {
	fmt.Fprintf(c.Streams.Out, format, a...)
}

func (c DecodeCommand) Errorf(format string, a ...interface{}) {
	fmt.Fprintf(c.Streams.ErrOut, format, a...)
}
