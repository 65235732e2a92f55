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

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/cli-runtime/pkg/genericclioptions"

	"sigs.k8s.io/hiero-decoder/cmd/cli"
	"sigs.k8s.io/hiero-decoder/cmd/translate"
	"sigs.k8s.io/hiero-decoder/config"
	"sigs.k8s.io/hiero-decoder/metrics"
)

var outputFormats = sets.NewString("json", "yaml", "text")

// DecodeOptions holds what a decode run needs before it starts.
type DecodeOptions struct {
	args  []string
	flags cli.DecodeFlags
	file  *config.File
	genericclioptions.IOStreams
}

func NewDecodeOptions(streams genericclioptions.IOStreams) *DecodeOptions {
	return &DecodeOptions{IOStreams: streams}
}

type RootDecodeCmd struct {
	*cobra.Command
	options *DecodeOptions
}

func addFlags(cmd *cobra.Command, options *DecodeOptions) {
	cmd.Flags().StringVarP(&options.flags.ConfigFile, "config", "f", "", "YAML decoder configuration with search settings, grammars and models")
	cmd.Flags().StringArrayVarP(&options.flags.Grammars, "grammar", "g", options.flags.Grammars, "rule file to load in addition to the configured grammars, may be repeated")
	cmd.Flags().BoolVar(&options.flags.Glue, "glue", options.flags.Glue, "if true, adds the glue grammar")
	cmd.Flags().StringVarP(&options.flags.Input, "input", "i", translate.StdinInput, "file with one tokenized sentence per line, - for stdin")
	cmd.Flags().BoolVarP(&options.flags.Interactive, "interactive", "I", options.flags.Interactive, "if true, reads sentences from an interactive prompt")
	cmd.Flags().StringVarP(&options.flags.Output, "output", "o", "text", "Output format for reports: text, json or yaml")
	cmd.Flags().BoolVar(&options.flags.NoColor, "no-color", options.flags.NoColor, "if true, prints reports without colors")
	cmd.Flags().BoolVar(&options.flags.CubePrune, "cube-prune", true, "overrides search.use_cube_prune")
	cmd.Flags().IntVar(&options.flags.MaxItems, "max-items", 0, "overrides search.max_n_items, 0 disables the cap")
	cmd.Flags().BoolVar(&options.flags.ShowMetrics, "show-metrics", options.flags.ShowMetrics, "if true, dumps search metrics in the Prometheus text format when done")
}

// NewCmdDecode provides a cobra command wrapping DecodeOptions
func NewCmdDecode(streams genericclioptions.IOStreams) *RootDecodeCmd {
	o := NewDecodeOptions(streams)
	cmd := &cobra.Command{
		Use: "hiero [options] [sentence...]",
		Example: `
hiero -f hiero.yaml < input.txt                    # translate every line of input.txt
hiero -g rules.txt --glue "das haus"               # translate one sentence with a single rule file
hiero -f hiero.yaml -I                             # for interactive mode
hiero -f hiero.yaml -i input.txt -oyaml --show-metrics
`,
		SilenceUsage: true,

		RunE: func(c *cobra.Command, args []string) error {
			if err := o.Complete(c, args); err != nil {
				return err
			}
			if err := o.Validate(); err != nil {
				return err
			}
			tc, err := o.toTranslateCmd()
			if err != nil {
				return err
			}
			return tc.Run(c.Context(), o.flags)
		},
	}
	root := &RootDecodeCmd{Command: cmd, options: o}

	addFlags(cmd, o)

	return root
}

// Complete loads the configuration file and applies the flags that override
// it.
func (o *DecodeOptions) Complete(cmd *cobra.Command, args []string) error {
	o.args = args
	o.flags.Changed = map[string]bool{}
	for _, name := range []string{"cube-prune", "max-items", "input"} {
		o.flags.Changed[name] = cmd.Flags().Changed(name)
	}

	var err error
	if o.flags.ConfigFile != "" {
		if o.file, err = config.Load(o.flags.ConfigFile); err != nil {
			return err
		}
	} else {
		o.file = config.Default()
	}
	for _, path := range o.flags.Grammars {
		o.file.Grammars = append(o.file.Grammars, config.Grammar{Path: path})
	}
	if o.flags.Glue {
		o.file.Glue.Enabled = true
	}
	if o.flags.Changed["cube-prune"] {
		o.file.Search.UseCubePrune = o.flags.CubePrune
	}
	if o.flags.Changed["max-items"] {
		o.file.Search.MaxNItems = o.flags.MaxItems
	}
	return nil
}

// Validate ensures that all required arguments and flag values are provided
func (o *DecodeOptions) Validate() error {
	if !outputFormats.Has(o.flags.Output) {
		return fmt.Errorf("unsupported output format %q, expected one of %v", o.flags.Output, outputFormats.List())
	}
	if len(o.file.Grammars) == 0 && !o.file.Glue.Enabled {
		return fmt.Errorf("no grammar configured, use --grammar or --config")
	}
	if o.flags.Interactive && (len(o.args) > 0 || o.flags.Changed["input"]) {
		return fmt.Errorf("--interactive reads from the prompt and cannot be combined with an input")
	}
	return o.file.Validate()
}

func (o *DecodeOptions) toTranslateCmd() (*translate.TranslateCommand, error) {
	d, err := o.file.Build()
	if err != nil {
		return nil, err
	}
	return &translate.TranslateCommand{
		DecodeCommand: cli.DecodeCommand{Streams: o.IOStreams},
		Decoder:       d,
		Recorder:      metrics.NewRecorder(),
		Sentences:     o.args,
	}, nil
}
