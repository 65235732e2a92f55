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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"sigs.k8s.io/hiero-decoder/cmd/cli"
	"sigs.k8s.io/hiero-decoder/decoder"
	"sigs.k8s.io/hiero-decoder/metrics"
	"sigs.k8s.io/hiero-decoder/output"
)

// StdinInput names standard input as the sentence source.
const StdinInput = "-"

type TranslateCommand struct {
	cli.DecodeCommand
	Decoder  *decoder.Decoder
	Recorder *metrics.Recorder
	// Sentences given on the command line, decoded instead of any input.
	Sentences []string

	outputFormat string
	colorized    bool
	failed       int
}

// Run decodes the sentences named by flags. Sentences that cannot be
// decoded are reported and skipped.
func (c *TranslateCommand) Run(ctx context.Context, flags cli.DecodeFlags) error {
	c.outputFormat = flags.Output
	c.colorized = !flags.NoColor
	if c.Recorder == nil {
		c.Recorder = metrics.NewRecorder()
	}

	var err error
	switch {
	case flags.Interactive:
		c.runInteractive(ctx)
	case len(c.Sentences) > 0:
		err = c.runBatch(ctx, strings.NewReader(strings.Join(c.Sentences, "\n")))
	case flags.Input == "" || flags.Input == StdinInput:
		err = c.runBatch(ctx, c.Streams.In)
	default:
		var f *os.File
		if f, err = os.Open(flags.Input); err != nil {
			return fmt.Errorf("unable to open input: %w", err)
		}
		defer f.Close()
		err = c.runBatch(ctx, f)
	}
	if err != nil {
		return err
	}
	if flags.ShowMetrics {
		return c.Recorder.WriteText(c.Streams.Out)
	}
	return nil
}

// Failed is the number of sentences without a translation so far.
func (c *TranslateCommand) Failed() int {
	return c.failed
}

func (c *TranslateCommand) runBatch(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	total := 0
	for scanner.Scan() {
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 {
			continue
		}
		total++
		if err := c.translate(ctx, tokens); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("unable to read sentences: %w", err)
	}
	klog.InfoS("batch done", "sentences", total, "failed", c.failed)
	return nil
}

// translate decodes and prints one sentence. Only cancellation and output
// errors are returned; a sentence the search cannot handle is reported.
func (c *TranslateCommand) translate(ctx context.Context, tokens []string) error {
	id := uuid.New()
	res, err := c.Decoder.Decode(ctx, tokens)
	c.Recorder.Observe(res, err)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		c.failed++
		klog.ErrorS(err, "unable to translate sentence", "id", id, "words", len(tokens))
	} else {
		klog.V(2).InfoS("translated sentence", "id", id, "words", len(tokens), "cost", res.HyperGraph.BestCost(), "duration", res.Duration)
	}
	o, ferr := output.ToPrettyFormat(output.NewReport(id, tokens, res, err), c.outputFormat, c.colorized)
	if ferr != nil {
		return ferr
	}
	c.Fprintf("%s\n", strings.TrimRight(*o, "\n"))
	return nil
}

// this is the hook for the interactive prompt: exit strings stop the prompt,
// anything else is decoded as a sentence.
func (c *TranslateCommand) promptExecutor(ctx context.Context) prompt.Executor {
	return func(qs string) {
		if cli.ExitFunc(c.Streams.Out, qs) {
			return
		}
		tokens := strings.Fields(qs)
		if len(tokens) == 0 {
			return
		}
		if err := c.translate(ctx, tokens); err != nil {
			c.Errorf("%v\n", err)
		}
	}
}

func (c *TranslateCommand) runInteractive(ctx context.Context) {
	comp := NewCompleter(Vocabulary(c.Decoder.Grammars()))
	p := prompt.New(
		c.promptExecutor(ctx),
		comp.Complete,
		prompt.OptionTitle("hiero: interactive translation"),
		prompt.OptionPrefix(">>> "),
		prompt.OptionCompletionWordSeparator(SourceTokenSeparators),
		prompt.OptionPrefixTextColor(prompt.Cyan),
		prompt.OptionInputTextColor(prompt.Yellow),
		prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
			return breakline && cli.IsExit(in)
		}),
	)
	p.Run()
}
