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

package model

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"sigs.k8s.io/hiero-decoder/debug"
)

// ReadARPA loads the unigram and bigram sections of an ARPA file into lm.
// Higher orders are skipped.
func ReadARPA(in io.Reader, lm *BigramLM) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	order := -1
	lineNo := 0
	counts := map[int]int{}
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == `\data\`:
			order = 0
			continue
		case line == `\end\`:
			debug.Debugf("arpa: read %d unigrams and %d bigrams\n", counts[1], counts[2])
			return nil
		case strings.HasPrefix(line, `\`) && strings.HasSuffix(line, "-grams:"):
			n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(line, `\`), "-grams:"))
			if err != nil {
				return fmt.Errorf("line %d: bad section header %q", lineNo, line)
			}
			order = n
			continue
		}
		if order < 0 {
			// anything before \data\ is a comment
			continue
		}
		if order == 0 || order > 2 {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < order+1 {
			return fmt.Errorf("line %d: expected %d words in %q", lineNo, order, line)
		}
		logProb, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		switch order {
		case 1:
			backoff := 0.0
			if len(fields) > 2 {
				if backoff, err = strconv.ParseFloat(fields[2], 64); err != nil {
					return fmt.Errorf("line %d: %w", lineNo, err)
				}
			}
			lm.AddUnigram(fields[1], logProb, backoff)
		case 2:
			lm.AddBigram(fields[1], fields[2], logProb)
		}
		counts[order]++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if order < 0 {
		return fmt.Errorf(`no \data\ section found`)
	}
	return nil
}

func LoadARPA(path string, weight, oovCost float64) (*BigramLM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lm := NewBigramLM(weight, oovCost)
	if err := ReadARPA(f, lm); err != nil {
		return nil, fmt.Errorf("reading language model %s: %w", path, err)
	}
	return lm, nil
}
