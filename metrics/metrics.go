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

package metrics

import (
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"sigs.k8s.io/hiero-decoder/decoder"
)

const namespace = "hiero"

// Recorder exports search statistics of every decoded sentence. It owns its
// registry, so several recorders never collide.
type Recorder struct {
	registry  *prometheus.Registry
	events    *prometheus.CounterVec
	sentences *prometheus.CounterVec
	words     prometheus.Counter
	duration  prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "events_total",
			Help:      "Search events by kind, summed over every chart cell.",
		}, []string{"event"}),
		sentences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentences_total",
			Help:      "Decoded sentences by result.",
		}, []string{"result"}),
		words: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_words_total",
			Help:      "Source words fed to the decoder.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_duration_seconds",
			Help:      "Time spent decoding one sentence.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	r.registry.MustRegister(r.events, r.sentences, r.words, r.duration)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records one decode. res may be nil when the decoder gave up before
// building a chart.
func (r *Recorder) Observe(res *decoder.Result, err error) {
	r.sentences.WithLabelValues(resultLabel(err)).Inc()
	if res == nil {
		return
	}
	r.words.Add(float64(len(res.Source)))
	r.duration.Observe(res.Duration.Seconds())
	s := res.Stats
	for event, n := range map[string]int{
		"added":        s.Added,
		"merged":       s.Merged,
		"pruned":       s.Pruned,
		"prepruned":    s.Prepruned,
		"fuzz1":        s.PreprunedFuzz1,
		"fuzz2":        s.PreprunedFuzz2,
		"dot_item":     s.DotItemsAdded,
		"compute_item": s.ComputeItemCalls,
	} {
		r.events.WithLabelValues(event).Add(float64(n))
	}
}

func resultLabel(err error) string {
	var failure *decoder.SearchFailure
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &failure):
		return "no_derivation"
	default:
		return "error"
	}
}

// WriteText dumps every collected metric in the text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("unable to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("unable to encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
