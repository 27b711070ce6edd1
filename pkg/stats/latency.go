// Package stats accumulates the latency side of a tuning run so the
// final report can describe the distribution across all invocations.
package stats

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// LatencyRecorder aggregates per-invocation completion latencies into a
// fixed-memory histogram: microseconds from 1us to one hour at three
// significant figures.
type LatencyRecorder struct {
	hist *hdrhistogram.Histogram
}

func NewLatencyRecorder() *LatencyRecorder {
	return &LatencyRecorder{hist: hdrhistogram.New(1, 3600000000, 3)}
}

// RecordMs adds one completion-latency observation in milliseconds.
// Values outside the trackable range clamp to its edges.
func (r *LatencyRecorder) RecordMs(ms float64) {
	us := int64(ms * 1000)
	if us < r.hist.LowestTrackableValue() {
		us = r.hist.LowestTrackableValue()
	}
	if us > r.hist.HighestTrackableValue() {
		us = r.hist.HighestTrackableValue()
	}
	_ = r.hist.RecordValue(us)
}

// Summary is the distribution snapshot embedded in the report.
type Summary struct {
	Count int64         `json:"count"`
	Min   time.Duration `json:"min"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P90   time.Duration `json:"p90"`
	P99   time.Duration `json:"p99"`
	Max   time.Duration `json:"max"`
}

func (r *LatencyRecorder) Summary() Summary {
	if r.hist.TotalCount() == 0 {
		return Summary{}
	}
	return Summary{
		Count: r.hist.TotalCount(),
		Min:   time.Duration(r.hist.Min()) * time.Microsecond,
		Mean:  time.Duration(r.hist.Mean()) * time.Microsecond,
		P50:   time.Duration(r.hist.ValueAtQuantile(50)) * time.Microsecond,
		P90:   time.Duration(r.hist.ValueAtQuantile(90)) * time.Microsecond,
		P99:   time.Duration(r.hist.ValueAtQuantile(99)) * time.Microsecond,
		Max:   time.Duration(r.hist.Max()) * time.Microsecond,
	}
}
