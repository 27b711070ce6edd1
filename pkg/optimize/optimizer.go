// Package optimize implements the adaptive concurrency search: a doubling
// sweep over iodepth nested inside a doubling sweep over numjobs, each cut
// short once throughput stops improving by a configured margin.
package optimize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/perflab/fiosweep/pkg/analyze"
	"github.com/perflab/fiosweep/pkg/fio"
)

// Runner measures one concurrency point. *fio.Client is the production
// implementation; tests substitute scripted runners.
type Runner interface {
	Run(ctx context.Context, numjobs, iodepth int) (*fio.Report, error)
}

// Point is one concurrency configuration under test.
type Point struct {
	NumJobs int `json:"numjobs"`
	IODepth int `json:"iodepth"`
}

// Config bounds a single optimization run.
type Config struct {
	Threshold      float64 // relative improvement that counts, e.g. 1.05
	MinNumJobsRuns int     // runs before the outer plateau rule arms
	MinIODepthRuns int     // runs before the inner plateau rule arms
	MaxNumJobs     int
	MaxIODepth     int

	// OnSample observes every successful measurement. Optional.
	OnSample func(Point, fio.Sample)
}

// HistoryEntry records one successful invocation.
type HistoryEntry struct {
	Point  Point      `json:"point"`
	Sample fio.Sample `json:"sample"`
}

// Result is the outcome of a run that measured at least one point.
type Result struct {
	Point Point   `json:"point"`
	IOPS  float64 `json:"iops"`
}

// InvocationError wraps the failure that aborted a run together with the
// configuration that could not be measured.
type InvocationError struct {
	Point Point
	Err   error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("numjobs=%d iodepth=%d: %v", e.Point.NumJobs, e.Point.IODepth, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// Optimizer owns all state for one run: the plateau windows, best-so-far
// records, and the invocation history. It is not safe for concurrent use
// and is not meant to be reused across runs.
type Optimizer struct {
	runner  Runner
	cfg     Config
	history []HistoryEntry
}

func New(runner Runner, cfg Config) *Optimizer {
	return &Optimizer{runner: runner, cfg: cfg}
}

// Optimize walks the (numjobs, iodepth) space and returns the highest
// throughput point it measured. Any invocation or normalization failure
// aborts the whole run: a point that cannot be measured would bias the
// doubling sequence and corrupt every later plateau comparison.
func (o *Optimizer) Optimize(ctx context.Context) (Result, error) {
	var best Result

	outer := analyze.NewDetector(o.cfg.Threshold, o.cfg.MinNumJobsRuns)

	for nj := 1; nj <= o.cfg.MaxNumJobs; nj *= 2 {
		slog.Info("optimizing numjobs level", "numjobs", nj)

		levelIOPS, levelDepth := 0.0, 0
		inner := analyze.NewDetector(o.cfg.Threshold, o.cfg.MinIODepthRuns)

		for id := 1; id <= o.cfg.MaxIODepth; id *= 2 {
			pt := Point{NumJobs: nj, IODepth: id}
			sample, err := o.measure(ctx, pt)
			if err != nil {
				return Result{}, &InvocationError{Point: pt, Err: err}
			}

			slog.Info("sample",
				"numjobs", nj, "iodepth", id,
				"iops", sample.IOPS, "clat_ms", sample.CLatMs)

			if inner.Plateaued(sample.IOPS) {
				slog.Info("iodepth plateaued",
					"numjobs", nj, "iodepth", id, "iops", sample.IOPS)
				break
			}

			if sample.IOPS > levelIOPS {
				levelIOPS = sample.IOPS
				levelDepth = id
				if levelIOPS > best.IOPS {
					best = Result{Point: pt, IOPS: levelIOPS}
				}
			}
		}

		slog.Info("level complete",
			"numjobs", nj, "best_iops", levelIOPS, "best_iodepth", levelDepth)

		if outer.Plateaued(levelIOPS) {
			slog.Info("numjobs plateaued", "numjobs", nj, "level_iops", levelIOPS)
			break
		}
	}

	return best, nil
}

func (o *Optimizer) measure(ctx context.Context, pt Point) (fio.Sample, error) {
	report, err := o.runner.Run(ctx, pt.NumJobs, pt.IODepth)
	if err != nil {
		return fio.Sample{}, err
	}
	sample, err := fio.Normalize(report)
	if err != nil {
		return fio.Sample{}, err
	}

	o.history = append(o.history, HistoryEntry{Point: pt, Sample: sample})
	if o.cfg.OnSample != nil {
		o.cfg.OnSample(pt, sample)
	}
	return sample, nil
}

// GetHistory returns every successful invocation in measurement order.
func (o *Optimizer) GetHistory() []HistoryEntry {
	return o.history
}

// DepthCurve returns the (iodepth, IOPS) points measured at one numjobs
// level, in sweep order. Feeds knee identification over the final curve.
func (o *Optimizer) DepthCurve(numjobs int) []analyze.Point {
	var pts []analyze.Point
	for _, h := range o.history {
		if h.Point.NumJobs == numjobs {
			pts = append(pts, analyze.Point{X: float64(h.Point.IODepth), Y: h.Sample.IOPS})
		}
	}
	return pts
}
