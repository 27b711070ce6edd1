// Package analyze holds the curve analysis used by the sweep: plateau
// detection drives the stopping rule, knee identification annotates the
// final report.
package analyze

// windowCap is how many previous samples a plateau comparison sees.
const windowCap = 3

// Detector implements the stopping rule for one doubling sweep: once a
// minimum number of runs has happened and three previous throughput
// values are on record, a new value that is not at least Threshold times
// the best of those three ends the sweep.
//
// The comparison precedes the append. The window only ever holds values
// seen before the current one, never the current one itself.
type Detector struct {
	Threshold float64
	MinRuns   int

	window [windowCap]float64
	size   int
	next   int
	runs   int
}

// NewDetector returns a Detector requiring a relative improvement of
// threshold (e.g. 1.05 for 5%) after minRuns runs.
func NewDetector(threshold float64, minRuns int) *Detector {
	return &Detector{Threshold: threshold, MinRuns: minRuns}
}

// Plateaued presents the next value of the sweep and reports whether the
// sweep should stop there. A value that triggers the stop is discarded;
// any other value enters the window, evicting the oldest.
func (d *Detector) Plateaued(v float64) bool {
	d.runs++
	if d.runs >= d.MinRuns && d.size == windowCap && v < d.max()*d.Threshold {
		return true
	}
	d.window[d.next] = v
	d.next = (d.next + 1) % windowCap
	if d.size < windowCap {
		d.size++
	}
	return false
}

// Runs returns how many values have been presented so far.
func (d *Detector) Runs() int { return d.runs }

// max is only meaningful once the window is full, which is the only
// state Plateaued consults it in.
func (d *Detector) max() float64 {
	m := d.window[0]
	for _, v := range d.window[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
