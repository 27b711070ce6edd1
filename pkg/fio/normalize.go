package fio

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedReport reports output that never decoded into a Report.
	ErrMalformedReport = errors.New("fio: malformed report")
	// ErrNoTargetBlock reports a document with no job or client block.
	ErrNoTargetBlock = errors.New("fio: no job or client block in report")
	// ErrNoActiveDirection reports a block where neither read nor write
	// moved any I/O.
	ErrNoActiveDirection = errors.New("fio: no active read/write direction")
)

// Sample is the normalized outcome of one invocation.
type Sample struct {
	IOPS   float64 `json:"iops"`
	CLatMs float64 `json:"clat_ms"`
}

// Normalize reduces a decoded report to a single sample. It prefers the
// "All clients" aggregate, then the first client block, then the first
// job block. Within the block the read group wins if it has positive
// IOPS, write otherwise. Latency is the 99th-percentile completion
// latency when the percentile table is present; the aggregate view drops
// the table, so its mean stands in. Values convert from ns to ms.
func Normalize(r *Report) (Sample, error) {
	target, err := targetBlock(r)
	if err != nil {
		return Sample{}, err
	}

	var dir *DirStats
	switch {
	case target.Read.IOPS > 0:
		dir = &target.Read
	case target.Write.IOPS > 0:
		dir = &target.Write
	default:
		return Sample{}, fmt.Errorf("%w: job %q", ErrNoActiveDirection, target.Jobname)
	}

	clatNs := dir.ClatNs.Mean
	if p99, ok := dir.ClatNs.Percentile["99.000000"]; ok {
		clatNs = float64(p99)
	}

	return Sample{IOPS: dir.IOPS, CLatMs: clatNs / 1_000_000}, nil
}

func targetBlock(r *Report) (*JobStats, error) {
	for i := range r.ClientStats {
		if r.ClientStats[i].Jobname == "All clients" {
			return &r.ClientStats[i], nil
		}
	}
	if len(r.ClientStats) > 0 {
		return &r.ClientStats[0], nil
	}
	if len(r.Jobs) > 0 {
		return &r.Jobs[0], nil
	}
	return nil, ErrNoTargetBlock
}
