// Package fio drives the fio benchmarking tool as a subprocess and
// reduces its JSON reports to comparable throughput/latency samples.
package fio

// Report is one decoded fio JSON document. Local runs report per-job
// blocks under "jobs"; client/server runs report per-client blocks under
// "client_stats" plus a synthetic "All clients" rollup.
type Report struct {
	Version     string     `json:"fio version"`
	Timestamp   int64      `json:"timestamp"`
	Jobs        []JobStats `json:"jobs"`
	ClientStats []JobStats `json:"client_stats"`
}

// JobStats is a single result block: one job, one client, or the
// "All clients" aggregate.
type JobStats struct {
	Jobname  string   `json:"jobname"`
	Hostname string   `json:"hostname"`
	Error    int      `json:"error"`
	Read     DirStats `json:"read"`
	Write    DirStats `json:"write"`
}

// DirStats holds the counters fio reports for one I/O direction.
type DirStats struct {
	IOPS     float64 `json:"iops"`
	TotalIOS int64   `json:"total_ios"`
	ClatNs   LatNs   `json:"clat_ns"`
}

// LatNs is fio's nanosecond completion-latency summary. Aggregate views
// omit the percentile table.
type LatNs struct {
	Min        int64             `json:"min"`
	Max        int64             `json:"max"`
	Mean       float64           `json:"mean"`
	Stddev     float64           `json:"stddev"`
	Percentile map[string]uint64 `json:"percentile,omitempty"`
}
