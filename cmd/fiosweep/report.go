package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/perflab/fiosweep/pkg/optimize"
	"github.com/perflab/fiosweep/pkg/stats"
)

// runReport is the JSON document written by -report: everything needed
// to replot or audit a run without re-running it.
type runReport struct {
	RunID       string                  `json:"run_id"`
	StartedAt   time.Time               `json:"started_at"`
	FinishedAt  time.Time               `json:"finished_at"`
	Environment environmentInfo         `json:"environment"`
	Optimal     optimize.Result         `json:"optimal"`
	IODepthKnee kneeInfo                `json:"iodepth_knee"`
	Latency     stats.Summary           `json:"latency"`
	History     []optimize.HistoryEntry `json:"history"`
}

type environmentInfo struct {
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	NumCPU    int    `json:"num_cpu"`
}

// kneeInfo is the point of diminishing returns on the iodepth curve at
// the optimal numjobs. Informational: the stopping rule never uses it.
type kneeInfo struct {
	NumJobs int     `json:"numjobs"`
	IODepth int     `json:"iodepth"`
	IOPS    float64 `json:"iops"`
}

func newEnvironmentInfo() environmentInfo {
	return environmentInfo{
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
	}
}

func writeReport(path string, r *runReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
