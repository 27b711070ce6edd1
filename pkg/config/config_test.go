package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fiosweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `
job_file: jobs/randread.fio
client_file: clients.txt
executable: /usr/local/bin/fio
timeout_seconds: 300
sweep:
  improvement_threshold: 1.10
  min_numjobs_runs: 5
  min_iodepth_runs: 6
  max_numjobs: 64
  max_iodepth: 128
report: out/history.json
influx:
  url: http://localhost:8086
  token: secret
  org: perf
  bucket: fiosweep
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "jobs/randread.fio", cfg.JobFile)
		assert.Equal(t, "clients.txt", cfg.ClientFile)
		assert.Equal(t, "/usr/local/bin/fio", cfg.Executable)
		assert.Equal(t, 5*time.Minute, cfg.Timeout())
		assert.Equal(t, 1.10, cfg.Sweep.Threshold)
		assert.Equal(t, 5, cfg.Sweep.MinNumJobsRuns)
		assert.Equal(t, 6, cfg.Sweep.MinIODepthRuns)
		assert.Equal(t, 64, cfg.Sweep.MaxNumJobs)
		assert.Equal(t, 128, cfg.Sweep.MaxIODepth)
		assert.Equal(t, "out/history.json", cfg.Report)
		require.NotNil(t, cfg.Influx)
		assert.Equal(t, "perf", cfg.Influx.Org)
	})

	t.Run("defaults applied", func(t *testing.T) {
		path := writeConfig(t, `
job_file: my.fio
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "my.fio", cfg.JobFile)
		assert.Equal(t, "fio", cfg.Executable)
		assert.Equal(t, 1.05, cfg.Sweep.Threshold)
		assert.Equal(t, 4, cfg.Sweep.MinNumJobsRuns)
		assert.Equal(t, 4, cfg.Sweep.MinIODepthRuns)
		assert.Equal(t, 128, cfg.Sweep.MaxNumJobs)
		assert.Equal(t, 256, cfg.Sweep.MaxIODepth)
		assert.Zero(t, cfg.Timeout())
		assert.Nil(t, cfg.Influx)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := writeConfig(t, "job_file: [unclosed")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})

	t.Run("threshold must exceed one", func(t *testing.T) {
		cfg := Default()
		cfg.Sweep.Threshold = 1.0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "improvement_threshold")
	})

	t.Run("run minimums", func(t *testing.T) {
		cfg := Default()
		cfg.Sweep.MinIODepthRuns = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("ceilings", func(t *testing.T) {
		cfg := Default()
		cfg.Sweep.MaxNumJobs = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("job file required", func(t *testing.T) {
		cfg := Default()
		cfg.JobFile = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "job_file")
	})

	t.Run("negative timeout", func(t *testing.T) {
		cfg := Default()
		cfg.TimeoutSeconds = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("influx requires url", func(t *testing.T) {
		cfg := Default()
		cfg.Influx = &Influx{Org: "perf", Bucket: "fiosweep"}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "influx.url")
	})
}
