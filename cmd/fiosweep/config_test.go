package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseArgs(t *testing.T, args ...string) (*cliConfig, *flag.FlagSet) {
	t.Helper()
	fs := flag.NewFlagSet("tune", flag.ContinueOnError)
	c := registerFlags(fs)
	require.NoError(t, fs.Parse(args))
	return c, fs
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fiosweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	c, fs := parseArgs(t, "-job", "disk.fio")

	cfg, err := c.load(fs)
	require.NoError(t, err)

	assert.Equal(t, "disk.fio", cfg.JobFile)
	assert.Equal(t, "fio", cfg.Executable)
	assert.Equal(t, 1.05, cfg.Sweep.Threshold)
	assert.Equal(t, 128, cfg.Sweep.MaxNumJobs)
	assert.Equal(t, 256, cfg.Sweep.MaxIODepth)
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, `
job_file: file.fio
executable: /usr/local/bin/fio
sweep:
  max_numjobs: 64
`)
	c, fs := parseArgs(t, "-config", path, "-job", "flag.fio", "-max-iodepth", "32")

	cfg, err := c.load(fs)
	require.NoError(t, err)

	assert.Equal(t, "flag.fio", cfg.JobFile)
	assert.Equal(t, "/usr/local/bin/fio", cfg.Executable)
	assert.Equal(t, 64, cfg.Sweep.MaxNumJobs)
	assert.Equal(t, 32, cfg.Sweep.MaxIODepth)
}

func TestLoadExplicitZeroTimeoutOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
job_file: file.fio
timeout_seconds: 300
`)
	c, fs := parseArgs(t, "-config", path, "-timeout-seconds", "0")

	cfg, err := c.load(fs)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.TimeoutSeconds)
}

func TestLoadEnvironmentSitsBetweenFileAndFlags(t *testing.T) {
	path := writeConfigFile(t, `
job_file: file.fio
executable: fio-3.36
`)
	t.Setenv("FIOSWEEP_FIO", "/opt/fio/bin/fio")

	t.Run("env overrides file", func(t *testing.T) {
		c, fs := parseArgs(t, "-config", path)
		cfg, err := c.load(fs)
		require.NoError(t, err)
		assert.Equal(t, "/opt/fio/bin/fio", cfg.Executable)
	})

	t.Run("flag overrides env", func(t *testing.T) {
		c, fs := parseArgs(t, "-config", path, "-fio", "fio-flag")
		cfg, err := c.load(fs)
		require.NoError(t, err)
		assert.Equal(t, "fio-flag", cfg.Executable)
	})
}

func TestLoadInfluxTokenFromEnvironment(t *testing.T) {
	path := writeConfigFile(t, `
job_file: file.fio
influx:
  url: http://localhost:8086
  org: perflab
  bucket: fiosweep
`)
	t.Setenv("FIOSWEEP_INFLUX_TOKEN", "s3cret")

	c, fs := parseArgs(t, "-config", path)
	cfg, err := c.load(fs)
	require.NoError(t, err)

	require.NotNil(t, cfg.Influx)
	assert.Equal(t, "s3cret", cfg.Influx.Token)
}

func TestLoadRejectsInvalidOverrides(t *testing.T) {
	c, fs := parseArgs(t, "-job", "disk.fio", "-threshold", "0.9")

	_, err := c.load(fs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "improvement_threshold")
}

func TestLoadMissingConfigFile(t *testing.T) {
	c, fs := parseArgs(t, "-config", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := c.load(fs)
	require.Error(t, err)
}
