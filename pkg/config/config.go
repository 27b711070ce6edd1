// Package config loads the YAML run configuration and fills in the
// defaults the tuner was designed around.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for one tuning run.
type Config struct {
	// JobFile is the fio job description, executed unchanged at every
	// point of the sweep. It should reference ${numjobs} and ${iodepth}.
	JobFile string `yaml:"job_file"`
	// ClientFile optionally lists fio --server hosts, one per line.
	// Empty means a local run.
	ClientFile string `yaml:"client_file,omitempty"`
	// Executable is the fio binary name or path.
	Executable string `yaml:"executable"`
	// TimeoutSeconds caps one invocation. Zero means no limit.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`

	Sweep  Sweep   `yaml:"sweep"`
	Report string  `yaml:"report,omitempty"`
	Influx *Influx `yaml:"influx,omitempty"`
}

// Sweep tunes the stopping rule and the search bounds.
type Sweep struct {
	Threshold      float64 `yaml:"improvement_threshold"`
	MinNumJobsRuns int     `yaml:"min_numjobs_runs"`
	MinIODepthRuns int     `yaml:"min_iodepth_runs"`
	MaxNumJobs     int     `yaml:"max_numjobs"`
	MaxIODepth     int     `yaml:"max_iodepth"`
}

// Influx configures the optional per-sample metrics sink.
type Influx struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// Default returns the configuration the tool runs with before any file
// or flag overrides.
func Default() *Config {
	return &Config{
		JobFile:    "fio.job",
		Executable: "fio",
		Sweep: Sweep{
			Threshold:      1.05,
			MinNumJobsRuns: 4,
			MinIODepthRuns: 4,
			MaxNumJobs:     128,
			MaxIODepth:     256,
		},
	}
}

// Load reads a YAML configuration and fills defaults for anything the
// file leaves unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.JobFile == "" {
		c.JobFile = d.JobFile
	}
	if c.Executable == "" {
		c.Executable = d.Executable
	}
	if c.Sweep.Threshold == 0 {
		c.Sweep.Threshold = d.Sweep.Threshold
	}
	if c.Sweep.MinNumJobsRuns == 0 {
		c.Sweep.MinNumJobsRuns = d.Sweep.MinNumJobsRuns
	}
	if c.Sweep.MinIODepthRuns == 0 {
		c.Sweep.MinIODepthRuns = d.Sweep.MinIODepthRuns
	}
	if c.Sweep.MaxNumJobs == 0 {
		c.Sweep.MaxNumJobs = d.Sweep.MaxNumJobs
	}
	if c.Sweep.MaxIODepth == 0 {
		c.Sweep.MaxIODepth = d.Sweep.MaxIODepth
	}
}

// Validate reports the first nonsensical setting. Called after flag
// overrides merge so it sees the effective configuration.
func (c *Config) Validate() error {
	if c.JobFile == "" {
		return fmt.Errorf("config: job_file is required")
	}
	if c.Executable == "" {
		return fmt.Errorf("config: executable is required")
	}
	if c.Sweep.Threshold <= 1 {
		return fmt.Errorf("config: improvement_threshold must be > 1, got %v", c.Sweep.Threshold)
	}
	if c.Sweep.MinNumJobsRuns < 1 || c.Sweep.MinIODepthRuns < 1 {
		return fmt.Errorf("config: minimum run counts must be >= 1")
	}
	if c.Sweep.MaxNumJobs < 1 || c.Sweep.MaxIODepth < 1 {
		return fmt.Errorf("config: sweep ceilings must be >= 1")
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("config: timeout_seconds cannot be negative")
	}
	if c.Influx != nil && c.Influx.URL == "" {
		return fmt.Errorf("config: influx.url is required when influx is configured")
	}
	return nil
}

// Timeout converts the configured invocation cap to a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
