package main

import (
	"flag"
	"os"

	"github.com/perflab/fiosweep/pkg/config"
)

// cliConfig holds raw flag values before they merge over the loaded
// configuration.
type cliConfig struct {
	ConfigFile     string
	JobFile        string
	ClientFile     string
	Executable     string
	TimeoutSeconds int
	Threshold      float64
	MaxNumJobs     int
	MaxIODepth     int
	Report         string
	Verbose        bool
}

func registerFlags(fs *flag.FlagSet) *cliConfig {
	c := &cliConfig{}

	fs.StringVar(&c.ConfigFile, "config", envOr("FIOSWEEP_CONFIG", ""), "Path to YAML configuration file")
	fs.StringVar(&c.JobFile, "job", "", "Path to the fio job file")
	fs.StringVar(&c.ClientFile, "clients", "", "Path to a file listing fio server hosts, one per line")
	fs.StringVar(&c.Executable, "fio", "", "fio executable name or path")
	fs.IntVar(&c.TimeoutSeconds, "timeout-seconds", 0, "Per-invocation timeout in seconds (0 disables)")
	fs.Float64Var(&c.Threshold, "threshold", 0, "Relative improvement that counts as progress, e.g. 1.05")
	fs.IntVar(&c.MaxNumJobs, "max-numjobs", 0, "Hard ceiling for numjobs")
	fs.IntVar(&c.MaxIODepth, "max-iodepth", 0, "Hard ceiling for iodepth")
	fs.StringVar(&c.Report, "report", "", "Write run history and analysis to this JSON file")
	fs.BoolVar(&c.Verbose, "v", false, "Enable debug logging")

	return c
}

// load resolves the effective configuration. Precedence, lowest to
// highest: built-in defaults, config file, FIOSWEEP_* environment,
// explicit flags.
func (c *cliConfig) load(fs *flag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if c.ConfigFile != "" {
		loaded, err := config.Load(c.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnv(cfg)
	c.apply(fs, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apply overlays only the flags the user actually set. fs.Visit reports
// exactly those, so an explicit zero such as -timeout-seconds 0 still
// overrides a file value.
func (c *cliConfig) apply(fs *flag.FlagSet, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "job":
			cfg.JobFile = c.JobFile
		case "clients":
			cfg.ClientFile = c.ClientFile
		case "fio":
			cfg.Executable = c.Executable
		case "timeout-seconds":
			cfg.TimeoutSeconds = c.TimeoutSeconds
		case "threshold":
			cfg.Sweep.Threshold = c.Threshold
		case "max-numjobs":
			cfg.Sweep.MaxNumJobs = c.MaxNumJobs
		case "max-iodepth":
			cfg.Sweep.MaxIODepth = c.MaxIODepth
		case "report":
			cfg.Report = c.Report
		}
	})
}

// applyEnv overlays FIOSWEEP_* environment variables, typically seeded
// from a .env file. The influx token has its own variable: secrets do
// not belong in the YAML file.
func applyEnv(cfg *config.Config) {
	if v := os.Getenv("FIOSWEEP_JOB_FILE"); v != "" {
		cfg.JobFile = v
	}
	if v := os.Getenv("FIOSWEEP_CLIENT_FILE"); v != "" {
		cfg.ClientFile = v
	}
	if v := os.Getenv("FIOSWEEP_FIO"); v != "" {
		cfg.Executable = v
	}
	if v := os.Getenv("FIOSWEEP_REPORT"); v != "" {
		cfg.Report = v
	}
	if v := os.Getenv("FIOSWEEP_INFLUX_TOKEN"); v != "" && cfg.Influx != nil {
		cfg.Influx.Token = v
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
