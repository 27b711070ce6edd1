// Command fiosweep finds the numjobs/iodepth combination that maximizes
// IOPS for a fio job file. It doubles iodepth inside a doubling sweep
// over numjobs and stops each sweep once throughput gains fall below the
// configured threshold. The best point measured wins.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/perflab/fiosweep/pkg/analyze"
	"github.com/perflab/fiosweep/pkg/config"
	"github.com/perflab/fiosweep/pkg/fio"
	"github.com/perflab/fiosweep/pkg/influxwriter"
	"github.com/perflab/fiosweep/pkg/optimize"
	"github.com/perflab/fiosweep/pkg/stats"
)

func main() {
	// Dispatch subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "tune":
			runTuneCmd(os.Args[2:]) // Explicit 'tune' subcommand
			return
		case "parse":
			runParseCmd(os.Args[2:])
			return
		}
	}

	// Default behavior (flags -> tune)
	runTuneCmd(os.Args[1:])
}

// runTuneCmd handles "fiosweep [tune] [flags]".
func runTuneCmd(args []string) {
	loadDotEnv()

	fs := flag.NewFlagSet("tune", flag.ExitOnError)
	flags := registerFlags(fs)
	fs.Parse(args)

	setupLogging(flags.Verbose)

	cfg, err := flags.load(fs)
	if err != nil {
		slog.Error("configuration rejected", "error", err)
		os.Exit(1)
	}

	runTune(cfg)
}

func runTune(cfg *config.Config) {
	// fio children run in their own process group, so an interrupt has to
	// travel through the context to reach them.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	slog.Info("starting fio concurrency tuning",
		"run_id", runID, "job_file", cfg.JobFile, "fio", cfg.Executable)

	clients := loadClients(cfg.ClientFile)
	if len(clients) > 0 {
		slog.Info("client/server mode enabled", "clients", len(clients))
	} else {
		slog.Info("no client file configured, running in local mode")
	}

	client := &fio.Client{
		Executable: cfg.Executable,
		JobFile:    cfg.JobFile,
		ClientFile: cfg.ClientFile,
		Clients:    clients,
		Timeout:    cfg.Timeout(),
	}
	if err := client.Preflight(); err != nil {
		slog.Error("preflight failed", "error", err)
		os.Exit(1)
	}

	recorder := stats.NewLatencyRecorder()
	onSample := func(pt optimize.Point, s fio.Sample) {
		recorder.RecordMs(s.CLatMs)
	}
	if cfg.Influx != nil {
		w := influxwriter.New(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket, runID)
		defer w.Close()
		slog.Info("streaming samples to influxdb", "url", cfg.Influx.URL, "bucket", cfg.Influx.Bucket)
		onSample = func(pt optimize.Point, s fio.Sample) {
			recorder.RecordMs(s.CLatMs)
			w.WriteSample(ctx, pt.NumJobs, pt.IODepth, s.IOPS, s.CLatMs)
		}
	}

	opt := optimize.New(client, optimize.Config{
		Threshold:      cfg.Sweep.Threshold,
		MinNumJobsRuns: cfg.Sweep.MinNumJobsRuns,
		MinIODepthRuns: cfg.Sweep.MinIODepthRuns,
		MaxNumJobs:     cfg.Sweep.MaxNumJobs,
		MaxIODepth:     cfg.Sweep.MaxIODepth,
		OnSample:       onSample,
	})

	started := time.Now().UTC()
	res, err := opt.Optimize(ctx)
	if err != nil {
		slog.Error("optimization aborted", "error", err)
		os.Exit(1)
	}

	knee := analyze.FindKnee(opt.DepthCurve(res.Point.NumJobs))
	slog.Info("iodepth knee at optimal numjobs",
		"numjobs", res.Point.NumJobs, "iodepth", int(knee.X), "iops", knee.Y)

	summary := recorder.Summary()
	slog.Info("p99 completion latency across all runs",
		"samples", summary.Count, "p50", summary.P50, "p99", summary.P99, "max", summary.Max)

	if cfg.Report != "" {
		rep := &runReport{
			RunID:       runID,
			StartedAt:   started,
			FinishedAt:  time.Now().UTC(),
			Environment: newEnvironmentInfo(),
			Optimal:     res,
			IODepthKnee: kneeInfo{NumJobs: res.Point.NumJobs, IODepth: int(knee.X), IOPS: knee.Y},
			Latency:     summary,
			History:     opt.GetHistory(),
		}
		if err := writeReport(cfg.Report, rep); err != nil {
			slog.Error("report not written", "error", err)
		} else {
			slog.Info("report written", "path", cfg.Report)
		}
	}

	printSummary(res)
}

// runParseCmd handles "fiosweep parse <report.json>": it pushes a saved
// fio report through the same extraction as a live run, for checking job
// files and client aggregation offline.
func runParseCmd(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Enable debug logging")
	fs.Parse(args)

	setupLogging(*verbose)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: fiosweep parse <fio-report.json>")
		os.Exit(1)
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		slog.Error("report unreadable", "error", err)
		os.Exit(1)
	}
	report, err := fio.Decode(data)
	if err != nil {
		slog.Error("report undecodable", "error", err)
		os.Exit(1)
	}
	sample, err := fio.Normalize(report)
	if err != nil {
		slog.Error("report rejected", "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		slog.Error("sample not marshalable", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// loadClients reads the fio server list. A missing file downgrades to a
// local run; any other failure is fatal since a half-read client list
// would benchmark the wrong fleet.
func loadClients(path string) []string {
	if path == "" {
		return nil
	}
	clients, err := fio.ReadClientFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("client file missing, running locally", "path", path)
			return nil
		}
		slog.Error("client file unreadable", "path", path, "error", err)
		os.Exit(1)
	}
	return clients
}

// printSummary writes the fixed operator-facing result block to stdout.
func printSummary(res optimize.Result) {
	sep := strings.Repeat("=", 60)
	fmt.Printf("\n%s\n", sep)
	fmt.Println("FIO OPTIMIZATION COMPLETE")
	fmt.Println(sep)
	fmt.Printf("Optimal numjobs: %d\n", res.Point.NumJobs)
	fmt.Printf("Optimal iodepth: %d\n", res.Point.IODepth)
	fmt.Printf("Max Achieved IOPS: %.2f\n", res.IOPS)
	fmt.Println(sep)
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

// loadDotEnv seeds FIOSWEEP_* variables from an optional .env file before
// flags are registered.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env", "error", err)
	}
}
