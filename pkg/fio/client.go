package fio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// ErrEmptyOutput reports an invocation that exited cleanly but wrote
// nothing to stdout.
var ErrEmptyOutput = errors.New("fio: empty output")

// Client invokes fio for one configuration point at a time. The job file
// is executed unchanged across invocations; only the numjobs and iodepth
// environment variables change, which the job file picks up through
// ${numjobs} and ${iodepth} expansion. When Clients is non-empty the
// invocation runs in client/server mode and fio itself reads the host
// list from ClientFile.
type Client struct {
	Executable string
	JobFile    string
	ClientFile string
	Clients    []string
	Timeout    time.Duration
}

// Preflight verifies an invocation can work at all: the job file must
// exist and the executable must resolve on PATH. Called once before the
// first sweep so a bad setup fails without burning a benchmark run.
func (c *Client) Preflight() error {
	if _, err := os.Stat(c.JobFile); err != nil {
		return fmt.Errorf("job file: %w", err)
	}
	if _, err := exec.LookPath(c.Executable); err != nil {
		return fmt.Errorf("fio executable: %w", err)
	}
	return nil
}

// Run executes one benchmark at the given concurrency point and returns
// the decoded JSON report. Any failure mode surfaces as an error: start
// failure, timeout, non-zero exit (stderr captured into the message),
// empty output, or undecodable output.
func (c *Client) Run(ctx context.Context, numjobs, iodepth int) (*Report, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Executable, c.args()...)
	cmd.Env = append(os.Environ(),
		"numjobs="+strconv.Itoa(numjobs),
		"iodepth="+strconv.Itoa(iodepth),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// fio forks one worker process per job, so on cancellation the whole
	// process group has to go. An orphaned worker keeps hammering the
	// device and skews every measurement after it.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("fio: invocation exceeded %s: %w", c.Timeout, ctx.Err())
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fio: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("fio: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("fio: start: %w", err)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return nil, fmt.Errorf("%w (stderr: %s)", ErrEmptyOutput, strings.TrimSpace(stderr.String()))
	}
	return Decode(out)
}

func (c *Client) args() []string {
	args := []string{c.JobFile, "--output-format=json"}
	if len(c.Clients) > 0 {
		args = append(args, "--client="+c.ClientFile)
	}
	return args
}

// Decode isolates the authoritative document from raw fio output. In
// client/server mode fio concatenates one JSON object per client ahead of
// the final aggregate, and warning lines can precede the first brace, so
// the stream is decoded object by object and the last complete one wins.
func Decode(out []byte) (*Report, error) {
	if i := bytes.IndexByte(out, '{'); i > 0 {
		out = out[i:]
	}

	dec := json.NewDecoder(bytes.NewReader(out))
	var last *Report
	for {
		var r Report
		if err := dec.Decode(&r); err != nil {
			if last == nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
			}
			return last, nil
		}
		last = &r
	}
}
