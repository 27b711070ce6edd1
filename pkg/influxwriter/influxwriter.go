// Package influxwriter streams per-invocation samples to InfluxDB when a
// sink is configured.
package influxwriter

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// Writer pushes one measurement per successful fio invocation.
type Writer struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	runID    string
}

// New initializes a blocking write API against the given org and bucket.
func New(url, token, org, bucket, runID string) *Writer {
	client := influxdb2.NewClient(url, token)
	return &Writer{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		runID:    runID,
	}
}

// WriteSample records one measurement. The sink is an observer: failures
// are logged and never abort a sweep.
func (w *Writer) WriteSample(ctx context.Context, numjobs, iodepth int, iops, clatMs float64) {
	point := influxdb2.NewPointWithMeasurement("fiosweep_sample").
		AddTag("run_id", w.runID).
		AddTag("numjobs", strconv.Itoa(numjobs)).
		AddTag("iodepth", strconv.Itoa(iodepth)).
		AddField("iops", iops).
		AddField("clat_ms", clatMs).
		SetTime(time.Now().UTC())

	if err := w.writeAPI.WritePoint(ctx, point); err != nil {
		slog.Warn("influx write failed", "error", err)
	}
}

// Close shuts down the underlying client.
func (w *Writer) Close() {
	w.client.Close()
}
