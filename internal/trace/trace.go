// Package trace tags scheduled job runs with a run ID and keeps per-job run
// metrics.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type contextKey string

// RunIDKey is the context key for the run ID.
const RunIDKey contextKey = "run_id"

// GenerateRunID creates a unique ID for one job run.
func GenerateRunID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("run_%d", time.Now().UnixNano())
	}
	return "run_" + hex.EncodeToString(bytes)
}

// WithRunID returns ctx carrying id.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

// RunID extracts the run ID from ctx.
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}

// Metrics is a point-in-time copy of one job's counters.
type Metrics struct {
	TotalRuns    int64
	FailedRuns   int64
	LastDuration time.Duration
	LastRunAt    time.Time
}

type counters struct {
	total    atomic.Int64
	failed   atomic.Int64
	lastNs   atomic.Int64
	lastUnix atomic.Int64
}

// Tracker records run outcomes per job name. The zero value is ready to use.
type Tracker struct {
	jobs sync.Map // name -> *counters
}

func (t *Tracker) counters(job string) *counters {
	c, _ := t.jobs.LoadOrStore(job, &counters{})
	return c.(*counters)
}

// Record stores the outcome of one run of job.
func (t *Tracker) Record(job string, started time.Time, d time.Duration, err error) {
	c := t.counters(job)
	c.total.Add(1)
	if err != nil {
		c.failed.Add(1)
	}
	c.lastNs.Store(int64(d))
	c.lastUnix.Store(started.UnixNano())
}

// Metrics returns the counters for job. Unknown jobs report zeros.
func (t *Tracker) Metrics(job string) Metrics {
	v, ok := t.jobs.Load(job)
	if !ok {
		return Metrics{}
	}
	c := v.(*counters)
	m := Metrics{
		TotalRuns:    c.total.Load(),
		FailedRuns:   c.failed.Load(),
		LastDuration: time.Duration(c.lastNs.Load()),
	}
	if ns := c.lastUnix.Load(); ns != 0 {
		m.LastRunAt = time.Unix(0, ns)
	}
	return m
}

// Default is the process-wide tracker used by the scheduler.
var Default = &Tracker{}
