// Package eventstream implements the job event stream (C8): a long-lived,
// server-initiated, unidirectional stream over HTTP keyed per job. Rather
// than subscribing to a push bus inside the runner, the stream polls the
// job record at 1 Hz and diff-emits only the fields that changed since the
// last poll — avoiding any coupling between the job package and the
// transport layer. The header setup and http.Flusher write loop are
// grounded on the SSE hub in the neurobridge-backend example
// (internal/sse/hub.go), adapted from a broadcast-channel model to a
// poll-and-diff one since a job's state lives in the job.Job record, not
// in a message queue.
package eventstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/auracorp/aurastudio/config"
	"github.com/auracorp/aurastudio/job"
)

// JobReader is the subset of *queue.Queue the stream depends on.
type JobReader interface {
	Get(jobID string) (*job.Job, bool)
}

// Snapshot is the subset of a job's mutable state the stream diffs between
// polls.
type Snapshot struct {
	State   job.State
	Stage   job.Stage
	Percent float64
}

func snapshot(j *job.Job) Snapshot {
	return Snapshot{State: j.State(), Stage: j.Stage(), Percent: j.Percent()}
}

// diff compares two snapshots and returns the events a poll tick should
// emit: nothing if nothing changed, one event per changed dimension
// otherwise (job-status for a state change, step-status for a stage
// change, step-progress for a percent change). A terminal state change
// emits only the terminal event. Pure and independent of HTTP so it is
// unit tested directly.
func diff(jobID string, prev, curr Snapshot) []job.Event {
	var events []job.Event
	now := config.Clock.GetTime()

	if curr.State != prev.State && curr.State.Terminal() {
		// the wire taxonomy only has job-completed and job-failed terminal
		// events; a cancelled job closes the stream as completed rather
		// than failed, since cancellation isn't an error.
		typ := job.EventJobCompleted
		if curr.State == job.StateFailed {
			typ = job.EventJobFailed
		}
		events = append(events, job.Event{JobID: jobID, Type: typ, Stage: curr.Stage, Percent: curr.Percent, Timestamp: now})
		return events
	}
	if curr.State != prev.State {
		events = append(events, job.Event{JobID: jobID, Type: job.EventJobStatus, Stage: curr.Stage, Percent: curr.Percent, Timestamp: now})
	}
	if curr.Stage != prev.Stage {
		events = append(events, job.Event{JobID: jobID, Type: job.EventStepStatus, Stage: curr.Stage, Percent: curr.Percent, Timestamp: now})
	}
	if curr.Percent != prev.Percent {
		events = append(events, job.Event{JobID: jobID, Type: job.EventStepProgress, Stage: curr.Stage, Percent: curr.Percent, Timestamp: now})
	}
	return events
}

// Stream writes jobID's event stream to w until the job reaches a terminal
// state, the request context is cancelled, or reader no longer has jobID.
// It writes one SSE record per changed field, polling at 1 Hz, then closes
// cleanly after the terminal event.
func Stream(ctx context.Context, w http.ResponseWriter, clk clock.Clock, reader JobReader, jobID string) error {
	j, ok := reader.Get(jobID)
	if !ok {
		return fmt.Errorf("job %s not found", jobID)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return fmt.Errorf("response writer does not support flushing")
	}

	prev := Snapshot{}
	ticker := clk.Ticker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			curr := snapshot(j)
			for _, e := range diff(jobID, prev, curr) {
				if err := writeEvent(w, e); err != nil {
					return err
				}
				flusher.Flush()
				if e.Type == job.EventJobCompleted || e.Type == job.EventJobFailed {
					return nil
				}
			}
			prev = curr
		}
	}
}

func writeEvent(w http.ResponseWriter, e job.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
	return err
}
