// Package queue implements the job queue and supervisor (C7): a bounded
// worker pool over a FIFO channel of admitted jobs, an immutable job-id
// index for reads, and per-type retention of terminal jobs. The worker
// pool is a buffered channel of work items drained by a fixed pool of
// goroutines; unlike a one-shot batch, the work channel stays open while
// jobs keep arriving and is closed only by Close at shutdown.
package queue

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/auracorp/aurastudio/artifact"
	"github.com/auracorp/aurastudio/cache"
	"github.com/auracorp/aurastudio/config"
	"github.com/auracorp/aurastudio/errors"
	"github.com/auracorp/aurastudio/job"
	"github.com/auracorp/aurastudio/log"
	"github.com/auracorp/aurastudio/model"
	"github.com/auracorp/aurastudio/provider"
	"github.com/auracorp/aurastudio/validate"
)

// Runner is the subset of *job.Runner the queue depends on, so tests can
// substitute a fake without standing up real providers/subprocesses.
type Runner interface {
	Run(ctx context.Context, j *job.Job, sink job.EventSink)
	AdmissionConflict() (provider.Capability, bool)
}

// Queue is the bounded concurrent job executor. It owns the immutable
// job-id index, the FIFO admission channel, and per-type retention of
// terminal jobs.
type Queue struct {
	runner    Runner
	validator *validate.Validator
	store     *artifact.Store

	index *cache.Cache[*job.Job]

	work chan *job.Job

	// rootCtx is cancelled by the shutdown coordinator; every running
	// job's context derives from it, not from the HTTP request that
	// admitted it, so a job outlives the request and only stops on
	// explicit Cancel or process shutdown.
	rootCtx context.Context

	eventsMu sync.Mutex
	events   map[string][]job.Event // jobID -> ordered event history, for late subscribers

	retentionMu sync.Mutex
	retention   map[job.Kind][]string // ordered job ids, oldest first, per kind

	retentionBound int
	workerPoolSize int

	wg sync.WaitGroup
}

// New constructs a Queue with workerPoolSize workers (runtime.NumCPU()
// bounded by 4 if workerPoolSize <= 0, per spec default) and starts the
// worker pool immediately. rootCtx should be the process's shutdown-aware
// root context (see package shutdown); cancelling it causes in-flight
// job contexts to be cancelled too, and the queue's workers to drain and
// exit once the work channel is closed by Close.
func New(rootCtx context.Context, runner Runner, validator *validate.Validator, store *artifact.Store, workerPoolSize, retentionBound int) *Queue {
	if workerPoolSize <= 0 {
		workerPoolSize = config.DefaultWorkerPoolSize
		if n := runtime.NumCPU(); n < workerPoolSize {
			workerPoolSize = n
		}
		if workerPoolSize < 1 {
			workerPoolSize = 1
		}
	}
	if retentionBound <= 0 {
		retentionBound = config.DefaultRetentionBound
	}

	q := &Queue{
		runner:         runner,
		validator:      validator,
		store:          store,
		index:          cache.New[*job.Job](),
		work:           make(chan *job.Job, 256),
		rootCtx:        rootCtx,
		events:         map[string][]job.Event{},
		retention:      map[job.Kind][]string{},
		retentionBound: retentionBound,
		workerPoolSize: workerPoolSize,
	}
	q.start()
	return q
}

func (q *Queue) start() {
	for i := 0; i < q.workerPoolSize; i++ {
		q.wg.Add(1)
		go q.workerRoutine()
	}
}

func (q *Queue) workerRoutine() {
	defer q.wg.Done()
	for j := range q.work {
		q.runJob(j)
	}
}

func (q *Queue) runJob(j *job.Job) {
	ctx := log.WithValues(q.rootCtx, "correlationId", j.CorrelationID, "jobId", j.ID)
	sink := job.EventSinkFunc(func(e job.Event) { q.recordEvent(j.ID, e) })
	q.runner.Run(ctx, j, sink)
	q.retain(j)
}

func (q *Queue) recordEvent(jobID string, e job.Event) {
	q.eventsMu.Lock()
	defer q.eventsMu.Unlock()
	q.events[jobID] = append(q.events[jobID], e)
}

// Events returns jobID's event history so far, in emission order.
func (q *Queue) Events(jobID string) []job.Event {
	q.eventsMu.Lock()
	defer q.eventsMu.Unlock()
	out := make([]job.Event, len(q.events[jobID]))
	copy(out, q.events[jobID])
	return out
}

// Create validates and admits a new generation job, returning a structured
// error if admission validation fails. The job is appended to the FIFO
// work channel before Create returns; it may not start running
// immediately if the worker pool is saturated.
func (q *Queue) Create(ctx context.Context, correlationID string, brief model.Brief, plan model.PlanSpec, voice model.VoiceSpec, render model.RenderSpec) (*job.Job, error) {
	if ok, issues := q.validator.Check(ctx, brief, plan); !ok {
		return nil, admissionError{issues: issues}
	}
	if cap, conflict := q.runner.AdmissionConflict(); conflict {
		return nil, admissionError{
			issues: []string{fmt.Sprintf("no %s provider is available for the requested tier with offline-only mode enabled", cap)},
			code:   errors.EConfigConflict,
		}
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	j := job.New(uuid.NewString(), correlationID, job.KindGeneration, brief, plan, voice, render)
	return j, q.admit(j)
}

// CreateExport admits a standalone export job against an existing
// intermediate file. Export jobs track the same state model as generation
// jobs but with a single Export stage (§4.7.1); they run through the same
// worker pool and retention bookkeeping.
func (q *Queue) CreateExport(ctx context.Context, correlationID, inputFile, presetName string) (*job.Job, error) {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	j := job.New(uuid.NewString(), correlationID, job.KindExport, model.Brief{}, model.PlanSpec{}, model.VoiceSpec{}, model.RenderSpec{})
	j.InputFile = inputFile
	j.PresetName = presetName
	return j, q.admit(j)
}

func (q *Queue) admit(j *job.Job) error {
	q.index.Store(j.ID, j)
	select {
	case q.work <- j:
		return nil
	default:
		// work channel is a large buffer sized well beyond the worker
		// pool's throughput; a full channel means the operator has let
		// an unbounded number of jobs pile up, which is itself an
		// admission-time condition worth rejecting rather than
		// blocking the caller indefinitely.
		q.index.Remove(j.ID)
		return admissionError{issues: []string{"queue is saturated, try again shortly"}}
	}
}

// Get returns jobID's job and whether it was found.
func (q *Queue) Get(jobID string) (*job.Job, bool) {
	return q.index.Get(jobID)
}

// List returns every job the index currently holds, a point-in-time copy
// safe to range over without holding any lock.
func (q *Queue) List() []*job.Job {
	items := q.index.Items()
	out := make([]*job.Job, 0, len(items))
	for _, j := range items {
		out = append(out, j)
	}
	return out
}

// Active returns every job whose state is Queued or Running.
func (q *Queue) Active() []*job.Job {
	var out []*job.Job
	for _, j := range q.List() {
		if !j.State().Terminal() {
			out = append(out, j)
		}
	}
	return out
}

// Cancel flips jobID's cancellation token. A queued job transitions
// straight to Cancelled; a running job observes cancellation at its next
// stage boundary. The stage in progress, and any subprocess it started,
// are not interrupted.
func (q *Queue) Cancel(jobID string) error {
	j, ok := q.index.Get(jobID)
	if !ok {
		return errNotFound
	}
	j.Cancel()
	return nil
}

// Retry creates a new job copying jobID's inputs but with a fresh id and
// correlation id; the original job remains archived under its own id. Only
// a terminal-Failed job may be retried.
func (q *Queue) Retry(jobID string) (*job.Job, error) {
	orig, ok := q.index.Get(jobID)
	if !ok {
		return nil, errNotFound
	}
	if orig.State() != job.StateFailed {
		return nil, fmt.Errorf("%w: only a failed job may be retried", errConflict)
	}

	correlationID := uuid.NewString()
	var fresh *job.Job
	if orig.Kind == job.KindExport {
		fresh = job.New(uuid.NewString(), correlationID, job.KindExport, model.Brief{}, model.PlanSpec{}, model.VoiceSpec{}, model.RenderSpec{})
		fresh.InputFile = orig.InputFile
		fresh.PresetName = orig.PresetName
	} else {
		fresh = job.New(uuid.NewString(), correlationID, job.KindGeneration, orig.Brief, orig.Plan, orig.Voice, orig.Render)
	}
	return fresh, q.admit(fresh)
}

// FailureDetails returns jobID's terminal failure record, if any.
func (q *Queue) FailureDetails(jobID string) (*job.FailureDetails, error) {
	j, ok := q.index.Get(jobID)
	if !ok {
		return nil, errNotFound
	}
	return j.FailureDetails(), nil
}

// Progress returns jobID's current stage and percent-within-stage.
func (q *Queue) Progress(jobID string) (job.Stage, float64, error) {
	j, ok := q.index.Get(jobID)
	if !ok {
		return "", 0, errNotFound
	}
	return j.Stage(), j.Percent(), nil
}

// RecentArtifacts returns the last n completed jobs' artifacts, newest
// first, regardless of job type.
func (q *Queue) RecentArtifacts(n int) []artifact.RecentEntry {
	return q.store.RecentCompleted(n)
}

// retain records jobID into its kind's retention list once it reaches a
// terminal state, trimming the oldest entries out of both the retention
// list and the job index once the bound is exceeded, the same
// expire-stale-entries-under-a-lock pattern used for any bounded map.
func (q *Queue) retain(j *job.Job) {
	if !j.State().Terminal() {
		return
	}

	q.retentionMu.Lock()
	defer q.retentionMu.Unlock()

	ids := append(q.retention[j.Kind], j.ID)
	for len(ids) > q.retentionBound {
		oldest := ids[0]
		ids = ids[1:]
		q.index.Remove(oldest)
		q.eventsMu.Lock()
		delete(q.events, oldest)
		q.eventsMu.Unlock()
	}
	q.retention[j.Kind] = ids
}

// Close stops admitting new work and waits for in-flight workers to drain
// their current job before returning. Callers should cancel rootCtx first
// so in-flight jobs observe cancellation promptly rather than running to
// completion.
func (q *Queue) Close() {
	close(q.work)
	q.wg.Wait()
}

type admissionError struct {
	issues []string
	code   errors.Code
}

func (e admissionError) Error() string {
	return fmt.Sprintf("admission rejected: %v", e.issues)
}

func (e admissionError) Issues() []string { return e.issues }

func (e admissionError) Code() errors.Code {
	if e.code == "" {
		return errors.EValidation
	}
	return e.code
}

type sentinelError string

func (e sentinelError) Error() string { return string(e) }

const (
	errNotFound sentinelError = "job not found"
	errConflict sentinelError = "job not in a retryable state"
)
