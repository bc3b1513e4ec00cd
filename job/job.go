// Package job implements the job runner (C6): the per-job state machine,
// stage sequencing, retry-with-backoff, heartbeat, and failure enrichment.
// A Job is the unit the queue (package queue) schedules and the event
// stream (package eventstream) observes.
package job

import (
	"sync"
	"time"

	"github.com/auracorp/aurastudio/artifact"
	"github.com/auracorp/aurastudio/config"
	"github.com/auracorp/aurastudio/errors"
	"github.com/auracorp/aurastudio/model"
)

type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

type Stage string

const (
	StageScript         Stage = "script"
	StageNarration      Stage = "narration"
	StageVisuals        Stage = "visuals"
	StageTimelineRender Stage = "timeline-render"
	StageExport         Stage = "export"
	StageComplete       Stage = "complete"
)

// stageOrder defines the forward sequence a generation job advances
// through; an export-only job instead runs the single StageExport stage.
var stageOrder = []Stage{StageScript, StageNarration, StageVisuals, StageTimelineRender, StageComplete}

// Next returns the stage following s in the generation sequence, and false
// if s is terminal.
func (s Stage) Next() (Stage, bool) {
	for i, st := range stageOrder {
		if st == s && i+1 < len(stageOrder) {
			return stageOrder[i+1], true
		}
	}
	return "", false
}

// JobError is one recorded error entry against a job's history.
type JobError struct {
	Code        errors.Code `json:"code"`
	Message     string      `json:"message"`
	Remediation string      `json:"remediation"`
	Stage       Stage       `json:"stage"`
	OccurredAt  time.Time   `json:"occurredAt"`
}

// FailureDetails is the enriched terminal-failure record surfaced to
// callers via the API.
type FailureDetails struct {
	Stage            Stage       `json:"stage"`
	Code             errors.Code `json:"code"`
	Message          string      `json:"message"`
	SuggestedActions []string    `json:"suggestedActions"`
	FailedAt         time.Time   `json:"failedAt"`
}

// Kind distinguishes a full generation job from a standalone export job;
// both share the same state model, but only Export runs a single stage.
type Kind string

const (
	KindGeneration Kind = "generation"
	KindExport     Kind = "export"
)

// Job is a running or historical generation.
type Job struct {
	ID            string
	CorrelationID string
	Kind          Kind

	Brief      model.Brief
	Plan       model.PlanSpec
	Voice      model.VoiceSpec
	Render     model.RenderSpec
	PresetName string // export jobs only
	InputFile  string // export jobs only: path to an existing intermediate

	CreatedAt time.Time

	mu             sync.Mutex
	state          State
	stage          Stage
	percent        float64
	attempt        int
	startedAt      time.Time
	finishedAt     time.Time
	etaRemaining   time.Duration
	errs           []JobError
	failureDetails *FailureDetails
	artifacts      []artifact.Artifact
	log            []LogEvent

	cancel chan struct{}
	once   sync.Once
}

// LogEvent is one structured log line retained against a job's in-memory
// ring, surfaced for debugging via GET /jobs/{id}.
type LogEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// maxJobLogEvents bounds the in-memory ring of log lines kept per job.
const maxJobLogEvents = 200

// New constructs a freshly Queued job. cancel is closed by Cancel().
func New(id, correlationID string, kind Kind, brief model.Brief, plan model.PlanSpec, voice model.VoiceSpec, render model.RenderSpec) *Job {
	stage := StageScript
	if kind == KindExport {
		stage = StageExport
	}
	return &Job{
		ID:            id,
		CorrelationID: correlationID,
		Kind:          kind,
		Brief:         brief,
		Plan:          plan,
		Voice:         voice,
		Render:        render,
		CreatedAt:     config.Clock.GetTime(),
		state:         StateQueued,
		stage:         stage,
		cancel:        make(chan struct{}),
	}
}

// Attempt returns the current per-stage retry counter, incremented each
// time the runner retries a stage after a recoverable failure.
func (j *Job) Attempt() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.attempt
}

func (j *Job) incrementAttempt() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attempt++
}

// AppendLog records one structured log line against the job's bounded
// in-memory ring, dropping the oldest entry once full.
func (j *Job) AppendLog(message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.log = append(j.log, LogEvent{Timestamp: config.Clock.GetTime(), Message: message})
	if len(j.log) > maxJobLogEvents {
		j.log = j.log[len(j.log)-maxJobLogEvents:]
	}
}

func (j *Job) Log() []LogEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]LogEvent, len(j.log))
	copy(out, j.log)
	return out
}

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) Stage() Stage {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stage
}

func (j *Job) Percent() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.percent
}

// Cancelled reports whether Cancel() has been called on this job.
func (j *Job) Cancelled() bool {
	select {
	case <-j.cancel:
		return true
	default:
		return false
	}
}

// Done returns the channel closed by Cancel, for select-based cancellation
// checks inside long-running stage calls.
func (j *Job) Done() <-chan struct{} {
	return j.cancel
}

// Cancel flips the job's cancellation token. A queued job transitions
// straight to Cancelled; a running job is checked only at its next stage
// boundary and unwinds from there. Progress emissions do not check it, and
// the stage in progress runs to completion first.
func (j *Job) Cancel() {
	j.once.Do(func() { close(j.cancel) })

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == StateQueued {
		j.state = StateCancelled
		j.finishedAt = config.Clock.GetTime()
	}
}

// transitionRunning moves a Queued job to Running at its first stage.
func (j *Job) transitionRunning() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StateQueued {
		return
	}
	j.state = StateRunning
	j.startedAt = config.Clock.GetTime()
}

// advanceStage resets percent and moves to the next stage in sequence.
func (j *Job) advanceStage(next Stage) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stage = next
	j.percent = 0
}

// reportProgress sets percent within the current stage; monotonic
// non-decreasing within a state, per the data-model invariant.
func (j *Job) reportProgress(percent float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if percent > j.percent {
		j.percent = percent
	}
}

func (j *Job) recordError(e JobError) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errs = append(j.errs, e)
}

func (j *Job) addArtifact(a artifact.Artifact) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.artifacts = append(j.artifacts, a)
}

func (j *Job) Artifacts() []artifact.Artifact {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]artifact.Artifact, len(j.artifacts))
	copy(out, j.artifacts)
	return out
}

func (j *Job) Errors() []JobError {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]JobError, len(j.errs))
	copy(out, j.errs)
	return out
}

func (j *Job) FailureDetails() *FailureDetails {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.failureDetails
}

func (j *Job) succeed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = StateSucceeded
	j.stage = StageComplete
	j.percent = 100
	j.finishedAt = config.Clock.GetTime()
}

func (j *Job) fail(fd FailureDetails) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = StateFailed
	j.failureDetails = &fd
	j.finishedAt = config.Clock.GetTime()
}

func (j *Job) cancelFromRunning() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return
	}
	j.state = StateCancelled
	j.finishedAt = config.Clock.GetTime()
}

func (j *Job) StartedAt() time.Time  { j.mu.Lock(); defer j.mu.Unlock(); return j.startedAt }
func (j *Job) FinishedAt() time.Time { j.mu.Lock(); defer j.mu.Unlock(); return j.finishedAt }
