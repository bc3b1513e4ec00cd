package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/auracorp/aurastudio/artifact"
	"github.com/auracorp/aurastudio/errors"
	"github.com/auracorp/aurastudio/job"
	"github.com/auracorp/aurastudio/model"
	"github.com/auracorp/aurastudio/provider"
	"github.com/auracorp/aurastudio/validate"
)

// fakeRunner lets queue tests control exactly how a job resolves without
// standing up real providers or subprocesses.
type fakeRunner struct {
	mu       sync.Mutex
	ran      []string
	behavior func(j *job.Job)
}

func (f *fakeRunner) Run(ctx context.Context, j *job.Job, sink job.EventSink) {
	f.mu.Lock()
	f.ran = append(f.ran, j.ID)
	f.mu.Unlock()

	if j.Cancelled() {
		return
	}
	if f.behavior != nil {
		f.behavior(j)
		return
	}
}

func (f *fakeRunner) AdmissionConflict() (provider.Capability, bool) { return "", false }

func newTestQueue(t *testing.T, r *fakeRunner, workerPoolSize, retentionBound int) *Queue {
	t.Helper()
	v := validate.New("", t.TempDir())
	store := artifact.New(t.TempDir())
	return New(context.Background(), r, v, store, workerPoolSize, retentionBound)
}

func validBrief() model.Brief {
	return model.Brief{Topic: "renewable energy basics", AspectRatio: model.Aspect16x9}
}

func validPlan() model.PlanSpec {
	return model.PlanSpec{TargetDurationSeconds: 30, Pacing: model.PacingNormal, Density: model.DensityNormal}
}

func waitForTerminal(t *testing.T, q *Queue, jobID string) job.State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		j, ok := q.Get(jobID)
		require.True(t, ok)
		if j.State().Terminal() {
			return j.State()
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return ""
}

func TestCreateRejectsInvalidBrief(t *testing.T) {
	r := &fakeRunner{}
	q := newTestQueue(t, r, 1, 50)

	_, err := q.Create(context.Background(), "", model.Brief{Topic: "x"}, validPlan(), model.VoiceSpec{}, model.RenderSpec{})
	require.Error(t, err)

	var ae admissionError
	require.ErrorAs(t, err, &ae)
	require.NotEmpty(t, ae.Issues())
}

func TestCreateRejectsAdmissionConflictBeforeRunning(t *testing.T) {
	r := &fakeRunner{}
	q := newTestQueue(t, r, 1, 50)

	q.runner = &conflictingRunner{fakeRunner: r, conflict: provider.TTS}

	_, err := q.Create(context.Background(), "", validBrief(), validPlan(), model.VoiceSpec{}, model.RenderSpec{})
	require.Error(t, err)

	var ae admissionError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, errors.EConfigConflict, ae.Code())
	require.Empty(t, r.ran)
}

type conflictingRunner struct {
	*fakeRunner
	conflict provider.Capability
}

func (c *conflictingRunner) AdmissionConflict() (provider.Capability, bool) {
	return c.conflict, true
}

func TestCreateAdmitsAndRunsJob(t *testing.T) {
	r := &fakeRunner{behavior: func(j *job.Job) {}}
	q := newTestQueue(t, r, 2, 50)

	j, err := q.Create(context.Background(), "corr-1", validBrief(), validPlan(), model.VoiceSpec{}, model.RenderSpec{})
	require.NoError(t, err)
	require.NotEmpty(t, j.ID)
	require.Equal(t, "corr-1", j.CorrelationID)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		ran := len(r.ran) > 0
		r.mu.Unlock()
		if ran {
			break
		}
		time.Sleep(time.Millisecond)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Contains(t, r.ran, j.ID)
}

func TestCancelQueuedJobGoesStraightToCancelled(t *testing.T) {
	// a single-worker queue with a blocking first job holds the second job
	// in the FIFO channel long enough to cancel it before it ever runs.
	block := make(chan struct{})
	r := &fakeRunner{behavior: func(j *job.Job) { <-block }}
	q := newTestQueue(t, r, 1, 50)
	defer close(block)

	blocker, err := q.Create(context.Background(), "corr-block", validBrief(), validPlan(), model.VoiceSpec{}, model.RenderSpec{})
	require.NoError(t, err)
	_ = blocker

	queued, err := q.Create(context.Background(), "corr-2", validBrief(), validPlan(), model.VoiceSpec{}, model.RenderSpec{})
	require.NoError(t, err)

	require.NoError(t, q.Cancel(queued.ID))
	require.Equal(t, job.StateCancelled, queued.State())
}

func TestRetryOnlyAllowsFailedJobs(t *testing.T) {
	r := &fakeRunner{behavior: func(j *job.Job) {}}
	q := newTestQueue(t, r, 2, 50)

	j, err := q.Create(context.Background(), "corr-1", validBrief(), validPlan(), model.VoiceSpec{}, model.RenderSpec{})
	require.NoError(t, err)

	_, err = q.Retry(j.ID)
	require.Error(t, err)
}

func TestRetryRejectsCancelledJob(t *testing.T) {
	r := &fakeRunner{behavior: func(j *job.Job) { j.Cancel() }}
	q := newTestQueue(t, r, 1, 50)

	j, err := q.Create(context.Background(), "corr-1", validBrief(), validPlan(), model.VoiceSpec{}, model.RenderSpec{})
	require.NoError(t, err)
	waitForTerminal(t, q, j.ID)
	require.Equal(t, job.StateCancelled, j.State())

	fresh, err := q.Retry(j.ID)
	require.Error(t, err)
	require.Nil(t, fresh)
}

func TestRetentionTrimsOldestTerminalJobsPerKind(t *testing.T) {
	// fakeRunner doesn't transition a job to Running (that's private to the
	// real job.Runner), so the only public way to reach a terminal state
	// here is Cancel(), which flips a still-Queued job straight to
	// Cancelled.
	r := &fakeRunner{behavior: func(j *job.Job) { j.Cancel() }}
	q := newTestQueue(t, r, 4, 2)

	var ids []string
	for i := 0; i < 5; i++ {
		j, err := q.Create(context.Background(), "", validBrief(), validPlan(), model.VoiceSpec{}, model.RenderSpec{})
		require.NoError(t, err)
		ids = append(ids, j.ID)
		waitForTerminal(t, q, j.ID)
	}

	present := 0
	for _, id := range ids {
		if _, ok := q.Get(id); ok {
			present++
		}
	}
	require.LessOrEqual(t, present, 2)

	// the most recently admitted job must still be present.
	_, ok := q.Get(ids[len(ids)-1])
	require.True(t, ok)
}

func TestActiveExcludesTerminalJobs(t *testing.T) {
	block := make(chan struct{})
	r := &fakeRunner{behavior: func(j *job.Job) { <-block }}
	q := newTestQueue(t, r, 1, 50)
	defer close(block)

	running, err := q.Create(context.Background(), "", validBrief(), validPlan(), model.VoiceSpec{}, model.RenderSpec{})
	require.NoError(t, err)

	// give the worker goroutine a moment to pick the job up and block on
	// the channel inside behavior; fakeRunner never transitions state to
	// Running (that's private to the real job.Runner), so the job is still
	// State Queued at this point — and Queued is non-terminal, which is
	// all Active() needs to include it.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		picked := len(r.ran) > 0
		r.mu.Unlock()
		if picked {
			break
		}
		time.Sleep(time.Millisecond)
	}

	active := q.Active()
	require.Len(t, active, 1)
	require.Equal(t, running.ID, active[0].ID)
}

func TestEventsReturnsPublishedHistoryInOrder(t *testing.T) {
	q := newTestQueue(t, nil, 1, 50)
	q.runner = &publishingFakeRunner{}

	j, err := q.Create(context.Background(), "", validBrief(), validPlan(), model.VoiceSpec{}, model.RenderSpec{})
	require.NoError(t, err)

	var events []job.Event
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		events = q.Events(j.ID)
		if len(events) >= 2 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	require.Len(t, events, 2)
	require.Equal(t, job.EventJobCompleted, events[len(events)-1].Type)
}

type publishingFakeRunner struct{}

func (p *publishingFakeRunner) Run(ctx context.Context, j *job.Job, sink job.EventSink) {
	sink.Publish(job.Event{JobID: j.ID, Type: job.EventJobStatus, Stage: j.Stage()})
	sink.Publish(job.Event{JobID: j.ID, Type: job.EventJobCompleted, Stage: job.StageComplete, Percent: 100})
}

func (p *publishingFakeRunner) AdmissionConflict() (provider.Capability, bool) { return "", false }
