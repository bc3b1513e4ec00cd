package eventstream

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/auracorp/aurastudio/job"
	"github.com/auracorp/aurastudio/model"
)

func TestDiffEmitsNothingWhenUnchanged(t *testing.T) {
	s := Snapshot{State: job.StateRunning, Stage: job.StageScript, Percent: 10}
	events := diff("job-1", s, s)
	require.Empty(t, events)
}

func TestDiffEmitsStepProgressOnPercentChangeAlone(t *testing.T) {
	prev := Snapshot{State: job.StateRunning, Stage: job.StageScript, Percent: 10}
	curr := Snapshot{State: job.StateRunning, Stage: job.StageScript, Percent: 40}
	events := diff("job-1", prev, curr)
	require.Len(t, events, 1)
	require.Equal(t, job.EventStepProgress, events[0].Type)
	require.Equal(t, 40.0, events[0].Percent)
}

func TestDiffEmitsStepStatusOnStageChange(t *testing.T) {
	prev := Snapshot{State: job.StateRunning, Stage: job.StageScript, Percent: 100}
	curr := Snapshot{State: job.StateRunning, Stage: job.StageNarration, Percent: 0}
	events := diff("job-1", prev, curr)
	require.Len(t, events, 2)
	require.Equal(t, job.EventStepStatus, events[0].Type)
	require.Equal(t, job.StageNarration, events[0].Stage)
}

func TestDiffEmitsJobStatusOnStateChange(t *testing.T) {
	prev := Snapshot{State: job.StateQueued, Stage: job.StageScript}
	curr := Snapshot{State: job.StateRunning, Stage: job.StageScript}
	events := diff("job-1", prev, curr)
	require.Len(t, events, 1)
	require.Equal(t, job.EventJobStatus, events[0].Type)
}

func TestDiffEmitsJobCompletedOnTerminalSuccess(t *testing.T) {
	prev := Snapshot{State: job.StateRunning, Stage: job.StageTimelineRender, Percent: 90}
	curr := Snapshot{State: job.StateSucceeded, Stage: job.StageComplete, Percent: 100}
	events := diff("job-1", prev, curr)
	require.Len(t, events, 1)
	require.Equal(t, job.EventJobCompleted, events[0].Type)
}

func TestDiffEmitsJobFailedOnTerminalFailure(t *testing.T) {
	prev := Snapshot{State: job.StateRunning, Stage: job.StageNarration}
	curr := Snapshot{State: job.StateFailed, Stage: job.StageNarration}
	events := diff("job-1", prev, curr)
	require.Len(t, events, 1)
	require.Equal(t, job.EventJobFailed, events[0].Type)
}

type fakeReader struct {
	j *job.Job
}

func (f *fakeReader) Get(jobID string) (*job.Job, bool) {
	if f.j == nil || f.j.ID != jobID {
		return nil, false
	}
	return f.j, true
}

func TestStreamClosesAfterTerminalEvent(t *testing.T) {
	j := job.New("job-1", "corr-1", job.KindGeneration, model.Brief{}, model.PlanSpec{}, model.VoiceSpec{}, model.RenderSpec{})
	j.Cancel() // queued job cancels straight to a terminal state
	reader := &fakeReader{j: j}

	mockClock := clock.NewMock()
	rec := httptest.NewRecorder()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Stream(ctx, rec, mockClock, reader, "job-1") }()

	// let the stream goroutine reach its ticker registration before
	// advancing the mock clock past it.
	time.Sleep(20 * time.Millisecond)

	// the job is already terminal before the first poll tick, so a single
	// tick is enough to observe and close on it.
	mockClock.Add(time.Second)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after terminal event")
	}

	require.Contains(t, rec.Body.String(), "event: job-completed")
}

func TestStreamReturnsErrorForUnknownJob(t *testing.T) {
	reader := &fakeReader{}
	rec := httptest.NewRecorder()
	err := Stream(context.Background(), rec, clock.NewMock(), reader, "missing")
	require.Error(t, err)
}
