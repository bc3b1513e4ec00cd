package shutdown

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/auracorp/aurastudio/job"
	"github.com/auracorp/aurastudio/model"
)

type fakeQueue struct {
	active    []*job.Job
	cancelled []string
	closed    bool
}

func (f *fakeQueue) Active() []*job.Job { return f.active }

func (f *fakeQueue) Cancel(jobID string) error {
	f.cancelled = append(f.cancelled, jobID)
	return nil
}

func (f *fakeQueue) Close() { f.closed = true }

type fakeProcesses struct {
	killed int
}

func (f *fakeProcesses) KillAll() int { return f.killed }

func TestShutdownCancelsEveryActiveJob(t *testing.T) {
	j1 := job.New("job-1", "corr-1", job.KindGeneration, model.Brief{}, model.PlanSpec{}, model.VoiceSpec{}, model.RenderSpec{})
	j2 := job.New("job-2", "corr-2", job.KindGeneration, model.Brief{}, model.PlanSpec{}, model.VoiceSpec{}, model.RenderSpec{})
	q := &fakeQueue{active: []*job.Job{j1, j2}}
	procs := &fakeProcesses{killed: 3}

	c := New(context.Background(), nil, q, procs)
	summary := c.Shutdown()

	require.Equal(t, 2, summary.CancelledJobs)
	require.ElementsMatch(t, []string{"job-1", "job-2"}, q.cancelled)
	require.Equal(t, 3, summary.KilledProcs)
	require.True(t, q.closed)
}

func TestShutdownCancelsRootContext(t *testing.T) {
	q := &fakeQueue{}
	procs := &fakeProcesses{}
	c := New(context.Background(), nil, q, procs)

	ctx := c.Context()
	require.NoError(t, ctx.Err())

	c.Shutdown()

	require.Error(t, ctx.Err())
}

func TestShutdownStopsHTTPServer(t *testing.T) {
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}

	q := &fakeQueue{}
	procs := &fakeProcesses{}
	c := New(context.Background(), server, q, procs)

	summary := c.Shutdown()
	require.True(t, summary.HTTPShutdownOK)
}

func TestShutdownHandlesNilServerQueueAndProcesses(t *testing.T) {
	c := New(context.Background(), nil, nil, nil)
	summary := c.Shutdown()
	require.Equal(t, 0, summary.CancelledJobs)
	require.Equal(t, 0, summary.KilledProcs)
	require.False(t, summary.HTTPShutdownOK)
}
