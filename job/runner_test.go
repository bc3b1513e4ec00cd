package job

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/auracorp/aurastudio/artifact"
	"github.com/auracorp/aurastudio/model"
	"github.com/auracorp/aurastudio/process"
	"github.com/auracorp/aurastudio/provider"
)

// fakeEncoder writes a script that stands in for the real encoder binary:
// it accepts arbitrary ffmpeg-style flags, emits one progress line on
// stderr, and writes a few bytes to whatever path was passed last.
func fakeEncoder(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-encoder.sh")
	script := "#!/bin/sh\nlast=\"\"\nfor a in \"$@\"; do last=\"$a\"; done\necho 'frame=1 out_time=00:00:01' 1>&2\ndd if=/dev/zero of=\"$last\" bs=1024 count=2 2>/dev/null\nexit 0\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func newTestRunner(t *testing.T) (*Runner, *artifact.Store) {
	t.Helper()
	encoderPath := fakeEncoder(t)
	sup := process.New()
	reg := provider.NewRegistry()
	require.NoError(t, provider.Bootstrap(reg, sup, encoderPath, t.TempDir()))
	store := artifact.New(t.TempDir())
	r := NewRunner(sup, reg, store, encoderPath, true, provider.HardwareInfo{})
	r.Clock = clock.NewMock()
	return r, store
}

func collectingSink() (EventSink, *[]Event) {
	var events []Event
	return EventSinkFunc(func(e Event) { events = append(events, e) }), &events
}

func TestRunnerGenerationJobSucceedsWithFallbackProviders(t *testing.T) {
	r, store := newTestRunner(t)
	sink, events := collectingSink()

	j := New("job-1", "corr-1", KindGeneration,
		model.Brief{Topic: "solar energy basics", AspectRatio: model.Aspect16x9},
		model.PlanSpec{TargetDurationSeconds: 30, Pacing: model.PacingNormal, Density: model.DensityNormal, Style: "documentary"},
		model.VoiceSpec{Voice: "default"},
		model.RenderSpec{SceneCut: false},
	)

	r.Run(context.Background(), j, sink)

	require.Equal(t, StateSucceeded, j.State())
	require.NotEmpty(t, j.Artifacts())

	var sawFinal bool
	for _, a := range store.Get(j.ID) {
		if a.Type == artifact.TypeFinalVideo {
			sawFinal = true
			require.Greater(t, a.SizeBytes, int64(0))
		}
	}
	require.True(t, sawFinal)

	var sawCompleted bool
	for _, e := range *events {
		if e.Type == EventJobCompleted {
			sawCompleted = true
		}
	}
	require.True(t, sawCompleted)
}

func TestRunnerCancelledQueuedJobNeverRuns(t *testing.T) {
	r, _ := newTestRunner(t)
	sink, _ := collectingSink()

	j := New("job-1", "corr-1", KindGeneration, model.Brief{Topic: "x y z"}, model.PlanSpec{TargetDurationSeconds: 30}, model.VoiceSpec{}, model.RenderSpec{})
	j.Cancel()
	r.Run(context.Background(), j, sink)

	require.Equal(t, StateCancelled, j.State())
}

func TestRunnerExportOnlyJob(t *testing.T) {
	r, store := newTestRunner(t)
	sink, events := collectingSink()

	dir := t.TempDir()
	input := filepath.Join(dir, "intermediate.mp4")
	require.NoError(t, os.WriteFile(input, []byte("fake video bytes"), 0o644))

	j := New("job-2", "corr-2", KindExport, model.Brief{}, model.PlanSpec{}, model.VoiceSpec{}, model.RenderSpec{})
	j.InputFile = input
	j.PresetName = "youtube-1080p"

	r.Run(context.Background(), j, sink)

	require.Equal(t, StateSucceeded, j.State())

	var sawFinal bool
	for _, a := range store.Get(j.ID) {
		if a.Type == artifact.TypeFinalVideo {
			sawFinal = true
		}
	}
	require.True(t, sawFinal)

	var sawCompleted bool
	for _, e := range *events {
		if e.Type == EventJobCompleted {
			sawCompleted = true
		}
	}
	require.True(t, sawCompleted)
}

func TestRunnerExportOnlyJobFailsOnBrokenEncoder(t *testing.T) {
	sup := process.New()
	reg := provider.NewRegistry()
	brokenEncoder := filepath.Join(t.TempDir(), "no-such-encoder")
	require.NoError(t, provider.Bootstrap(reg, sup, brokenEncoder, t.TempDir()))
	store := artifact.New(t.TempDir())
	r := NewRunner(sup, reg, store, brokenEncoder, true, provider.HardwareInfo{})
	r.Clock = clock.NewMock()

	sink, events := collectingSink()

	dir := t.TempDir()
	input := filepath.Join(dir, "intermediate.mp4")
	require.NoError(t, os.WriteFile(input, []byte("fake video bytes"), 0o644))

	j := New("job-3", "corr-3", KindExport, model.Brief{}, model.PlanSpec{}, model.VoiceSpec{}, model.RenderSpec{})
	j.InputFile = input
	j.PresetName = "youtube-1080p"

	r.Run(context.Background(), j, sink)

	// the configured encoder path does not exist, so the export subprocess
	// invocation fails at spawn time; this exercises the failure path and
	// failure-detail enrichment.
	require.Equal(t, StateFailed, j.State())
	require.NotNil(t, j.FailureDetails())

	var sawFailed bool
	for _, e := range *events {
		if e.Type == EventJobFailed {
			sawFailed = true
		}
	}
	require.True(t, sawFailed)
}
