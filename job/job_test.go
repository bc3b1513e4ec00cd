package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/auracorp/aurastudio/config"
	"github.com/auracorp/aurastudio/mokeypatching"
	"github.com/auracorp/aurastudio/model"
)

func TestStageNextSequence(t *testing.T) {
	next, ok := StageScript.Next()
	require.True(t, ok)
	require.Equal(t, StageNarration, next)

	next, ok = StageTimelineRender.Next()
	require.True(t, ok)
	require.Equal(t, StageComplete, next)

	_, ok = StageComplete.Next()
	require.False(t, ok)
}

func TestNewJobStartsQueuedAtScript(t *testing.T) {
	j := New("job-1", "corr-1", KindGeneration, model.Brief{}, model.PlanSpec{}, model.VoiceSpec{}, model.RenderSpec{})
	require.Equal(t, StateQueued, j.State())
	require.Equal(t, StageScript, j.Stage())
}

func TestNewJobCreatedAtUsesConfiguredClock(t *testing.T) {
	mokeypatching.MonkeypatchingMutex.Lock()
	defer mokeypatching.MonkeypatchingMutex.Unlock()

	old := config.Clock
	defer func() { config.Clock = old }()

	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	config.Clock = config.FixedTimestampGenerator{Timestamp: want}

	j := New("job-1", "corr-1", KindGeneration, model.Brief{}, model.PlanSpec{}, model.VoiceSpec{}, model.RenderSpec{})
	require.True(t, want.Equal(j.CreatedAt))
}

func TestNewExportJobStartsAtExportStage(t *testing.T) {
	j := New("job-1", "corr-1", KindExport, model.Brief{}, model.PlanSpec{}, model.VoiceSpec{}, model.RenderSpec{})
	require.Equal(t, StageExport, j.Stage())
}

func TestCancelQueuedJobGoesStraightToCancelled(t *testing.T) {
	j := New("job-1", "corr-1", KindGeneration, model.Brief{}, model.PlanSpec{}, model.VoiceSpec{}, model.RenderSpec{})
	j.Cancel()
	require.Equal(t, StateCancelled, j.State())
	require.True(t, j.Cancelled())
}

func TestProgressIsMonotonicNonDecreasing(t *testing.T) {
	j := New("job-1", "corr-1", KindGeneration, model.Brief{}, model.PlanSpec{}, model.VoiceSpec{}, model.RenderSpec{})
	j.reportProgress(50)
	j.reportProgress(20)
	require.Equal(t, 50.0, j.Percent())
	j.reportProgress(80)
	require.Equal(t, 80.0, j.Percent())
}

func TestAdvanceStageResetsPercent(t *testing.T) {
	j := New("job-1", "corr-1", KindGeneration, model.Brief{}, model.PlanSpec{}, model.VoiceSpec{}, model.RenderSpec{})
	j.reportProgress(100)
	j.advanceStage(StageNarration)
	require.Equal(t, 0.0, j.Percent())
	require.Equal(t, StageNarration, j.Stage())
}
