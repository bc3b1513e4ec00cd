package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAddThenGet(t *testing.T) {
	s := New(t.TempDir())
	err := s.Add("job1", Artifact{Type: TypeScript, Path: "/tmp/x.txt", SizeBytes: 10})
	require.NoError(t, err)

	got := s.Get("job1")
	require.Len(t, got, 1)
	require.Equal(t, TypeScript, got[0].Type)
	require.False(t, got[0].CreatedAt.IsZero())
}

func TestAddIsIdempotent(t *testing.T) {
	s := New(t.TempDir())
	a := Artifact{Type: TypeFinalVideo, Path: "/tmp/out.mp4", SizeBytes: 1024}
	require.NoError(t, s.Add("job1", a))
	require.NoError(t, s.Add("job1", a))
	require.Len(t, s.Get("job1"), 1)
}

func TestManifestIsAppendOnlyJSONL(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Add("job1", Artifact{Type: TypeScript, Path: "a", SizeBytes: 1}))
	require.NoError(t, s.Add("job1", Artifact{Type: TypeAudio, Path: "b", SizeBytes: 2}))

	data, err := os.ReadFile(filepath.Join(dir, "job1", "manifest.jsonl"))
	require.NoError(t, err)
	require.Equal(t, 2, len(splitLines(string(data))))
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	return lines
}

func TestRecentCompletedNeverFailsAndOrdersNewestFirst(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Add("job1", Artifact{Type: TypeFinalVideo, Path: "a", SizeBytes: 1}))
	s.RecordCompleted("job1", "corr-1", time.Now())
	require.NoError(t, s.Add("job2", Artifact{Type: TypeFinalVideo, Path: "b", SizeBytes: 1}))
	s.RecordCompleted("job2", "corr-2", time.Now().Add(time.Second))

	recent := s.RecentCompleted(10)
	require.Len(t, recent, 2)
	require.Equal(t, "job2", recent[0].JobID)
}

func TestRecentCompletedEmptyIsFine(t *testing.T) {
	s := New(t.TempDir())
	require.Empty(t, s.RecentCompleted(5))
}
