package process

import (
	"context"
	"testing"
	"time"

	"github.com/auracorp/aurastudio/config"
	"github.com/stretchr/testify/require"
)

func TestSpawnAndWait(t *testing.T) {
	s := New()
	h, err := s.Spawn(context.Background(), "sh", []string{"-c", "echo hello 1>&2; exit 0"}, nil, "")
	require.NoError(t, err)

	var lines []string
	for line := range h.Stderr() {
		lines = append(lines, line)
	}
	require.NoError(t, h.Wait())
	require.Equal(t, 0, h.ExitCode())
	require.Contains(t, lines, "hello")
}

func TestSpawnUnknownBinary(t *testing.T) {
	s := New()
	_, err := s.Spawn(context.Background(), "no-such-binary-xyz", nil, nil, "")
	require.Error(t, err)
	var launchErr *LaunchError
	require.ErrorAs(t, err, &launchErr)
}

func TestKillAllEmptiesRegistryAndIsIdempotent(t *testing.T) {
	s := New()
	h, err := s.Spawn(context.Background(), "sleep", []string{"5"}, nil, "")
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	killed := s.KillAll()
	require.Equal(t, 1, killed)
	require.Equal(t, 0, s.Len())
	require.True(t, h.WasKilled())

	require.Equal(t, 0, s.KillAll())
}

func TestKillWithinGrace(t *testing.T) {
	s := New()
	h, err := s.Spawn(context.Background(), "sleep", []string{"30"}, nil, "")
	require.NoError(t, err)

	start := time.Now()
	s.Kill(h)
	require.Less(t, time.Since(start), config.ProcessKillGrace+2*time.Second)
	require.True(t, h.WasKilled())
}
