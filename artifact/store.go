// Package artifact persists intermediate and final pipeline outputs keyed
// by job id, sidecar-recording them in an append-only per-job manifest so
// the on-disk record survives a process restart even though the in-memory
// index (backed by cache.Cache) does not.
package artifact

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/auracorp/aurastudio/cache"
	"github.com/auracorp/aurastudio/config"
	"github.com/auracorp/aurastudio/log"
)

type Type string

const (
	TypeScript           Type = "script"
	TypeAudio            Type = "audio"
	TypeVisualSet        Type = "visual-set"
	TypeIntermediateVideo Type = "intermediate-video"
	TypeFinalVideo       Type = "final-video"
)

type Artifact struct {
	Type      Type      `json:"type"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

type RecentEntry struct {
	JobID         string     `json:"jobId"`
	CorrelationID string     `json:"correlationId"`
	FinishedAt    time.Time  `json:"finishedAt"`
	Artifacts     []Artifact `json:"artifacts"`
}

// Store maps job id to its ordered artifact list. The in-memory index uses
// the shared generic cache; disk writes are serialised per job id via a
// per-job mutex so concurrent stages never interleave manifest lines.
type Store struct {
	baseDir string
	index   *cache.Cache[[]Artifact]

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	recentMu sync.Mutex
	recent   []RecentEntry
}

func New(baseDir string) *Store {
	return &Store{
		baseDir: baseDir,
		index:   cache.New[[]Artifact](),
		locks:   map[string]*sync.Mutex{},
	}
}

func (s *Store) lockFor(jobID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[jobID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[jobID] = l
	}
	return l
}

// JobDir returns (and ensures) the absolute directory artifacts for jobID
// live under.
func (s *Store) JobDir(jobID string) (string, error) {
	dir := filepath.Join(s.baseDir, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Add durably records an artifact for jobID. It is idempotent on an
// identical (type, path, size) triple already present, and the artifact is
// never visible via Get before this call returns — the manifest append and
// index update both happen before Add returns.
func (s *Store) Add(jobID string, a Artifact) error {
	lock := s.lockFor(jobID)
	lock.Lock()
	defer lock.Unlock()

	existing, _ := s.index.Get(jobID)
	for _, e := range existing {
		if e.Type == a.Type && e.Path == a.Path && e.SizeBytes == a.SizeBytes {
			return nil
		}
	}

	if a.CreatedAt.IsZero() {
		a.CreatedAt = config.Clock.GetTime()
	}

	if err := s.appendManifest(jobID, a); err != nil {
		return err
	}

	s.index.Store(jobID, append(existing, a))
	return nil
}

// Get returns jobID's artifacts in the order they were added.
func (s *Store) Get(jobID string) []Artifact {
	v, _ := s.index.Get(jobID)
	return v
}

// RevealDirectory returns jobID's directory for external open; it does not
// verify the directory is non-empty.
func (s *Store) RevealDirectory(jobID string) string {
	return filepath.Join(s.baseDir, jobID)
}

// RecordCompleted registers a terminal job's artifacts for RecentCompleted.
func (s *Store) RecordCompleted(jobID, correlationID string, finishedAt time.Time) {
	s.recentMu.Lock()
	defer s.recentMu.Unlock()
	s.recent = append(s.recent, RecentEntry{
		JobID:         jobID,
		CorrelationID: correlationID,
		FinishedAt:    finishedAt,
		Artifacts:     s.Get(jobID),
	})
}

// RecentCompleted is best-effort: it never fails, returning an empty list
// on any I/O hiccup when reading back the in-memory record (there is none,
// by construction, but external sort/slicing is guarded defensively since
// this endpoint is read by unauthenticated dashboards and must never 500).
func (s *Store) RecentCompleted(n int) []RecentEntry {
	s.recentMu.Lock()
	defer s.recentMu.Unlock()

	if n <= 0 || n > len(s.recent) {
		n = len(s.recent)
	}
	out := make([]RecentEntry, 0, n)
	for i := len(s.recent) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.recent[i])
	}
	return out
}

func (s *Store) appendManifest(jobID string, a Artifact) error {
	dir, err := s.JobDir(jobID)
	if err != nil {
		log.Error(context.Background(), "cannot create job directory", err, "jobId", jobID)
		return err
	}

	f, err := os.OpenFile(filepath.Join(dir, "manifest.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := marshalManifestLine(a)
	if err != nil {
		return err
	}
	_, err = f.Write(line)
	return err
}
