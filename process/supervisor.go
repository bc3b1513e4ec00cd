// Package process spawns, tracks, and tears down external binary processes
// (principally the media encoder). A handle's cancellation is deliberately
// independent of any caller context: the caller cancels by calling Kill()
// explicitly, so an unrelated upstream timeout never reaps a legitimately
// slow local subprocess.
package process

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/auracorp/aurastudio/config"
	"github.com/auracorp/aurastudio/log"
)

// LaunchError is returned by Spawn when the binary can't be resolved or
// started; it is fatal for the caller's stage.
type LaunchError struct {
	Name string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch failure for %q: %v", e.Name, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Handle represents one tracked child process.
type Handle struct {
	ID        string
	Name      string
	StartedAt time.Time

	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stderrCh  chan string
	done      chan struct{}
	waitErr   error
	waitOnce  sync.Once
	killGrace time.Duration

	mu       sync.Mutex
	killed   bool
	exitCode int
}

// Supervisor owns the process-wide registry of live handles. Add/remove is
// lock-free via sync.Map; KillAll takes a snapshot and iterates it without
// holding any lock across the wait-then-kill sequence.
type Supervisor struct {
	handles sync.Map // id -> *Handle
	nextID  atomic64
}

func New() *Supervisor {
	return &Supervisor{}
}

type atomic64 struct {
	mu sync.Mutex
	n  int64
}

func (a *atomic64) next() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.n++
	return a.n
}

// Spawn starts name with args/env/cwd and begins tracking it. Stderr lines
// are streamed into a bounded channel for the caller (typically a pipeline
// stage parsing encoder progress) to consume.
func (s *Supervisor) Spawn(ctx context.Context, name string, args, env []string, cwd string) (*Handle, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, &LaunchError{Name: name, Err: err}
	}

	cmd := exec.Command(path, args...)
	cmd.Dir = cwd
	if len(env) > 0 {
		cmd.Env = env
	}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, &LaunchError{Name: name, Err: err}
	}

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, &LaunchError{Name: name, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Name: name, Err: err}
	}

	h := &Handle{
		ID:        fmt.Sprintf("%s-%d", name, s.nextID.next()),
		Name:      name,
		StartedAt: config.Clock.GetTime(),
		cmd:       cmd,
		stdin:     stdinPipe,
		stderrCh:  make(chan string, 256),
		done:      make(chan struct{}),
		killGrace: config.ProcessKillGrace,
	}
	s.handles.Store(h.ID, h)

	go h.streamStderr(stderrPipe)
	go func() {
		h.waitErr = cmd.Wait()
		h.mu.Lock()
		if cmd.ProcessState != nil {
			h.exitCode = cmd.ProcessState.ExitCode()
		}
		h.mu.Unlock()
		close(h.done)
		s.handles.Delete(h.ID)
	}()

	log.Info(ctx, "spawned subprocess", "name", name, "handle", h.ID)
	return h, nil
}

func (h *Handle) streamStderr(pipe io.Reader) {
	defer close(h.stderrCh)
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		select {
		case h.stderrCh <- scanner.Text():
		default:
			// Drop lines if the consumer is slow; progress parsing never
			// blocks the process's own output pump.
		}
	}
}

// Stderr returns a channel of stderr lines, closed when the process exits.
func (h *Handle) Stderr() <-chan string { return h.stderrCh }

// Stdin returns the process's stdin pipe, for subprocesses that take their
// input that way (local TTS engines reading script text on stdin).
func (h *Handle) Stdin() io.WriteCloser { return h.stdin }

// Wait blocks until the process exits and returns its terminal error, or
// nil on a clean exit.
func (h *Handle) Wait() error {
	<-h.done
	return h.waitErr
}

// ExitCode returns the process's exit code; only meaningful after Wait
// returns.
func (h *Handle) ExitCode() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode
}

// WasKilled reports whether Kill() was called on this handle, which the
// caller uses to report Cancelled instead of Failed.
func (h *Handle) WasKilled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.killed
}

// Kill terminates the process: a graceful signal first, then a hard kill
// after the grace period if it hasn't exited. Always removes the handle
// from the registry. Idempotent.
func (s *Supervisor) Kill(h *Handle) {
	h.mu.Lock()
	h.killed = true
	h.mu.Unlock()

	h.waitOnce.Do(func() {
		_ = h.cmd.Process.Signal(terminateSignal())
		timer := time.NewTimer(h.killGrace)
		defer timer.Stop()
		select {
		case <-h.done:
		case <-timer.C:
			_ = h.cmd.Process.Kill()
			<-h.done
		}
	})
	s.handles.Delete(h.ID)
}

// KillAll kills every currently tracked handle and returns how many were
// targeted. Idempotent: a second call on an empty registry is a no-op.
func (s *Supervisor) KillAll() int {
	var handles []*Handle
	s.handles.Range(func(_, v any) bool {
		handles = append(handles, v.(*Handle))
		return true
	})

	var wg sync.WaitGroup
	for _, h := range handles {
		wg.Add(1)
		go func(h *Handle) {
			defer wg.Done()
			s.Kill(h)
		}(h)
	}
	wg.Wait()
	return len(handles)
}

// Len reports how many handles are currently tracked; used by tests to
// assert the registry empties after KillAll.
func (s *Supervisor) Len() int {
	n := 0
	s.handles.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
