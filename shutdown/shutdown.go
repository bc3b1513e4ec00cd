// Package shutdown implements the shutdown coordinator (C9): on a
// termination signal, stop admitting new work, cancel every in-flight job,
// kill every tracked subprocess, and log a structured summary, using the
// context.WithCancel + goroutine + <-ctx.Done() shutdown shape extended
// with the job-cancellation and subprocess-kill steps this domain needs.
package shutdown

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/auracorp/aurastudio/config"
	"github.com/auracorp/aurastudio/job"
	"github.com/auracorp/aurastudio/log"
)

// JobSupervisor is the subset of *queue.Queue the coordinator depends on.
type JobSupervisor interface {
	Active() []*job.Job
	Cancel(jobID string) error
	Close()
}

// ProcessSupervisor is the subset of *process.Supervisor the coordinator
// depends on.
type ProcessSupervisor interface {
	KillAll() int
}

// Summary is the structured record logged once shutdown completes.
type Summary struct {
	CancelledJobs  int
	KilledProcs    int
	HTTPShutdownOK bool
	Duration       time.Duration
}

// Coordinator owns the root context every queued job runs under; HTTP
// handlers use their own request contexts. Shutdown (on a termination
// signal or an explicit call) runs the drain sequence and cancels it.
type Coordinator struct {
	Server    *http.Server
	Queue     JobSupervisor
	Processes ProcessSupervisor

	rootCtx context.Context
	cancel  context.CancelFunc
}

// New constructs a Coordinator and its root context, derived from parent.
func New(parent context.Context, server *http.Server, queue JobSupervisor, processes ProcessSupervisor) *Coordinator {
	ctx, cancel := context.WithCancel(parent)
	return &Coordinator{
		Server:    server,
		Queue:     queue,
		Processes: processes,
		rootCtx:   ctx,
		cancel:    cancel,
	}
}

// Context returns the root context; job contexts and long-lived request
// handlers should derive from it so a shutdown cascades into their
// cancellation.
func (c *Coordinator) Context() context.Context { return c.rootCtx }

// WaitForSignal blocks until SIGTERM or SIGINT, then runs Shutdown with the
// subprocess-kill budget as the bound and returns its summary.
func (c *Coordinator) WaitForSignal() Summary {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh
	log.Info(context.Background(), "shutdown signal received", "signal", sig.String())
	return c.Shutdown()
}

// Shutdown runs the drain sequence: stop admitting new HTTP requests and
// jobs, cancel every active job's token, kill every tracked subprocess
// (bounded by config.ShutdownSubprocessBudget), then wait for the worker
// pool to drain and log a structured summary.
func (c *Coordinator) Shutdown() Summary {
	started := config.Clock.GetTime()
	summary := Summary{}

	if c.Server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownSubprocessBudget)
		if err := c.Server.Shutdown(shutdownCtx); err != nil {
			log.Error(context.Background(), "http server shutdown error", err)
		} else {
			summary.HTTPShutdownOK = true
		}
		cancel()
	}

	if c.Queue != nil {
		for _, j := range c.Queue.Active() {
			if err := c.Queue.Cancel(j.ID); err == nil {
				summary.CancelledJobs++
			}
		}
	}

	// cascade cancellation into every in-flight stage call (HTTP requests
	// to providers, subprocess waits) derived from this root context.
	c.cancel()

	if c.Processes != nil {
		killDone := make(chan int, 1)
		go func() { killDone <- c.Processes.KillAll() }()
		select {
		case n := <-killDone:
			summary.KilledProcs = n
		case <-time.After(config.ShutdownSubprocessBudget):
			log.Error(context.Background(), "subprocess kill budget exceeded", errShutdownTimeout)
		}
	}

	if c.Queue != nil {
		c.Queue.Close()
	}

	// artifact manifests are appended synchronously on every Add call, so
	// there is no buffered writer to flush here; the step is a no-op by
	// construction.

	summary.Duration = config.Clock.GetTime().Sub(started)
	log.Info(context.Background(), "shutdown complete",
		"cancelledJobs", summary.CancelledJobs,
		"killedProcesses", summary.KilledProcs,
		"httpShutdownOk", summary.HTTPShutdownOK,
		"durationMs", summary.Duration.Milliseconds(),
	)
	return summary
}

type shutdownTimeoutError string

func (e shutdownTimeoutError) Error() string { return string(e) }

const errShutdownTimeout = shutdownTimeoutError("subprocess kill budget exceeded")
