// Package api wires every HTTP endpoint in the external interface table to
// the queue, event stream, and shutdown coordinator, using one
// httprouter.Router built from a per-route table.
package api

import (
	"context"
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/julienschmidt/httprouter"

	"github.com/auracorp/aurastudio/artifact"
	"github.com/auracorp/aurastudio/job"
	"github.com/auracorp/aurastudio/middleware"
	"github.com/auracorp/aurastudio/model"
)

// QueueService is the subset of *queue.Queue the API depends on, so tests
// can substitute a fake queue.
type QueueService interface {
	Create(ctx context.Context, correlationID string, brief model.Brief, plan model.PlanSpec, voice model.VoiceSpec, render model.RenderSpec) (*job.Job, error)
	CreateExport(ctx context.Context, correlationID, inputFile, presetName string) (*job.Job, error)
	Get(jobID string) (*job.Job, bool)
	List() []*job.Job
	Cancel(jobID string) error
	Retry(jobID string) (*job.Job, error)
	FailureDetails(jobID string) (*job.FailureDetails, error)
	Progress(jobID string) (job.Stage, float64, error)
	RecentArtifacts(n int) []artifact.RecentEntry
	Events(jobID string) []job.Event
}

// EncoderStatus reports the configured encoder's presence, version, and a
// best-effort hardware-acceleration summary.
type EncoderStatus struct {
	Path            string   `json:"path"`
	Found           bool     `json:"found"`
	Version         string   `json:"version,omitempty"`
	MeetsMinVersion bool     `json:"meetsMinVersion"`
	HardwareAccels  []string `json:"hardwareAccels,omitempty"`
}

// Server holds every dependency the route handlers close over.
type Server struct {
	Queue         QueueService
	Clock         clock.Clock
	EncoderStatus func(ctx context.Context) EncoderStatus
	Shutdown      func()
}

// NewRouter builds the full httprouter.Router for the external interface
// table, each route wrapped with panic recovery, request logging, and CORS.
func NewRouter(s *Server) *httprouter.Router {
	r := httprouter.New()

	route := func(method, path string, handle httprouter.Handle) {
		wrapped := middleware.Chain(handle, middleware.WithRecovery, middleware.WithLogging, middleware.AllowCORS())
		r.Handle(method, path, wrapped)
	}

	route(http.MethodPost, "/jobs", s.handleCreateJob)
	route(http.MethodGet, "/jobs", s.handleListJobs)
	// httprouter rejects a static sibling next to a :id wildcard at the same
	// segment, so /jobs/recent-artifacts is dispatched out of handleGetJob
	// by value instead of getting its own route.
	route(http.MethodGet, "/jobs/:id", s.handleGetJob)
	route(http.MethodGet, "/jobs/:id/progress", s.handleJobProgress)
	route(http.MethodGet, "/jobs/:id/events", s.handleJobEvents)
	route(http.MethodGet, "/jobs/:id/failure-details", s.handleJobFailureDetails)
	route(http.MethodPost, "/jobs/:id/cancel", s.handleCancelJob)
	route(http.MethodPost, "/jobs/:id/retry", s.handleRetryJob)

	route(http.MethodPost, "/export/start", s.handleExportStart)
	route(http.MethodGet, "/export/status/:id", s.handleExportStatus)
	route(http.MethodPost, "/export/cancel/:id", s.handleExportCancel)
	route(http.MethodGet, "/export/presets", s.handleExportPresets)

	route(http.MethodGet, "/system/encoder/status", s.handleEncoderStatus)
	route(http.MethodPost, "/system/shutdown", s.handleShutdown)

	return r
}
