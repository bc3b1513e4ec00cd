package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/xeipuuv/gojsonschema"

	"github.com/auracorp/aurastudio/errors"
	"github.com/auracorp/aurastudio/eventstream"
	"github.com/auracorp/aurastudio/job"
	"github.com/auracorp/aurastudio/log"
	"github.com/auracorp/aurastudio/model"
	"github.com/auracorp/aurastudio/schema"
)

// issues is implemented by the queue's admission error, surfacing the
// individual validation problems alongside the taxonomy code.
type issues interface {
	Issues() []string
	Code() errors.Code
}

func correlationID(r *http.Request) string {
	return log.CorrelationID(r.Context())
}

// decodeAndValidate reads the request body, validates it against the named
// compiled schema, and unmarshals it into dst. It writes the HTTP error
// itself and returns false on any failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, schemaName string, dst any) bool {
	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		errors.WriteHTTP(w, errors.EValidation, "request body must be valid JSON", correlationID(r))
		return false
	}

	s := schema.Get(schemaName)
	result, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		errors.WriteHTTP(w, errors.EValidation, "could not validate request body", correlationID(r))
		return false
	}
	if !result.Valid() {
		detail := "request body failed validation"
		if len(result.Errors()) > 0 {
			detail = result.Errors()[0].String()
		}
		errors.WriteHTTP(w, errors.EValidation, detail, correlationID(r))
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		errors.WriteHTTP(w, errors.EValidation, "request body did not match the expected shape", correlationID(r))
		return false
	}
	return true
}

type createJobRequest struct {
	Brief         model.Brief      `json:"brief"`
	PlanSpec      model.PlanSpec   `json:"planSpec"`
	VoiceSpec     model.VoiceSpec  `json:"voiceSpec"`
	RenderSpec    model.RenderSpec `json:"renderSpec"`
	CorrelationID string           `json:"correlationId"`
}

type createJobResponse struct {
	JobID         string    `json:"jobId"`
	Status        job.State `json:"status"`
	Stage         job.Stage `json:"stage"`
	CorrelationID string    `json:"correlationId"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createJobRequest
	if !decodeAndValidate(w, r, "CreateJob", &req) {
		return
	}

	corrID := req.CorrelationID
	if corrID == "" {
		corrID = correlationID(r)
	}

	j, err := s.Queue.Create(r.Context(), corrID, req.Brief, req.PlanSpec, req.VoiceSpec, req.RenderSpec)
	if err != nil {
		writeAdmissionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createJobResponse{
		JobID:         j.ID,
		Status:        j.State(),
		Stage:         j.Stage(),
		CorrelationID: j.CorrelationID,
	})
}

func writeAdmissionError(w http.ResponseWriter, r *http.Request, err error) {
	if ie, ok := err.(issues); ok {
		detail := "request rejected"
		if len(ie.Issues()) > 0 {
			detail = ie.Issues()[0]
		}
		errors.WriteHTTP(w, ie.Code(), detail, correlationID(r))
		return
	}
	errors.WriteHTTP(w, errors.EInternal, err.Error(), correlationID(r))
}

type jobRecord struct {
	ID             string              `json:"id"`
	CorrelationID  string              `json:"correlationId"`
	Kind           job.Kind            `json:"kind"`
	Status         job.State           `json:"status"`
	Stage          job.Stage           `json:"stage"`
	Percent        float64             `json:"percent"`
	Attempt        int                 `json:"attempt"`
	CreatedAt      string              `json:"createdAt"`
	StartedAt      string              `json:"startedAt,omitempty"`
	FinishedAt     string              `json:"finishedAt,omitempty"`
	Errors         []job.JobError      `json:"errors,omitempty"`
	FailureDetails *job.FailureDetails `json:"failureDetails,omitempty"`
	Artifacts      []string            `json:"artifacts,omitempty"`
	Log            []job.LogEvent      `json:"log,omitempty"`
}

func toJobRecord(j *job.Job) jobRecord {
	rec := jobRecord{
		ID:             j.ID,
		CorrelationID:  j.CorrelationID,
		Kind:           j.Kind,
		Status:         j.State(),
		Stage:          j.Stage(),
		Percent:        j.Percent(),
		Attempt:        j.Attempt(),
		CreatedAt:      formatTime(j.CreatedAt),
		Errors:         j.Errors(),
		FailureDetails: j.FailureDetails(),
		Log:            j.Log(),
	}
	if !j.StartedAt().IsZero() {
		rec.StartedAt = formatTime(j.StartedAt())
	}
	if !j.FinishedAt().IsZero() {
		rec.FinishedAt = formatTime(j.FinishedAt())
	}
	for _, a := range j.Artifacts() {
		rec.Artifacts = append(rec.Artifacts, a.Path)
	}
	return rec
}

// recentArtifactsSegment is the literal id value that routes GET
// /jobs/recent-artifacts through handleGetJob instead of a dedicated route,
// since httprouter disallows a static sibling next to the :id wildcard.
const recentArtifactsSegment = "recent-artifacts"

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == recentArtifactsSegment {
		s.handleRecentArtifacts(w, r, ps)
		return
	}

	j, ok := s.Queue.Get(id)
	if !ok {
		errors.WriteHTTPNotFound(w, "job not found", correlationID(r))
		return
	}
	writeJSON(w, http.StatusOK, toJobRecord(j))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	all := s.Queue.List()
	records := make([]jobRecord, 0, len(all))
	for _, j := range all {
		records = append(records, toJobRecord(j))
	}

	if offset > len(records) {
		offset = len(records)
	}
	end := offset + limit
	if end > len(records) || limit <= 0 {
		end = len(records)
	}
	writeJSON(w, http.StatusOK, records[offset:end])
}

type progressResponse struct {
	Status       job.State `json:"status"`
	Progress     float64   `json:"progress"`
	CurrentStage job.Stage `json:"currentStage"`
	StartedAt    string    `json:"startedAt,omitempty"`
	CompletedAt  string    `json:"completedAt,omitempty"`
}

func (s *Server) handleJobProgress(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	jobID := ps.ByName("id")
	stage, percent, err := s.Queue.Progress(jobID)
	if err != nil {
		errors.WriteHTTPNotFound(w, "job not found", correlationID(r))
		return
	}
	j, _ := s.Queue.Get(jobID)

	resp := progressResponse{Status: j.State(), Progress: percent, CurrentStage: stage}
	if !j.StartedAt().IsZero() {
		resp.StartedAt = formatTime(j.StartedAt())
	}
	if !j.FinishedAt().IsZero() {
		resp.CompletedAt = formatTime(j.FinishedAt())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	jobID := ps.ByName("id")
	if _, ok := s.Queue.Get(jobID); !ok {
		errors.WriteHTTPNotFound(w, "job not found", correlationID(r))
		return
	}
	reader := queueJobReader{s.Queue}
	if err := eventstream.Stream(r.Context(), w, s.Clock, reader, jobID); err != nil {
		log.Error(r.Context(), "event stream ended with error", err)
	}
}

// queueJobReader adapts QueueService to eventstream.JobReader.
type queueJobReader struct{ q QueueService }

func (q queueJobReader) Get(jobID string) (*job.Job, bool) { return q.q.Get(jobID) }

func (s *Server) handleJobFailureDetails(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	jobID := ps.ByName("id")
	fd, err := s.Queue.FailureDetails(jobID)
	if err != nil {
		errors.WriteHTTPNotFound(w, "job not found", correlationID(r))
		return
	}
	if fd == nil {
		errors.WriteHTTP(w, errors.EValidation, "job has not failed", correlationID(r))
		return
	}
	writeJSON(w, http.StatusOK, fd)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	jobID := ps.ByName("id")
	j, ok := s.Queue.Get(jobID)
	if !ok {
		errors.WriteHTTPNotFound(w, "job not found", correlationID(r))
		return
	}
	if j.State().Terminal() {
		errors.WriteHTTP(w, errors.EValidation, "job is already in a terminal state", correlationID(r))
		return
	}
	if err := s.Queue.Cancel(jobID); err != nil {
		errors.WriteHTTPNotFound(w, "job not found", correlationID(r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"jobId": jobID, "status": string(job.StateCancelled)})
}

func (s *Server) handleRetryJob(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	jobID := ps.ByName("id")
	fresh, err := s.Queue.Retry(jobID)
	if err != nil {
		errors.WriteHTTP(w, errors.EValidation, err.Error(), correlationID(r))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"jobId": fresh.ID})
}

func (s *Server) handleRecentArtifacts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	n := queryInt(r, "limit", 20)
	writeJSON(w, http.StatusOK, s.Queue.RecentArtifacts(n))
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
