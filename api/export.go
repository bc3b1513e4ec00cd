package api

import (
	"net/http"
	"sort"

	"github.com/julienschmidt/httprouter"

	"github.com/auracorp/aurastudio/errors"
	"github.com/auracorp/aurastudio/job"
	"github.com/auracorp/aurastudio/stage"
)

type exportStartRequest struct {
	InputFile     string `json:"inputFile"`
	Timeline      string `json:"timeline"`
	PresetName    string `json:"presetName"`
	CorrelationID string `json:"correlationId"`
}

type exportStartResponse struct {
	JobID         string    `json:"jobId"`
	Status        job.State `json:"status"`
	CorrelationID string    `json:"correlationId"`
}

func (s *Server) handleExportStart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req exportStartRequest
	if !decodeAndValidate(w, r, "ExportStart", &req) {
		return
	}

	if _, ok := stage.Presets[req.PresetName]; !ok {
		errors.WriteHTTP(w, errors.EValidation, "unknown export preset", correlationID(r))
		return
	}

	if req.InputFile == "" {
		// a timeline-only export would require re-running narration/visuals
		// composition from scratch rather than transcoding an existing
		// intermediate; the export job model only carries a path to an
		// already-rendered intermediate, so this path isn't runnable yet.
		errors.WriteHTTP(w, errors.EValidation, "export from a raw timeline is not yet supported; provide inputFile", correlationID(r))
		return
	}

	corrID := req.CorrelationID
	if corrID == "" {
		corrID = correlationID(r)
	}

	j, err := s.Queue.CreateExport(r.Context(), corrID, req.InputFile, req.PresetName)
	if err != nil {
		writeAdmissionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, exportStartResponse{JobID: j.ID, Status: j.State(), CorrelationID: j.CorrelationID})
}

func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	j, ok := s.Queue.Get(ps.ByName("id"))
	if !ok || j.Kind != job.KindExport {
		errors.WriteHTTPNotFound(w, "export job not found", correlationID(r))
		return
	}
	writeJSON(w, http.StatusOK, toJobRecord(j))
}

func (s *Server) handleExportCancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	jobID := ps.ByName("id")
	j, ok := s.Queue.Get(jobID)
	if !ok || j.Kind != job.KindExport {
		errors.WriteHTTPNotFound(w, "export job not found", correlationID(r))
		return
	}
	if j.State().Terminal() {
		errors.WriteHTTP(w, errors.EValidation, "export job is already in a terminal state", correlationID(r))
		return
	}
	if err := s.Queue.Cancel(jobID); err != nil {
		errors.WriteHTTPNotFound(w, "export job not found", correlationID(r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"jobId": jobID, "status": string(job.StateCancelled)})
}

func (s *Server) handleExportPresets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	out := make([]stage.Preset, 0, len(stage.Presets))
	for _, p := range stage.Presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}
