package steps

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// ThereAreNJobsRunningWithLiveEncoderSubprocesses admits n long-running
// generation jobs, for the shutdown-under-load scenario.
func (s *StepContext) ThereAreNJobsRunningWithLiveEncoderSubprocesses(n string) error {
	count, err := strconv.Atoi(n)
	if err != nil {
		return err
	}
	s.trackedJobIDs = s.trackedJobIDs[:0]

	body := `{"brief": {"topic": "Migratory patterns of arctic terns", "aspectRatio": "16:9"}, "planSpec": {"targetDurationSeconds": 120}}`
	for i := 0; i < count; i++ {
		req, err := http.NewRequest(http.MethodPost, s.BaseURL+"/jobs", strings.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		var created struct {
			JobID string `json:"jobId"`
		}
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err := json.Unmarshal(b, &created); err != nil {
			return err
		}
		s.trackedJobIDs = append(s.trackedJobIDs, created.JobID)
	}
	return nil
}
