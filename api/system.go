package api

import (
	"context"
	"net/http"
	"os/exec"
	"regexp"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/auracorp/aurastudio/config"
	"github.com/auracorp/aurastudio/log"
	"github.com/auracorp/aurastudio/validate"
)

var hwaccelPattern = regexp.MustCompile(`\b(h264|hevc|av1)_(nvenc|qsv|videotoolbox|vaapi|amf)\b`)

// ProbeEncoderStatus shells out to the encoder's -encoders listing and
// scans it for hardware-accelerated codec names, caching the result for
// the life of the process since the available hardware doesn't change
// between requests. It mirrors the subprocess-probe shape of
// validate.probeEncoderVersion, redirected at a different flag.
func ProbeEncoderStatus(encoderPath string) func(ctx context.Context) EncoderStatus {
	var once sync.Once
	var cached EncoderStatus

	return func(ctx context.Context) EncoderStatus {
		once.Do(func() {
			cached = probeEncoderStatusOnce(ctx, encoderPath)
		})
		return cached
	}
}

func probeEncoderStatusOnce(ctx context.Context, encoderPath string) EncoderStatus {
	status := EncoderStatus{Path: encoderPath}

	versionCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	versionOut, err := exec.CommandContext(versionCtx, encoderPath, "-version").Output()
	if err != nil {
		return status
	}
	status.Found = true
	if match := versionPattern.FindString(string(versionOut)); match != "" {
		status.Version = match
		status.MeetsMinVersion = validate.VersionAtLeast(match, config.EncoderMinVersion)
	}

	encodersCtx, cancel2 := context.WithTimeout(ctx, 5*time.Second)
	defer cancel2()
	encodersOut, err := exec.CommandContext(encodersCtx, encoderPath, "-encoders").Output()
	if err == nil {
		for _, m := range hwaccelPattern.FindAllString(string(encodersOut), -1) {
			status.HardwareAccels = append(status.HardwareAccels, m)
		}
	}
	return status
}

var versionPattern = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

func (s *Server) handleEncoderStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.EncoderStatus(r.Context()))
}

// handleShutdown triggers the shutdown coordinator on a separate goroutine
// after acknowledging the request: Coordinator.Shutdown calls
// http.Server.Shutdown, which blocks until every in-flight request
// (including this one) completes, so running it synchronously here would
// deadlock the handler against its own response.
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log.Info(r.Context(), "shutdown requested via API")
	go s.Shutdown()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "shutting down"})
}
