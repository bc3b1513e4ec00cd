package steps

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// App is the studio binary under test, started fresh per scenario so state
// from one scenario never leaks into the next.
var App *exec.Cmd

var nextPort = 18800

func allocatePort() int {
	nextPort++
	return nextPort
}

// StartAppWithArgs launches ./app with the given extra flags plus a freshly
// allocated http-addr, and blocks until the API answers.
func (s *StepContext) StartAppWithArgs(extra ...string) error {
	port := allocatePort()
	s.BaseURL = fmt.Sprintf("http://127.0.0.1:%d", port)

	args := append([]string{
		"-http-addr=" + fmt.Sprintf("127.0.0.1:%d", port),
		"-metrics-addr=" + fmt.Sprintf("127.0.0.1:%d", allocatePort()),
		"-output-dir=" + s.tempOutputDir(),
	}, extra...)

	App = exec.Command("./app", args...)
	outfile, err := os.Create("logs/app-" + strconv.Itoa(port) + ".log")
	if err != nil {
		return err
	}
	App.Stdout = outfile
	App.Stderr = outfile
	if err := App.Start(); err != nil {
		return err
	}
	return WaitForStartup(s.BaseURL + "/system/encoder/status")
}

func (s *StepContext) tempOutputDir() string {
	dir, err := os.MkdirTemp(os.TempDir(), "aurastudio-cucumber-*")
	if err != nil {
		panic(err)
	}
	return dir
}

// StartAppOfflineOnly boots the studio with network-backed providers
// disallowed and the Pro tier selected, for the resolver-conflict scenario.
func (s *StepContext) StartAppOfflineOnly() error {
	return s.StartAppWithArgs("-offline-only=true", "-default-tier=Pro")
}

// StartAppWithoutEncoder boots the studio pointed at an encoder path that
// does not resolve to a real binary.
func (s *StepContext) StartAppWithoutEncoder() error {
	return s.StartAppWithArgs("-encoder-path=/nonexistent/ffmpeg")
}

// StartAppDefault boots the studio with its ordinary defaults.
func (s *StepContext) StartAppDefault() error {
	return s.StartAppWithArgs()
}

// StartAppWithHangingEncoder points the studio at fixtures/hanging-encoder.sh,
// a stand-in binary that never exits, so the render stage's timeout and the
// supervisor's kill path both get exercised.
func (s *StepContext) StartAppWithHangingEncoder() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	return s.StartAppWithArgs("-encoder-path=" + cwd + "/fixtures/hanging-encoder.sh")
}

func (s *StepContext) ICancelTheJob() error {
	req, err := http.NewRequest(http.MethodPost, s.BaseURL+"/jobs/"+s.latestJobID+"/cancel", nil)
	if err != nil {
		return err
	}
	s.pendingRequest = req
	return s.callAPI()
}

func (s *StepContext) ITriggerAGracefulShutdown() error {
	req, err := http.NewRequest(http.MethodPost, s.BaseURL+"/system/shutdown", nil)
	if err != nil {
		return err
	}
	s.pendingRequest = req
	return s.callAPI()
}

// TheAppExitsWithinSeconds polls the process for exit after a shutdown
// request, confirming the coordinator actually drains and terminates.
func (s *StepContext) TheAppExitsWithinSeconds(seconds string) error {
	done := make(chan error, 1)
	go func() { done <- App.Wait() }()

	select {
	case <-done:
		return nil
	case <-time.After(parseSeconds(seconds)):
		return fmt.Errorf("app did not exit within %s seconds of shutdown", seconds)
	}
}

func (s *StepContext) StopApp() {
	if App != nil && App.Process != nil {
		_ = App.Process.Kill()
		_ = App.Wait()
	}
}
