package job

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/auracorp/aurastudio/config"
)

// withHeartbeat runs fn to completion, emitting a low-frequency keep-alive
// event on clk's ticker while fn is in flight. The heartbeat goroutine
// always exits when fn returns, whether it succeeds or faults.
func withHeartbeat(clk clock.Clock, j *Job, sink EventSink, stage Stage, fn func() error) error {
	started := clk.Now()
	done := make(chan heartbeatResult)
	go func() {
		err := fn()
		done <- heartbeatResult{err: err}
	}()

	ticker := clk.Ticker(config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case result := <-done:
			return result.err
		case <-ticker.C:
			elapsed := clk.Now().Sub(started)
			sink.Publish(Event{
				JobID:     j.ID,
				Type:      EventStepProgress,
				Stage:     stage,
				Percent:   j.Percent(),
				Message:   fmt.Sprintf("still working, elapsed %s", elapsed.Round(time.Second)),
				Timestamp: clk.Now(),
			})
		}
	}
}

type heartbeatResult struct {
	err error
}
