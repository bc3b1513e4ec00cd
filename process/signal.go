package process

import (
	"os"
	"syscall"
)

// terminateSignal is the graceful-shutdown signal sent before the hard
// kill; SIGTERM gives well-behaved encoders a chance to flush output.
func terminateSignal() os.Signal {
	return syscall.SIGTERM
}
