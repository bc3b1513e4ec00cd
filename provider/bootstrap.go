package provider

import (
	"fmt"
	"os"

	"github.com/auracorp/aurastudio/process"
)

// Bootstrap unconditionally registers the three terminal fallbacks at
// startup. There is no reflection-based emergency-fallback path: if
// constructing a terminal fallback fails, startup aborts rather than
// running with a silently degraded capability.
func Bootstrap(reg *Registry, sup *process.Supervisor, encoderName, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("provider bootstrap: cannot prepare slideshow output dir: %w", err)
	}

	reg.RegisterLLM(NewRuleBasedLLM())
	reg.RegisterTTS(NewNullTTS())
	reg.RegisterVisuals(NewSlideshow(sup, encoderName, outputDir))
	return nil
}
