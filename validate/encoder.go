package validate

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// locateEncoder resolves the encoder binary to an absolute (or PATH-relative)
// path, trying the operator's explicit configuration first, then PATH, then
// the platform's well-known install location. It returns an empty string if
// none is discoverable.
func locateEncoder(configuredPath, wellKnownPath string) string {
	for _, candidate := range []string{configuredPath, "ffmpeg", wellKnownPath} {
		if candidate == "" {
			continue
		}
		if path, err := exec.LookPath(candidate); err == nil {
			return path
		}
	}
	return ""
}

// probeEncoderVersion shells out to the encoder's -version flag, retrying
// transient failures with backoff, and returns the parsed dotted version.
func probeEncoderVersion(ctx context.Context, encoderPath string) (string, error) {
	var out []byte
	operation := func() error {
		cmd := exec.CommandContext(ctx, encoderPath, "-version")
		o, err := cmd.Output()
		out = o
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0
	if err := backoff.Retry(operation, backoff.WithMaxRetries(b, 3)); err != nil {
		return "", fmt.Errorf("probing encoder version: %w", err)
	}

	match := versionPattern.FindStringSubmatch(string(out))
	if match == nil {
		return "", fmt.Errorf("could not parse encoder version from output")
	}
	return strings.TrimSuffix(fmt.Sprintf("%s.%s.%s", match[1], match[2], orZero(match[3])), ".0"), nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// VersionAtLeast compares two dotted version strings numerically,
// component by component; a missing trailing component is treated as 0.
// Exported so the encoder-status endpoint can reuse the same comparator.
func VersionAtLeast(version, min string) bool {
	return versionAtLeast(version, min)
}

func versionAtLeast(version, min string) bool {
	v := splitVersion(version)
	m := splitVersion(min)
	for i := 0; i < len(v) || i < len(m); i++ {
		var a, b int
		if i < len(v) {
			a = v[i]
		}
		if i < len(m) {
			b = m[i]
		}
		if a != b {
			return a > b
		}
	}
	return true
}

func splitVersion(s string) []int {
	parts := strings.Split(s, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		var n int
		fmt.Sscanf(p, "%d", &n)
		out[i] = n
	}
	return out
}
