package provider

import (
	"context"
	"fmt"
	"hash/fnv"
	"path/filepath"

	"github.com/auracorp/aurastudio/process"
)

// palette is a small, fixed set of solid colours cycled deterministically
// per scene so the same prompt always produces the same slideshow.
var palette = []string{"0x2B6CB0", "0x2F855A", "0x6B46C1", "0xC05621", "0xB83280", "0x2C7A7B"}

// Slideshow is the always-available terminal visuals fallback: it asks the
// already-present encoder binary to render solid-colour frames via its
// lavfi colour source, rather than hand-rolling image encoding. This keeps
// one "call the encoder" code path shared with TimelineRender/Export.
type Slideshow struct {
	Supervisor  *process.Supervisor
	EncoderName string
	OutputDir   string
}

func NewSlideshow(sup *process.Supervisor, encoderName, outputDir string) *Slideshow {
	return &Slideshow{Supervisor: sup, EncoderName: encoderName, OutputDir: outputDir}
}

func (s *Slideshow) Name() string { return "slideshow" }

func (s *Slideshow) Available(ctx context.Context) bool { return true }

func orientationSize(aspect string) (int, int) {
	switch aspect {
	case "9:16":
		return 1080, 1920
	case "1:1":
		return 1080, 1080
	case "4:3":
		return 1440, 1080
	default: // 16:9
		return 1920, 1080
	}
}

func (s *Slideshow) Generate(ctx context.Context, prompt string, aspect string, count int) ([]string, error) {
	width, height := orientationSize(aspect)
	paths := make([]string, 0, count)

	for i := 0; i < count; i++ {
		color := palette[sceneColorIndex(prompt, i)]
		outPath := filepath.Join(s.OutputDir, fmt.Sprintf("scene-%03d.png", i))
		args := []string{
			"-f", "lavfi",
			"-i", fmt.Sprintf("color=c=%s:s=%dx%d", color, width, height),
			"-frames:v", "1",
			"-y", outPath,
		}
		h, err := s.Supervisor.Spawn(ctx, s.EncoderName, args, nil, "")
		if err != nil {
			return nil, err
		}
		drainStderr(h)
		if err := h.Wait(); err != nil {
			return nil, fmt.Errorf("slideshow frame %d render failed: %w", i, err)
		}
		paths = append(paths, outPath)
	}
	return paths, nil
}

func drainStderr(h *process.Handle) {
	go func() {
		for range h.Stderr() {
		}
	}()
}

func sceneColorIndex(prompt string, scene int) int {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(prompt))
	return int(hasher.Sum32()+uint32(scene)) % len(palette)
}
