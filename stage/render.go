package stage

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/auracorp/aurastudio/model"
	"github.com/auracorp/aurastudio/process"
)

// RenderOutput is the TimelineRender stage's artifact payload.
type RenderOutput struct {
	VideoPath string
}

var progressLinePattern = regexp.MustCompile(`out_time=(\d{2}):(\d{2}):(\d{2})`)

// parseProgressLine extracts a fractional completion in [0,1] from one
// encoder stderr line against a known target duration, or ok=false if the
// line carries no progress marker.
func parseProgressLine(line string, targetSeconds float64) (fraction float64, ok bool) {
	m := progressLinePattern.FindStringSubmatch(line)
	if m == nil || targetSeconds <= 0 {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	elapsed := float64(h*3600 + min*60 + sec)
	fraction = elapsed / targetSeconds
	if fraction > 1 {
		fraction = 1
	}
	return fraction, true
}

// writeConcatList builds an ffmpeg concat-demuxer input file, one entry
// per image, each shown for durationSeconds.
func writeConcatList(dir string, images []string, durationSeconds float64) (string, error) {
	path := filepath.Join(dir, "concat-list.txt")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, img := range images {
		fmt.Fprintf(w, "file '%s'\nduration %.3f\n", img, durationSeconds)
	}
	if len(images) > 0 {
		fmt.Fprintf(w, "file '%s'\n", images[len(images)-1])
	}
	return path, w.Flush()
}

// RunTimelineRender composes narration and visuals into an intermediate
// video by invoking the encoder binary, reporting progress parsed from its
// stderr and normalized against the target duration.
func RunTimelineRender(ctx context.Context, sup *process.Supervisor, encoderName string, narrationPath string, imagePaths []string, plan model.PlanSpec, render model.RenderSpec, workDir string, sink Sink) (RenderOutput, error) {
	sink.Report(Update{Percent: 0, Message: "rendering timeline"})

	perImage := plan.TargetDurationSeconds / float64(len(imagePaths))
	concatList, err := writeConcatList(workDir, imagePaths, perImage)
	if err != nil {
		return RenderOutput{}, err
	}

	outPath := filepath.Join(workDir, "intermediate.mp4")
	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", concatList, "-i", narrationPath}
	args = append(args, sceneCutFlagArg(render)...)
	args = append(args,
		"-c:v", "libx264", "-c:a", "aac",
		"-shortest",
		"-progress", "pipe:2", "-nostats",
		outPath,
	)

	h, err := sup.Spawn(ctx, encoderName, args, nil, workDir)
	if err != nil {
		return RenderOutput{}, err
	}

	for line := range h.Stderr() {
		if frac, ok := parseProgressLine(line, plan.TargetDurationSeconds); ok {
			sink.Report(Update{Percent: frac * 100, Message: "rendering"})
		}
	}

	if err := h.Wait(); err != nil {
		return RenderOutput{}, fmt.Errorf("encoder exited with error: %w", err)
	}

	sink.Report(Update{Percent: 100, Message: "render complete"})
	return RenderOutput{VideoPath: outPath}, nil
}

// sceneCutFlagArg renders the -sc_threshold argument pair for a RenderSpec's
// scene-cut detection toggle.
func sceneCutFlagArg(spec model.RenderSpec) []string {
	if spec.SceneCut {
		return []string{"-sc_threshold", "40"}
	}
	return []string{"-sc_threshold", "0"}
}
