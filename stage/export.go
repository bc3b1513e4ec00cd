package stage

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/auracorp/aurastudio/model"
	"github.com/auracorp/aurastudio/process"
)

// ExportOutput is the Export stage's artifact payload.
type ExportOutput struct {
	VideoPath string
	SizeBytes int64
}

// Preset is one entry in the closed platform-preset table.
type Preset struct {
	Name         string
	Width        int
	Height       int
	Codec        string
	VideoBitrate int
	FPS          int
	Aspect       model.AspectRatio
}

// Presets is the closed set of export targets; there is no dynamic preset
// catalog, by design (the catalog itself lives outside this system).
var Presets = map[string]Preset{
	"youtube-1080p": {Name: "youtube-1080p", Width: 1920, Height: 1080, Codec: "h264", VideoBitrate: 8_000_000, FPS: 30, Aspect: model.Aspect16x9},
	"youtube-shorts": {Name: "youtube-shorts", Width: 1080, Height: 1920, Codec: "h264", VideoBitrate: 6_000_000, FPS: 30, Aspect: model.Aspect9x16},
	"tiktok":         {Name: "tiktok", Width: 1080, Height: 1920, Codec: "h264", VideoBitrate: 5_000_000, FPS: 30, Aspect: model.Aspect9x16},
	"instagram-square": {Name: "instagram-square", Width: 1080, Height: 1080, Codec: "h264", VideoBitrate: 5_000_000, FPS: 30, Aspect: model.Aspect1x1},
	"standard-4x3":   {Name: "standard-4x3", Width: 1440, Height: 1080, Codec: "h264", VideoBitrate: 6_000_000, FPS: 30, Aspect: model.Aspect4x3},
}

// RunExport transcodes an intermediate video per a chosen platform preset.
func RunExport(ctx context.Context, sup *process.Supervisor, encoderName string, intermediatePath string, presetName string, workDir string, sink Sink) (ExportOutput, error) {
	preset, ok := Presets[presetName]
	if !ok {
		return ExportOutput{}, fmt.Errorf("unknown export preset %q", presetName)
	}

	sink.Report(Update{Percent: 0, Message: "exporting"})

	outPath := filepath.Join(workDir, preset.Name+"-final.mp4")
	args := []string{
		"-y",
		"-i", intermediatePath,
		"-vf", fmt.Sprintf("scale=%d:%d", preset.Width, preset.Height),
		"-r", strconv.Itoa(preset.FPS),
		"-c:v", preset.Codec,
		"-b:v", strconv.Itoa(preset.VideoBitrate),
		"-c:a", "aac",
		"-progress", "pipe:2", "-nostats",
		outPath,
	}

	h, err := sup.Spawn(ctx, encoderName, args, nil, workDir)
	if err != nil {
		return ExportOutput{}, err
	}

	for range h.Stderr() {
		sink.Report(Update{Percent: 50, Message: "exporting"})
	}

	if err := h.Wait(); err != nil {
		return ExportOutput{}, fmt.Errorf("encoder exited with error: %w", err)
	}

	size, err := fileSize(outPath)
	if err != nil {
		return ExportOutput{}, err
	}

	sink.Report(Update{Percent: 100, Message: "export complete"})
	return ExportOutput{VideoPath: outPath, SizeBytes: size}, nil
}
