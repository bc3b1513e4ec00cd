package stage

import (
	"context"
	"strings"

	"github.com/auracorp/aurastudio/model"
	"github.com/auracorp/aurastudio/provider"
)

// VisualsOutput is the Visuals stage's artifact payload.
type VisualsOutput struct {
	ImagePaths []string
}

// SceneCount derives the number of logical scenes for the video. When the
// script carried markdown headings, each heading is a scene boundary and
// headingCount wins; otherwise scenes fall back to one per blank-line-
// separated paragraph in the cleaned script. Either way the floor is 1.
func SceneCount(cleanedScript string, headingCount int) int {
	if headingCount > 0 {
		return headingCount
	}

	paragraphs := strings.Split(cleanedScript, "\n\n")
	n := 0
	for _, p := range paragraphs {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	if n < 1 {
		return 1
	}
	return n
}

// RunVisuals calls the resolved visuals provider to produce one image per
// logical scene.
func RunVisuals(ctx context.Context, visuals provider.VisualsProvider, cleanedScript string, headingCount int, brief model.Brief, sink Sink) (VisualsOutput, error) {
	sink.Report(Update{Percent: 0, Message: "generating visuals"})

	count := SceneCount(cleanedScript, headingCount)
	paths, err := visuals.Generate(ctx, brief.TrimmedTopic(), string(brief.AspectRatio), count)
	if err != nil {
		return VisualsOutput{}, err
	}

	sink.Report(Update{Percent: 100, Message: "visuals complete"})
	return VisualsOutput{ImagePaths: paths}, nil
}
