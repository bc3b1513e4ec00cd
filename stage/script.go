package stage

import (
	"context"
	"fmt"

	"github.com/auracorp/aurastudio/model"
	"github.com/auracorp/aurastudio/provider"
)

// ScriptOutput is the Script stage's artifact payload.
type ScriptOutput struct {
	Cleaned      string
	HeadingCount int
}

// RunScript calls the resolved LLM provider and returns the cleaned
// narration text. It fails if fewer than one non-empty line survives
// cleaning.
func RunScript(ctx context.Context, llm provider.LLMProvider, brief model.Brief, plan model.PlanSpec, sink Sink) (ScriptOutput, error) {
	sink.Report(Update{Percent: 0, Message: "generating script"})

	systemPrompt := fmt.Sprintf("Write a %s, %s-paced narration script for a %s-second video.", plan.Style, plan.Pacing, durationLabel(plan))
	userPrompt := fmt.Sprintf("Topic: %s\nAudience: %s\nGoal: %s\nTone: %s", brief.TrimmedTopic(), brief.Audience, brief.Goal, brief.Tone)

	raw, err := llm.Generate(ctx, systemPrompt, userPrompt, nil)
	if err != nil {
		return ScriptOutput{}, err
	}

	cleaned := Clean(raw)
	if NonEmptyLineCount(cleaned) < 1 {
		return ScriptOutput{}, fmt.Errorf("script stage produced no usable narration lines after cleaning")
	}

	sink.Report(Update{Percent: 100, Message: "script complete"})
	return ScriptOutput{Cleaned: cleaned, HeadingCount: HeadingCount(raw)}, nil
}

func durationLabel(plan model.PlanSpec) string {
	return fmt.Sprintf("%.0f", plan.TargetDurationSeconds)
}
