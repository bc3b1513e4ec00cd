package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/auracorp/aurastudio/model"
)

type fakeLLM struct {
	text string
	err  error
}

func (f fakeLLM) Name() string                    { return "fake" }
func (f fakeLLM) Available(ctx context.Context) bool { return true }
func (f fakeLLM) Generate(ctx context.Context, sys, user string, params map[string]string) (string, error) {
	return f.text, f.err
}

func TestRunScriptCleansOutput(t *testing.T) {
	llm := fakeLLM{text: "## Intro\nHello there. [PAUSE]\nWord Count: 2"}
	var updates []Update
	sink := SinkFunc(func(u Update) { updates = append(updates, u) })

	out, err := RunScript(context.Background(), llm, model.Brief{Topic: "solar panels"}, model.PlanSpec{TargetDurationSeconds: 60}, sink)
	require.NoError(t, err)
	require.Contains(t, out.Cleaned, "Hello there.")
	require.NotContains(t, out.Cleaned, "Word Count")
	require.NotContains(t, out.Cleaned, "Intro")
	require.Equal(t, 1, out.HeadingCount)
	require.Equal(t, 100.0, updates[len(updates)-1].Percent)
}

func TestRunScriptFailsOnEmptyAfterCleaning(t *testing.T) {
	llm := fakeLLM{text: "Word Count: 2\n---\nTTS Pacing: fast"}
	out, err := RunScript(context.Background(), llm, model.Brief{Topic: "x"}, model.PlanSpec{TargetDurationSeconds: 60}, SinkFunc(func(Update) {}))
	require.Error(t, err)
	require.Empty(t, out.Cleaned)
}
