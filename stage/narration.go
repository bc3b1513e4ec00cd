package stage

import (
	"context"

	"github.com/auracorp/aurastudio/model"
	"github.com/auracorp/aurastudio/provider"
)

// NarrationOutput is the Narration stage's artifact payload.
type NarrationOutput struct {
	AudioPath       string
	DurationSeconds float64
}

// RunNarration synthesizes the cleaned script into a single wav file using
// the resolved TTS provider.
func RunNarration(ctx context.Context, tts provider.TTSProvider, cleanedScript string, voice model.VoiceSpec, outPath string, sink Sink) (NarrationOutput, error) {
	sink.Report(Update{Percent: 0, Message: "synthesizing narration"})

	meta, err := tts.Synthesize(ctx, cleanedScript, provider.VoiceSpec{
		Voice:              voice.Voice,
		Rate:               voice.Rate,
		Pitch:              voice.Pitch,
		InterSentencePause: voice.InterSentencePause,
	}, outPath)
	if err != nil {
		return NarrationOutput{}, err
	}

	sink.Report(Update{Percent: 100, Message: "narration complete"})
	return NarrationOutput{AudioPath: outPath, DurationSeconds: meta.DurationSeconds}, nil
}
