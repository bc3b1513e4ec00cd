// Package provider implements the capability registry and the deterministic,
// pure provider resolver: given a capability, a tier, and the offline-only
// flag, it picks exactly one registered provider from a fixed downgrade
// chain, or reports the one documented error shape. Resolution never makes
// network calls and never throws outside that documented error.
package provider

import "context"

// Capability identifies one pipeline stage's provider category.
type Capability string

const (
	LLM     Capability = "llm"
	TTS     Capability = "tts"
	Visuals Capability = "visuals"
)

// VoiceSpec is the narration configuration handed to a TTS provider.
type VoiceSpec struct {
	Voice             string
	Rate              float64
	Pitch             float64
	InterSentencePause float64
}

// AudioMetadata describes a synthesized narration track.
type AudioMetadata struct {
	Path            string
	DurationSeconds float64
}

// LLMProvider generates text from a system/user prompt pair.
type LLMProvider interface {
	Name() string
	Generate(ctx context.Context, systemPrompt, userPrompt string, params map[string]string) (string, error)
	Available(ctx context.Context) bool
}

// TTSProvider synthesizes narration audio for a script.
type TTSProvider interface {
	Name() string
	Synthesize(ctx context.Context, text string, voice VoiceSpec, outPath string) (AudioMetadata, error)
	Available(ctx context.Context) bool
}

// VisualsProvider produces one image per requested scene.
type VisualsProvider interface {
	Name() string
	Generate(ctx context.Context, prompt string, aspect string, count int) ([]string, error)
	Available(ctx context.Context) bool
}
