package provider

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/auracorp/aurastudio/process"
)

// PiperTTS synthesizes narration by shelling out to a local piper binary
// (the same text-to-speech-over-stdin contract mimic3 also uses, so one
// subprocess-invocation shape here serves both the mimic3 and piper
// entries in the downgrade chain; no windows TTS provider is registered).
type PiperTTS struct {
	ProviderName string
	BinaryName   string
	Supervisor   *process.Supervisor
}

func NewPiperTTS(name, binaryName string, sup *process.Supervisor) *PiperTTS {
	return &PiperTTS{ProviderName: name, BinaryName: binaryName, Supervisor: sup}
}

func (p *PiperTTS) Name() string { return p.ProviderName }

func (p *PiperTTS) Available(ctx context.Context) bool {
	h, err := p.Supervisor.Spawn(ctx, p.BinaryName, []string{"--version"}, nil, "")
	if err != nil {
		return false
	}
	defer p.Supervisor.Kill(h)
	return h.Wait() == nil
}

func (p *PiperTTS) Synthesize(ctx context.Context, text string, voice VoiceSpec, outPath string) (AudioMetadata, error) {
	args := []string{"--model", voice.Voice, "--output_file", outPath}
	h, err := p.Supervisor.Spawn(ctx, p.BinaryName, args, nil, "")
	if err != nil {
		return AudioMetadata{}, fmt.Errorf("%s: %w", p.ProviderName, err)
	}

	if err := writeStdinAndClose(h, text); err != nil {
		p.Supervisor.Kill(h)
		return AudioMetadata{}, err
	}

	go drainStderrLines(h)
	if err := h.Wait(); err != nil {
		return AudioMetadata{}, fmt.Errorf("%s: %w", p.ProviderName, err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return AudioMetadata{}, fmt.Errorf("%s: output file missing: %w", p.ProviderName, err)
	}
	if info.Size() == 0 {
		return AudioMetadata{}, fmt.Errorf("%s: produced empty audio", p.ProviderName)
	}

	return AudioMetadata{Path: outPath, DurationSeconds: EstimateReadSeconds(text)}, nil
}

func writeStdinAndClose(h *process.Handle, text string) error {
	stdin := h.Stdin()
	if stdin == nil {
		return fmt.Errorf("subprocess has no stdin pipe")
	}
	if _, err := stdin.Write([]byte(strings.TrimSpace(text) + "\n")); err != nil {
		return err
	}
	return stdin.Close()
}

func drainStderrLines(h *process.Handle) {
	for range h.Stderr() {
	}
}
