package provider

import (
	"os"
	"os/exec"

	"github.com/auracorp/aurastudio/process"
)

// RegisterConfigured wires up every optional online/local provider whose
// credentials or binary are present in the environment. Missing
// credentials simply mean that provider is never registered; the resolver
// chains already tolerate gaps, falling through to the next candidate.
func RegisterConfigured(reg *Registry, sup *process.Supervisor, outputDir string) {
	if key := os.Getenv("AURASTUDIO_OPENAI_API_KEY"); key != "" {
		reg.RegisterLLM(NewHTTPLLM("openai", "https://api.openai.com/v1", key, "gpt-4o-mini"))
	}
	if key := os.Getenv("AURASTUDIO_AZURE_OPENAI_API_KEY"); key != "" {
		if base := os.Getenv("AURASTUDIO_AZURE_OPENAI_BASE_URL"); base != "" {
			reg.RegisterLLM(NewHTTPLLM("azure", base, key, "gpt-4o-mini"))
		}
	}
	if key := os.Getenv("AURASTUDIO_GEMINI_API_KEY"); key != "" {
		reg.RegisterLLM(NewHTTPLLM("gemini", "https://generativelanguage.googleapis.com/v1beta/openai", key, "gemini-1.5-flash"))
	}
	if _, err := exec.LookPath("ollama"); err == nil {
		reg.RegisterLLM(NewHTTPLLM("ollama", "http://localhost:11434/v1", "ollama", "llama3"))
	}

	if key := os.Getenv("AURASTUDIO_ELEVENLABS_API_KEY"); key != "" {
		reg.RegisterTTS(NewHTTPTTS("elevenlabs", "https://api.elevenlabs.io/v1", key))
	}
	if key := os.Getenv("AURASTUDIO_PLAYHT_API_KEY"); key != "" {
		reg.RegisterTTS(NewHTTPTTS("playht", "https://api.play.ht/api/v2", key))
	}
	for _, local := range []string{"mimic3", "piper"} {
		if _, err := exec.LookPath(local); err == nil {
			reg.RegisterTTS(NewPiperTTS(local, local, sup))
		}
	}

	if key := os.Getenv("AURASTUDIO_STABILITY_API_KEY"); key != "" {
		reg.RegisterVisuals(NewHTTPVisuals("stability", "https://api.stability.ai/v2beta", key, outputDir))
	}
	if key := os.Getenv("AURASTUDIO_RUNWAY_API_KEY"); key != "" {
		reg.RegisterVisuals(NewHTTPVisuals("runway", "https://api.runwayml.com/v1", key, outputDir))
	}
	if key := os.Getenv("AURASTUDIO_STOCK_API_KEY"); key != "" {
		reg.RegisterVisuals(NewStockVisuals("stock", "https://api.pexels.com/v1", key, outputDir))
	}
}
