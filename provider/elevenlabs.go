package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/auracorp/aurastudio/config"
)

// HTTPTTS is a generic HTTP-backed TTS provider for services that accept a
// JSON request and return raw audio bytes (ElevenLabs and PlayHT both fit
// this shape).
type HTTPTTS struct {
	ProviderName string
	BaseURL      string
	APIKey       string
	client       *retryablehttp.Client
}

func NewHTTPTTS(name, baseURL, apiKey string) *HTTPTTS {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.HTTPClient.Timeout = config.StageTimeoutTTS + config.HTTPClientTimeoutBuffer
	client.Logger = nil
	return &HTTPTTS{ProviderName: name, BaseURL: baseURL, APIKey: apiKey, client: client}
}

func (h *HTTPTTS) Name() string { return h.ProviderName }

func (h *HTTPTTS) Available(ctx context.Context) bool {
	return h.APIKey != ""
}

type ttsRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice"`
	Rate  float64 `json:"rate"`
	Pitch float64 `json:"pitch"`
}

func (h *HTTPTTS) Synthesize(ctx context.Context, text string, voice VoiceSpec, outPath string) (AudioMetadata, error) {
	body, err := json.Marshal(ttsRequest{Text: text, Voice: voice.Voice, Rate: voice.Rate, Pitch: voice.Pitch})
	if err != nil {
		return AudioMetadata{}, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/text-to-speech", bytes.NewReader(body))
	if err != nil {
		return AudioMetadata{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", h.APIKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return AudioMetadata{}, fmt.Errorf("%s: request failed: %w", h.ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return AudioMetadata{}, fmt.Errorf("%s: unexpected status %d: %s", h.ProviderName, resp.StatusCode, string(b))
	}

	f, err := os.Create(outPath)
	if err != nil {
		return AudioMetadata{}, err
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return AudioMetadata{}, err
	}
	if n == 0 {
		return AudioMetadata{}, fmt.Errorf("%s: empty audio response", h.ProviderName)
	}

	return AudioMetadata{Path: outPath, DurationSeconds: EstimateReadSeconds(text)}, nil
}
