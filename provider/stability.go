package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/auracorp/aurastudio/config"
)

// HTTPVisuals is a generic HTTP-backed image-generation provider (fits
// Stability's and Runway's base64-image-in-JSON response shape).
type HTTPVisuals struct {
	ProviderName string
	BaseURL      string
	APIKey       string
	OutputDir    string
	client       *retryablehttp.Client
}

func NewHTTPVisuals(name, baseURL, apiKey, outputDir string) *HTTPVisuals {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.HTTPClient.Timeout = config.StageTimeoutVisualsPerImg + config.HTTPClientTimeoutBuffer
	client.Logger = nil
	return &HTTPVisuals{ProviderName: name, BaseURL: baseURL, APIKey: apiKey, OutputDir: outputDir, client: client}
}

func (h *HTTPVisuals) Name() string { return h.ProviderName }

func (h *HTTPVisuals) Available(ctx context.Context) bool {
	return h.APIKey != ""
}

type imageGenRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspectRatio"`
}

type imageGenResponse struct {
	Images []struct {
		Base64 string `json:"base64"`
	} `json:"images"`
}

func (h *HTTPVisuals) Generate(ctx context.Context, prompt string, aspect string, count int) ([]string, error) {
	var paths []string
	for i := 0; i < count; i++ {
		path, err := h.generateOne(ctx, prompt, aspect, i)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (h *HTTPVisuals) generateOne(ctx context.Context, prompt, aspect string, index int) (string, error) {
	body, err := json.Marshal(imageGenRequest{Prompt: prompt, AspectRatio: aspect})
	if err != nil {
		return "", err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.APIKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: request failed: %w", h.ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: unexpected status %d", h.ProviderName, resp.StatusCode)
	}

	var out imageGenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: decoding response: %w", h.ProviderName, err)
	}
	if len(out.Images) == 0 {
		return "", fmt.Errorf("%s: empty image response", h.ProviderName)
	}

	raw, err := base64.StdEncoding.DecodeString(out.Images[0].Base64)
	if err != nil {
		return "", fmt.Errorf("%s: decoding image payload: %w", h.ProviderName, err)
	}

	path := filepath.Join(h.OutputDir, fmt.Sprintf("scene-%03d.png", index))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
