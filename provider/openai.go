package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/auracorp/aurastudio/config"
)

// HTTPLLM is a generic HTTP-backed LLM provider: one JSON request/response
// shape shared by OpenAI-compatible chat-completion endpoints (OpenAI,
// Azure OpenAI, and Gemini's OpenAI-compatibility layer all speak close
// enough to this shape that one client covers them, distinguished only by
// name, base URL, and API key).
type HTTPLLM struct {
	ProviderName string
	BaseURL      string
	APIKey       string
	Model        string
	client       *retryablehttp.Client
}

func NewHTTPLLM(name, baseURL, apiKey, model string) *HTTPLLM {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.HTTPClient.Timeout = config.StageTimeoutLLM + config.HTTPClientTimeoutBuffer
	client.Logger = nil
	return &HTTPLLM{ProviderName: name, BaseURL: baseURL, APIKey: apiKey, Model: model, client: client}
}

func (h *HTTPLLM) Name() string { return h.ProviderName }

func (h *HTTPLLM) Available(ctx context.Context) bool {
	if h.APIKey == "" {
		return false
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+"/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+h.APIKey)
	resp, err := h.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (h *HTTPLLM) Generate(ctx context.Context, systemPrompt, userPrompt string, params map[string]string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: h.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/chat/completions", bytes.NewReader(body))
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
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%s: unexpected status %d: %s", h.ProviderName, resp.StatusCode, string(b))
	}

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: decoding response: %w", h.ProviderName, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s: empty completion", h.ProviderName)
	}
	return out.Choices[0].Message.Content, nil
}
