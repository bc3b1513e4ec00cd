package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/auracorp/aurastudio/config"
)

var stopWords = map[string]bool{
	"the": true, "and": true, "with": true, "from": true, "that": true,
	"this": true, "have": true, "will": true, "your": true, "about": true,
	"into": true, "their": true, "they": true, "them": true, "were": true,
	"what": true, "when": true, "where": true, "which": true, "while": true,
}

var wordPattern = regexp.MustCompile(`[A-Za-z']+`)

// Keywords extracts 1-5 content keywords from a prompt: stop-word
// filtered, longer than 3 characters, in order of first appearance.
func Keywords(prompt string) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range wordPattern.FindAllString(prompt, -1) {
		lw := strings.ToLower(w)
		if len(lw) <= 3 || stopWords[lw] || seen[lw] {
			continue
		}
		seen[lw] = true
		out = append(out, lw)
		if len(out) == 5 {
			break
		}
	}
	return out
}

// orientationTag maps an aspect ratio to the query tag a stock-photo API
// uses to filter its orientation facet.
func orientationTag(aspect string) string {
	switch aspect {
	case "9:16":
		return "vertical"
	case "1:1":
		return "square"
	case "4:3":
		return "standard"
	default:
		return "horizontal"
	}
}

// StockVisuals queries a stock-photo search API for images matching
// keywords extracted from the scene prompt.
type StockVisuals struct {
	ProviderName string
	BaseURL      string
	APIKey       string
	OutputDir    string
	client       *retryablehttp.Client
}

func NewStockVisuals(name, baseURL, apiKey, outputDir string) *StockVisuals {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.HTTPClient.Timeout = config.StageTimeoutVisualsPerImg + config.HTTPClientTimeoutBuffer
	client.Logger = nil
	return &StockVisuals{ProviderName: name, BaseURL: baseURL, APIKey: apiKey, OutputDir: outputDir, client: client}
}

func (s *StockVisuals) Name() string { return s.ProviderName }

func (s *StockVisuals) Available(ctx context.Context) bool {
	return s.APIKey != ""
}

type stockSearchResponse struct {
	Results []struct {
		URL string `json:"url"`
	} `json:"results"`
}

func (s *StockVisuals) Generate(ctx context.Context, prompt string, aspect string, count int) ([]string, error) {
	keywords := Keywords(prompt)
	query := strings.Join(keywords, " ")
	orientation := orientationTag(aspect)

	url := fmt.Sprintf("%s/search?query=%s&orientation=%s&per_page=%d", s.BaseURL, query, orientation, count)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", s.ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", s.ProviderName, resp.StatusCode)
	}

	var out stockSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", s.ProviderName, err)
	}
	if len(out.Results) == 0 {
		return nil, fmt.Errorf("%s: no matching images for %q", s.ProviderName, query)
	}

	var paths []string
	for i, r := range out.Results {
		if i >= count {
			break
		}
		path, err := s.download(ctx, r.URL, i)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (s *StockVisuals) download(ctx context.Context, url string, index int) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	path := filepath.Join(s.OutputDir, fmt.Sprintf("scene-%03d.jpg", index))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.ReadFrom(resp.Body); err != nil {
		return "", err
	}
	return path, nil
}
