package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
	"github.com/manthysbr/ianfluencer/internal/core/ports"
)

// Config for the images endpoint. Credentials are shared with the text API.
type Config struct {
	BaseURL      string
	APIKey       string
	Organization string
	Model        string
	Size         string
	Timeout      time.Duration
}

// OpenAIImageProvider implements image generation via OpenAI-compatible API.
// Expected endpoint: POST {baseURL}/images/generations
// Expected response: {"data":[{"url":"https://..."}]}
type OpenAIImageProvider struct {
	client       *http.Client
	baseURL      string
	apiKey       string
	organization string
	model        string
	size         string
}

var _ ports.ImageRenderer = (*OpenAIImageProvider)(nil)

func NewOpenAIImageProvider(cfg Config) *OpenAIImageProvider {
	if cfg.Model == "" {
		cfg.Model = "gpt-image-1"
	}
	if cfg.Size == "" {
		cfg.Size = "1024x1024"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &OpenAIImageProvider{
		client:       &http.Client{Timeout: cfg.Timeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		organization: cfg.Organization,
		model:        cfg.Model,
		size:         cfg.Size,
	}
}

func (p *OpenAIImageProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/images/generations", p.baseURL)

	payload := map[string]interface{}{
		"model":  p.model,
		"prompt": prompt,
		"size":   p.size,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "marshal image payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payloadBytes))
	if err != nil {
		return "", errors.Wrap(err, "create image request")
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	if p.organization != "" {
		req.Header.Set("OpenAI-Organization", p.organization)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", errors.Wrap(domain.ErrTimeout, "calling image API")
		}
		return "", errors.WithDetail(errors.Wrap(domain.ErrTransport, "calling image API"), err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errors.WithDetail(
			errors.Wrapf(domain.ErrTransport, "image API returned status %d", resp.StatusCode),
			string(body),
		)
	}

	var result struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errors.WithDetail(errors.Wrap(domain.ErrTransport, "decode image API response"), err.Error())
	}

	if len(result.Data) == 0 || strings.TrimSpace(result.Data[0].URL) == "" {
		return "", errors.Wrap(domain.ErrEmptyResponse, "image API returned no image URL")
	}

	return result.Data[0].URL, nil
}
