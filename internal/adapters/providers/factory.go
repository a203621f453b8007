package providers

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/manthysbr/ianfluencer/internal/adapters/imagegen"
	"github.com/manthysbr/ianfluencer/internal/adapters/llm"
	"github.com/manthysbr/ianfluencer/internal/core/domain"
	"github.com/manthysbr/ianfluencer/internal/core/ports"
)

// Build creates the generative client and, when enabled, the image renderer.
// The renderer is nil when image rendering is off.
func Build(config *domain.AppConfig) (ports.GenerativeClient, ports.ImageRenderer, error) {
	if config == nil {
		config = domain.DefaultConfig()
	}

	client, err := buildGenerativeClient(config)
	if err != nil {
		return nil, nil, err
	}

	if !config.Image.Enabled {
		return client, nil, nil
	}
	return client, buildImageRenderer(config), nil
}

func buildGenerativeClient(config *domain.AppConfig) (*llm.OpenAIClient, error) {
	g := config.Generative
	baseURL := strings.TrimSpace(g.BaseURL)
	if baseURL == "" {
		return nil, errors.New("generative base_url is required")
	}
	return llm.NewOpenAIClient(llm.Config{
		BaseURL:           baseURL,
		APIKey:            strings.TrimSpace(g.APIKey),
		Organization:      strings.TrimSpace(g.Organization),
		Model:             strings.TrimSpace(g.Model),
		MaxTokens:         g.MaxTokens,
		Timeout:           g.Timeout,
		RequestsPerMinute: g.RequestsPerMinute,
	}), nil
}

func buildImageRenderer(config *domain.AppConfig) *imagegen.OpenAIImageProvider {
	baseURL := strings.TrimSpace(config.Image.BaseURL)
	if baseURL == "" {
		baseURL = strings.TrimSpace(config.Generative.BaseURL)
	}
	return imagegen.NewOpenAIImageProvider(imagegen.Config{
		BaseURL:      baseURL,
		APIKey:       strings.TrimSpace(config.Generative.APIKey),
		Organization: strings.TrimSpace(config.Generative.Organization),
		Model:        strings.TrimSpace(config.Image.Model),
		Size:         strings.TrimSpace(config.Image.Size),
		Timeout:      config.Image.Timeout,
	})
}
