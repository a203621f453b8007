package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
	"github.com/manthysbr/ianfluencer/internal/core/ports"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 1000
	defaultTimeout   = 60 * time.Second
	maxErrorBody     = 512
)

// Config holds the process-wide credentials and call defaults.
type Config struct {
	BaseURL           string
	APIKey            string
	Organization      string
	Model             string
	MaxTokens         int
	Timeout           time.Duration
	RequestsPerMinute int // 0 disables client-side limiting
}

// OpenAIClient calls an OpenAI-compatible chat completions API.
// Works with: OpenAI, Azure OpenAI, Together AI, local Ollama /v1, etc.
// It holds no mutable state besides the rate limiter.
type OpenAIClient struct {
	client       *http.Client
	baseURL      string
	apiKey       string
	organization string
	model        string
	maxTokens    int
	timeout      time.Duration
	limiter      *rate.Limiter
}

var _ ports.GenerativeClient = (*OpenAIClient)(nil)

// NewOpenAIClient creates a new OpenAI-compatible client
func NewOpenAIClient(cfg Config) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}

	return &OpenAIClient{
		// Per-call deadlines come from the request context.
		client:       &http.Client{},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		organization: cfg.Organization,
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		timeout:      cfg.Timeout,
		limiter:      limiter,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *domain.TokenUsage `json:"usage"`
}

// Generate sends one chat completion request bounded by req.Timeout
// (or the configured default) and decodes the reply for req.Kind.
// It never retries.
func (c *OpenAIClient) Generate(ctx context.Context, req domain.CallRequest) (domain.GenerationResult, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	if c.limiter != nil {
		// Wait fails early when the next token would land past the deadline.
		if err := c.limiter.Wait(callCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return domain.GenerationResult{}, errors.Wrap(err, "waiting for rate limiter")
			}
			return domain.GenerationResult{}, errors.Wrap(domain.ErrTimeout, "waiting for rate limiter")
		}
	}

	payload, err := json.Marshal(chatRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return domain.GenerationResult{}, errors.Wrap(err, "marshal chat request")
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return domain.GenerationResult{}, errors.Wrap(err, "create chat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", c.organization)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return domain.GenerationResult{}, classify(callCtx, err, "calling chat completions")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.GenerationResult{}, errors.WithDetailf(
			errors.Wrapf(domain.ErrTransport, "api returned status %d", resp.StatusCode),
			"body: %s", strings.TrimSpace(string(body)),
		)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.GenerationResult{}, classify(callCtx, err, "decoding chat response")
	}

	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return domain.GenerationResult{}, domain.ErrEmptyResponse
	}

	result, err := decodeResult(req.Kind, decoded.Choices[0].Message.Content)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	result.Latency = time.Since(start)
	result.Usage = decoded.Usage
	return result, nil
}

// classify maps a low-level failure onto the generation error taxonomy.
func classify(ctx context.Context, err error, op string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(domain.ErrTimeout, op)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(domain.ErrTimeout, op)
	}
	return errors.WithDetail(errors.Wrap(domain.ErrTransport, op), err.Error())
}
