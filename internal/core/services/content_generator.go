package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
	"github.com/manthysbr/ianfluencer/internal/core/ports"
)

// GenerationPolicy is the token and timeout budget applied to every call.
type GenerationPolicy struct {
	MaxTokens int
	Timeout   time.Duration
}

// ContentGenerator composes the prompt builder and the generative client.
// It keeps no per-call state and is safe for concurrent use. Client errors
// are returned unchanged.
type ContentGenerator struct {
	logger  *slog.Logger
	prompts *PromptBuilder
	client  ports.GenerativeClient
	policy  GenerationPolicy
}

func NewContentGenerator(logger *slog.Logger, client ports.GenerativeClient, policy GenerationPolicy) *ContentGenerator {
	if policy.MaxTokens <= 0 {
		policy.MaxTokens = 1000
	}
	if policy.Timeout <= 0 {
		policy.Timeout = 60 * time.Second
	}
	return &ContentGenerator{
		logger:  logger,
		prompts: NewPromptBuilder(),
		client:  client,
		policy:  policy,
	}
}

func (g *ContentGenerator) GenerateProfile(ctx context.Context, characteristics domain.ProfileContext) (domain.ProfileResult, error) {
	res, err := g.generate(ctx, domain.GenerationRequest{Kind: domain.KindProfile, Profile: &characteristics})
	if err != nil {
		return domain.ProfileResult{}, err
	}
	if res.Profile == nil {
		return domain.ProfileResult{}, errors.Wrap(domain.ErrEmptyResponse, "no profile in result")
	}
	if err := res.Profile.Validate(); err != nil {
		return domain.ProfileResult{}, err
	}
	return *res.Profile, nil
}

func (g *ContentGenerator) GeneratePost(ctx context.Context, post domain.PostContext) (domain.PostResult, error) {
	res, err := g.generate(ctx, domain.GenerationRequest{Kind: domain.KindPost, Post: &post})
	if err != nil {
		return domain.PostResult{}, err
	}
	if res.Post == nil {
		return domain.PostResult{}, errors.Wrap(domain.ErrEmptyResponse, "no post in result")
	}
	return *res.Post, nil
}

func (g *ContentGenerator) GenerateComment(ctx context.Context, comment domain.CommentContext) (domain.CommentResult, error) {
	res, err := g.generate(ctx, domain.GenerationRequest{Kind: domain.KindComment, Comment: &comment})
	if err != nil {
		return domain.CommentResult{}, err
	}
	return domain.CommentResult{Content: res.Text}, nil
}

// GenerateImagePrompt merges a subject description and style hints into a
// prompt suitable for an image generation API.
func (g *ContentGenerator) GenerateImagePrompt(ctx context.Context, description string, styleHints map[string]string) (string, error) {
	res, err := g.generate(ctx, domain.GenerationRequest{
		Kind:  domain.KindImagePrompt,
		Image: &domain.ImagePromptContext{SubjectDescription: description, StyleHints: styleHints},
	})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (g *ContentGenerator) generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	prompt, err := g.prompts.Build(req)
	if err != nil {
		return domain.GenerationResult{}, err
	}

	res, err := g.client.Generate(ctx, domain.CallRequest{
		Kind:      req.Kind,
		Prompt:    prompt,
		MaxTokens: g.policy.MaxTokens,
		Timeout:   g.policy.Timeout,
	})
	if err != nil {
		return domain.GenerationResult{}, err
	}

	attrs := []any{"kind", req.Kind, "latency_ms", res.Latency.Milliseconds()}
	if res.Usage != nil {
		attrs = append(attrs, "total_tokens", res.Usage.TotalTokens)
	}
	g.logger.Debug("generation completed", attrs...)
	return res, nil
}
