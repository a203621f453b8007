package domain

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// GenerationKind selects the prompt template and the response shape.
type GenerationKind string

const (
	KindProfile     GenerationKind = "profile"
	KindPost        GenerationKind = "post"
	KindComment     GenerationKind = "comment"
	KindImagePrompt GenerationKind = "image_prompt"
)

// ProfileContext describes the persona a profile generation should invent.
type ProfileContext struct {
	AgeRange          string `json:"age_range"`
	Niche             string `json:"niche"`
	Location          string `json:"location"`
	FollowerCountBand string `json:"follower_count_band"`
}

// PostContext carries everything needed to write a post in a persona's voice.
// PersonalityTraits and Interests are sets; PreviousPosts is oldest first.
type PostContext struct {
	PersonaName       string   `json:"persona_name"`
	Bio               string   `json:"bio"`
	PersonalityTraits []string `json:"personality_traits"`
	Interests         []string `json:"interests"`
	WritingStyle      string   `json:"writing_style"`
	PreviousPosts     []string `json:"previous_posts"`
}

type CommentContext struct {
	CommenterName        string   `json:"commenter_name"`
	CommenterPersonality []string `json:"commenter_personality"`
	TargetPostContent    string   `json:"target_post_content"`
	Relationship         string   `json:"relationship"` // e.g. "fellow enthusiast"
}

type ImagePromptContext struct {
	SubjectDescription string            `json:"subject_description"`
	StyleHints         map[string]string `json:"style_hints"`
}

// GenerationRequest is a discriminated union: exactly one context is set
// and it must match Kind.
type GenerationRequest struct {
	Kind    GenerationKind
	Profile *ProfileContext
	Post    *PostContext
	Comment *CommentContext
	Image   *ImagePromptContext
}

// Validate checks the union shape only; per-field checks live with the
// prompt templates.
func (r GenerationRequest) Validate() error {
	populated := 0
	var kind GenerationKind
	if r.Profile != nil {
		populated++
		kind = KindProfile
	}
	if r.Post != nil {
		populated++
		kind = KindPost
	}
	if r.Comment != nil {
		populated++
		kind = KindComment
	}
	if r.Image != nil {
		populated++
		kind = KindImagePrompt
	}

	if populated != 1 {
		return errors.Wrapf(ErrInvalidContext, "expected exactly one context, got %d", populated)
	}
	if kind != r.Kind {
		return errors.Wrapf(ErrInvalidContext, "context is for %q but kind is %q", kind, r.Kind)
	}
	return nil
}

// CallRequest is one bounded call to the generative API.
type CallRequest struct {
	Kind      GenerationKind
	Prompt    string
	MaxTokens int
	Timeout   time.Duration
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ProfileResult struct {
	Name            string   `json:"name"`
	Bio             string   `json:"bio"`
	Personality     []string `json:"personality"`
	Characteristics []string `json:"characteristics"`
}

// Validate rejects profiles that cannot back a persona: a persona needs a
// name, a bio and at least one personality trait to write posts.
func (p ProfileResult) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.Wrap(ErrEmptyResponse, "profile has no name")
	}
	if strings.TrimSpace(p.Bio) == "" {
		return errors.Wrap(ErrEmptyResponse, "profile has no bio")
	}
	for _, trait := range p.Personality {
		if strings.TrimSpace(trait) != "" {
			return nil
		}
	}
	return errors.Wrap(ErrEmptyResponse, "profile has no personality")
}

type PostResult struct {
	Content     string `json:"content"`
	ImagePrompt string `json:"imagePrompt"`
}

type CommentResult struct {
	Content string `json:"content"`
}

// GenerationResult is immutable once returned. Text holds the raw completion;
// Profile or Post is set for the structured kinds.
type GenerationResult struct {
	Kind    GenerationKind
	Text    string
	Profile *ProfileResult
	Post    *PostResult
	Latency time.Duration
	Usage   *TokenUsage
}
