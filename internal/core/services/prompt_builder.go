package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
)

// MaxPreviousPosts bounds how much posting history goes into a post prompt.
const MaxPreviousPosts = 5

// PromptBuilder turns a generation request into prompt text. It is pure:
// identical requests produce byte-identical prompts.
type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build validates req and renders the prompt for its kind.
func (b *PromptBuilder) Build(req domain.GenerationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	switch req.Kind {
	case domain.KindProfile:
		return b.profilePrompt(*req.Profile)
	case domain.KindPost:
		return b.postPrompt(*req.Post)
	case domain.KindComment:
		return b.commentPrompt(*req.Comment)
	case domain.KindImagePrompt:
		return b.imagePrompt(*req.Image)
	default:
		return "", errors.Wrapf(domain.ErrInvalidContext, "unsupported kind %q", req.Kind)
	}
}

func (b *PromptBuilder) profilePrompt(c domain.ProfileContext) (string, error) {
	if err := requireFields(
		field{"age_range", c.AgeRange},
		field{"niche", c.Niche},
		field{"location", c.Location},
		field{"follower_count_band", c.FollowerCountBand},
	); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Create a complete social media influencer persona with these characteristics:\n")
	fmt.Fprintf(&sb, "- Age range: %s\n", c.AgeRange)
	fmt.Fprintf(&sb, "- Niche: %s\n", c.Niche)
	fmt.Fprintf(&sb, "- Location: %s\n", c.Location)
	fmt.Fprintf(&sb, "- Follower count: %s\n", c.FollowerCountBand)
	sb.WriteString("\nRespond with only a JSON object of this exact shape:\n")
	sb.WriteString(`{"name": "full name", "bio": "short profile bio", "personality": ["trait", "..."], "characteristics": ["characteristic", "..."]}`)
	return sb.String(), nil
}

func (b *PromptBuilder) postPrompt(c domain.PostContext) (string, error) {
	traits := normalizeSet(c.PersonalityTraits)
	interests := normalizeSet(c.Interests)
	if err := requireFields(
		field{"persona_name", c.PersonaName},
		field{"bio", c.Bio},
		field{"writing_style", c.WritingStyle},
	); err != nil {
		return "", err
	}
	if len(traits) == 0 {
		return "", errors.Wrap(domain.ErrInvalidContext, "personality_traits is empty")
	}
	if len(interests) == 0 {
		return "", errors.Wrap(domain.ErrInvalidContext, "interests is empty")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, a social media influencer.\n", c.PersonaName)
	fmt.Fprintf(&sb, "Bio: %s\n", c.Bio)
	fmt.Fprintf(&sb, "Personality: %s\n", strings.Join(traits, ", "))
	fmt.Fprintf(&sb, "Interests: %s\n", strings.Join(interests, ", "))
	fmt.Fprintf(&sb, "Writing style: %s\n", c.WritingStyle)

	previous := lastN(c.PreviousPosts, MaxPreviousPosts)
	if len(previous) > 0 {
		sb.WriteString("\nYour most recent posts, oldest first:\n")
		for i, p := range previous {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, strings.TrimSpace(p))
		}
		sb.WriteString("Keep a consistent voice but do not repeat any of these posts verbatim.\n")
	}

	sb.WriteString("\nWrite one new post for your followers and describe an image to go with it.\n")
	sb.WriteString("Respond with only a JSON object of this exact shape:\n")
	sb.WriteString(`{"content": "post text", "imagePrompt": "description of the accompanying image"}`)
	return sb.String(), nil
}

func (b *PromptBuilder) commentPrompt(c domain.CommentContext) (string, error) {
	personality := normalizeSet(c.CommenterPersonality)
	if err := requireFields(
		field{"commenter_name", c.CommenterName},
		field{"target_post_content", c.TargetPostContent},
		field{"relationship", c.Relationship},
	); err != nil {
		return "", err
	}
	if len(personality) == 0 {
		return "", errors.Wrap(domain.ErrInvalidContext, "commenter_personality is empty")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, a social media influencer.\n", c.CommenterName)
	fmt.Fprintf(&sb, "Personality: %s\n", strings.Join(personality, ", "))
	fmt.Fprintf(&sb, "You are a %s of the person who wrote this post:\n", c.Relationship)
	fmt.Fprintf(&sb, "\"\"\"\n%s\n\"\"\"\n", strings.TrimSpace(c.TargetPostContent))
	sb.WriteString("\nWrite a short, natural comment on the post. Match your personality and the familiarity of the relationship.\n")
	sb.WriteString("Respond with only the comment text.")
	return sb.String(), nil
}

func (b *PromptBuilder) imagePrompt(c domain.ImagePromptContext) (string, error) {
	if err := requireFields(field{"subject_description", c.SubjectDescription}); err != nil {
		return "", err
	}

	keys := make([]string, 0, len(c.StyleHints))
	for k, v := range c.StyleHints {
		if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	hints := make([]string, 0, len(keys))
	for _, k := range keys {
		hints = append(hints, fmt.Sprintf("%s: %s", k, strings.TrimSpace(c.StyleHints[k])))
	}

	var sb strings.Builder
	sb.WriteString("Rewrite the following into a single descriptive sentence for an image generation model.\n")
	fmt.Fprintf(&sb, "Subject: %s\n", strings.TrimSpace(c.SubjectDescription))
	if len(hints) > 0 {
		fmt.Fprintf(&sb, "Style: %s\n", strings.Join(hints, "; "))
	}
	sb.WriteString("Respond with only the sentence.")
	return sb.String(), nil
}

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return errors.Wrapf(domain.ErrInvalidContext, "%s is empty", f.name)
		}
	}
	return nil
}

// normalizeSet trims, drops blanks, de-duplicates and sorts.
func normalizeSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func lastN(values []string, n int) []string {
	out := make([]string, 0, n)
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}
