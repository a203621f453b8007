package llm

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
)

// decodeResult parses completion text into the shape for kind. Profile and
// post replies are JSON objects, the others plain text.
func decodeResult(kind domain.GenerationKind, text string) (domain.GenerationResult, error) {
	result := domain.GenerationResult{Kind: kind, Text: text}

	switch kind {
	case domain.KindProfile:
		var profile domain.ProfileResult
		if err := unmarshalObject(text, &profile); err != nil {
			return domain.GenerationResult{}, err
		}
		if err := profile.Validate(); err != nil {
			return domain.GenerationResult{}, err
		}
		result.Profile = &profile
	case domain.KindPost:
		var post domain.PostResult
		if err := unmarshalObject(text, &post); err != nil {
			return domain.GenerationResult{}, err
		}
		if strings.TrimSpace(post.Content) == "" {
			return domain.GenerationResult{}, errors.Wrap(domain.ErrEmptyResponse, "post has no content")
		}
		result.Post = &post
	case domain.KindComment, domain.KindImagePrompt:
		cleaned := unquote(strings.TrimSpace(text))
		if cleaned == "" {
			return domain.GenerationResult{}, domain.ErrEmptyResponse
		}
		result.Text = cleaned
	default:
		return domain.GenerationResult{}, errors.Newf("unknown generation kind %q", kind)
	}

	return result, nil
}

// unmarshalObject tolerates markdown code fences and prose around the object.
func unmarshalObject(text string, v any) error {
	raw := stripFences(text)
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return errors.WithDetail(errors.Wrap(domain.ErrTransport, "malformed response: no json object"), truncate(text, 200))
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return errors.WithDetail(errors.Wrap(domain.ErrTransport, "malformed response"), err.Error())
	}
	return nil
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:] // drop language tag
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
