package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
)

func sarahPostContext() domain.PostContext {
	return domain.PostContext{
		PersonaName:       "Sarah Johnson",
		Bio:               "Fitness coach helping busy people move more",
		PersonalityTraits: []string{"motivational", "authentic"},
		Interests:         []string{"fitness", "nutrition"},
		WritingStyle:      "inspirational",
	}
}

func TestPromptBuilder_Deterministic(t *testing.T) {
	b := NewPromptBuilder()

	first := sarahPostContext()
	second := sarahPostContext()
	second.PersonalityTraits = []string{"authentic", "motivational", "authentic"}
	second.Interests = []string{" nutrition", "fitness"}

	p1, err := b.Build(domain.GenerationRequest{Kind: domain.KindPost, Post: &first})
	require.NoError(t, err)
	p2, err := b.Build(domain.GenerationRequest{Kind: domain.KindPost, Post: &second})
	require.NoError(t, err)

	assert.Equal(t, p1, p2, "trait and interest order must not change the prompt")
	assert.Contains(t, p1, "Sarah Johnson")
	assert.Contains(t, p1, "authentic, motivational")
	assert.Contains(t, p1, `"imagePrompt"`)
}

func TestPromptBuilder_PreviousPosts(t *testing.T) {
	b := NewPromptBuilder()

	ctx := sarahPostContext()
	ctx.PreviousPosts = []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"}

	prompt, err := b.Build(domain.GenerationRequest{Kind: domain.KindPost, Post: &ctx})
	require.NoError(t, err)

	assert.NotContains(t, prompt, "1. p1\n")
	assert.NotContains(t, prompt, "p2\n")
	assert.Contains(t, prompt, "1. p3\n")
	assert.Contains(t, prompt, "5. p7\n")
	assert.Less(t, strings.Index(prompt, "p3"), strings.Index(prompt, "p7"))
	assert.Contains(t, prompt, "do not repeat")
}

func TestPromptBuilder_NoPreviousPosts(t *testing.T) {
	ctx := sarahPostContext()
	prompt, err := NewPromptBuilder().Build(domain.GenerationRequest{Kind: domain.KindPost, Post: &ctx})
	require.NoError(t, err)
	assert.NotContains(t, prompt, "most recent posts")
}

func TestPromptBuilder_InvalidContext(t *testing.T) {
	blankBio := sarahPostContext()
	blankBio.Bio = "   "
	noTraits := sarahPostContext()
	noTraits.PersonalityTraits = []string{" ", ""}
	noInterests := sarahPostContext()
	noInterests.Interests = nil

	tests := []struct {
		name string
		req  domain.GenerationRequest
	}{
		{"no_context", domain.GenerationRequest{Kind: domain.KindPost}},
		{"kind_mismatch", domain.GenerationRequest{Kind: domain.KindComment, Post: &blankBio}},
		{"two_contexts", domain.GenerationRequest{
			Kind:    domain.KindPost,
			Post:    &noTraits,
			Comment: &domain.CommentContext{},
		}},
		{"blank_bio", domain.GenerationRequest{Kind: domain.KindPost, Post: &blankBio}},
		{"no_traits", domain.GenerationRequest{Kind: domain.KindPost, Post: &noTraits}},
		{"no_interests", domain.GenerationRequest{Kind: domain.KindPost, Post: &noInterests}},
		{"profile_missing_niche", domain.GenerationRequest{Kind: domain.KindProfile, Profile: &domain.ProfileContext{
			AgeRange: "25-34", Location: "Austin, TX", FollowerCountBand: "10k-50k",
		}}},
		{"comment_no_personality", domain.GenerationRequest{Kind: domain.KindComment, Comment: &domain.CommentContext{
			CommenterName: "Marco", TargetPostContent: "Leg day!", Relationship: "curious follower",
		}}},
		{"comment_blank_target", domain.GenerationRequest{Kind: domain.KindComment, Comment: &domain.CommentContext{
			CommenterName: "Marco", CommenterPersonality: []string{"warm"}, Relationship: "curious follower",
		}}},
		{"image_blank_subject", domain.GenerationRequest{Kind: domain.KindImagePrompt, Image: &domain.ImagePromptContext{}}},
	}

	b := NewPromptBuilder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidContext)
		})
	}
}

func TestPromptBuilder_Profile(t *testing.T) {
	prompt, err := NewPromptBuilder().Build(domain.GenerationRequest{
		Kind: domain.KindProfile,
		Profile: &domain.ProfileContext{
			AgeRange:          "25-34",
			Niche:             "fitness",
			Location:          "Austin, TX",
			FollowerCountBand: "10k-50k",
		},
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Niche: fitness")
	assert.Contains(t, prompt, `"personality"`)
}

func TestPromptBuilder_Comment(t *testing.T) {
	prompt, err := NewPromptBuilder().Build(domain.GenerationRequest{
		Kind: domain.KindComment,
		Comment: &domain.CommentContext{
			CommenterName:        "Marco Rossi",
			CommenterPersonality: []string{"warm", "playful"},
			TargetPostContent:    "New day, new goals 💪",
			Relationship:         "fellow enthusiast",
		},
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "fellow enthusiast")
	assert.Contains(t, prompt, "New day, new goals 💪")
	assert.Contains(t, prompt, "playful, warm")
}

func TestPromptBuilder_ImageStyleHintsSorted(t *testing.T) {
	b := NewPromptBuilder()
	req := domain.GenerationRequest{
		Kind: domain.KindImagePrompt,
		Image: &domain.ImagePromptContext{
			SubjectDescription: "sunrise gym session",
			StyleHints:         map[string]string{"place": "Austin, TX", "mood": "inspirational", "empty": " "},
		},
	}

	first, err := b.Build(req)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := b.Build(req)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Contains(t, first, "Style: mood: inspirational; place: Austin, TX")
	assert.NotContains(t, first, "empty")
}
