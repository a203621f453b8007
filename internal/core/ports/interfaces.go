package ports

import (
	"context"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
)

// GenerativeClient abstracts the external generative API.
type GenerativeClient interface {
	// Generate performs exactly one bounded call and decodes the response
	// into the shape for req.Kind.
	Generate(ctx context.Context, req domain.CallRequest) (domain.GenerationResult, error)
}

// ImageRenderer turns an image prompt into a hosted image URL.
type ImageRenderer interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// ContentStore is the persistence collaborator the job bodies hand results to.
type ContentStore interface {
	// Personas
	CreatePersona(ctx context.Context, p domain.Persona) error
	GetPersona(ctx context.Context, id domain.PersonaID) (domain.Persona, error)
	ListPersonas(ctx context.Context) ([]domain.Persona, error)

	// Posts. RecentPosts returns up to limit posts, oldest first.
	SavePost(ctx context.Context, post domain.Post) error
	RecentPosts(ctx context.Context, personaID domain.PersonaID, limit int) ([]domain.Post, error)

	// CommentablePosts returns the newest posts not authored by personaID
	// that personaID has not commented on yet.
	CommentablePosts(ctx context.Context, personaID domain.PersonaID, limit int) ([]domain.Post, error)
	SaveComment(ctx context.Context, comment domain.Comment) error
	// ListComments returns the comments on a post, oldest first.
	ListComments(ctx context.Context, postID domain.PostID) ([]domain.Comment, error)
}

// RunRepository persists finished job runs for observability.
type RunRepository interface {
	SaveJobRun(ctx context.Context, run domain.JobRun) error
	ListJobRuns(ctx context.Context, limit int) ([]domain.JobRun, error)
}
