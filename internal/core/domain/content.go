package domain

import (
	"time"

	"github.com/google/uuid"
)

type PostID string

// Post is what the post job hands to the persistence collaborator.
type Post struct {
	ID          PostID    `json:"id"`
	PersonaID   PersonaID `json:"persona_id"`
	Content     string    `json:"content"`
	ImagePrompt string    `json:"image_prompt"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CommentID string

type Comment struct {
	ID        CommentID `json:"id"`
	PostID    PostID    `json:"post_id"`
	PersonaID PersonaID `json:"persona_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func NewPost(personaID PersonaID, r PostResult) Post {
	return Post{
		ID:          PostID(uuid.New().String()),
		PersonaID:   personaID,
		Content:     r.Content,
		ImagePrompt: r.ImagePrompt,
		CreatedAt:   time.Now().UTC(),
	}
}

func NewComment(postID PostID, personaID PersonaID, r CommentResult) Comment {
	return Comment{
		ID:        CommentID(uuid.New().String()),
		PostID:    postID,
		PersonaID: personaID,
		Content:   r.Content,
		CreatedAt: time.Now().UTC(),
	}
}
