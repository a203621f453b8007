package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
)

const personaColumns = `id, name, bio, personality_traits, interests, characteristics, writing_style, niche, location, created_at`

// CreatePersona is idempotent: an existing ID is left untouched.
func (r *Repository) CreatePersona(ctx context.Context, p domain.Persona) error {
	traits, err := encodeList(p.PersonalityTraits)
	if err != nil {
		return err
	}
	interests, err := encodeList(p.Interests)
	if err != nil {
		return err
	}
	characteristics, err := encodeList(p.Characteristics)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO personas (`+personaColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		string(p.ID), p.Name, p.Bio, traits, interests, characteristics,
		p.WritingStyle, p.Niche, p.Location, p.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert persona")
	}
	return nil
}

func (r *Repository) GetPersona(ctx context.Context, id domain.PersonaID) (domain.Persona, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+personaColumns+` FROM personas WHERE id = ?`, string(id))
	p, err := scanPersona(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Persona{}, errors.Wrapf(domain.ErrPersonaNotFound, "%s", id)
		}
		return domain.Persona{}, err
	}
	return p, nil
}

// ListPersonas returns personas oldest first so batches are stable.
func (r *Repository) ListPersonas(ctx context.Context) ([]domain.Persona, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+personaColumns+` FROM personas ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "list personas")
	}
	defer rows.Close()

	var personas []domain.Persona
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, err
		}
		personas = append(personas, p)
	}
	return personas, rows.Err()
}

func (r *Repository) SavePost(ctx context.Context, post domain.Post) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (id, persona_id, content, image_prompt, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(post.ID), string(post.PersonaID), post.Content, post.ImagePrompt, post.ImageURL, post.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert post")
	}
	return nil
}

// RecentPosts returns the persona's last limit posts, oldest first.
func (r *Repository) RecentPosts(ctx context.Context, personaID domain.PersonaID, limit int) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, persona_id, content, image_prompt, image_url, created_at FROM (
			SELECT * FROM posts WHERE persona_id = ? ORDER BY created_at DESC LIMIT ?
		) ORDER BY created_at ASC`,
		string(personaID), limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query recent posts")
	}
	defer rows.Close()
	return scanPosts(rows)
}

// CommentablePosts returns the newest posts by other personas that personaID
// has not commented on.
func (r *Repository) CommentablePosts(ctx context.Context, personaID domain.PersonaID, limit int) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.persona_id, p.content, p.image_prompt, p.image_url, p.created_at
		FROM posts p
		WHERE p.persona_id <> ?
		  AND NOT EXISTS (
			SELECT 1 FROM comments c WHERE c.post_id = p.id AND c.persona_id = ?
		  )
		ORDER BY p.created_at DESC
		LIMIT ?`,
		string(personaID), string(personaID), limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query commentable posts")
	}
	defer rows.Close()
	return scanPosts(rows)
}

func (r *Repository) SaveComment(ctx context.Context, c domain.Comment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (id, post_id, persona_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		string(c.ID), string(c.PostID), string(c.PersonaID), c.Content, c.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert comment")
	}
	return nil
}

// ListComments returns the comments on a post, oldest first.
func (r *Repository) ListComments(ctx context.Context, postID domain.PostID) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, post_id, persona_id, content, created_at
		FROM comments WHERE post_id = ? ORDER BY created_at ASC`, string(postID))
	if err != nil {
		return nil, errors.Wrap(err, "query comments")
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		var id, pid, persona string
		if err := rows.Scan(&id, &pid, &persona, &c.Content, &c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan comment")
		}
		c.ID = domain.CommentID(id)
		c.PostID = domain.PostID(pid)
		c.PersonaID = domain.PersonaID(persona)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanPersona(s scanner) (domain.Persona, error) {
	var p domain.Persona
	var id, traits, interests, characteristics string
	err := s.Scan(&id, &p.Name, &p.Bio, &traits, &interests, &characteristics,
		&p.WritingStyle, &p.Niche, &p.Location, &p.CreatedAt)
	if err != nil {
		return domain.Persona{}, err
	}
	p.ID = domain.PersonaID(id)
	if p.PersonalityTraits, err = decodeList(traits); err != nil {
		return domain.Persona{}, err
	}
	if p.Interests, err = decodeList(interests); err != nil {
		return domain.Persona{}, err
	}
	if p.Characteristics, err = decodeList(characteristics); err != nil {
		return domain.Persona{}, err
	}
	return p, nil
}

func scanPosts(rows *sql.Rows) ([]domain.Post, error) {
	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		var id, persona string
		if err := rows.Scan(&id, &persona, &p.Content, &p.ImagePrompt, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan post")
		}
		p.ID = domain.PostID(id)
		p.PersonaID = domain.PersonaID(persona)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Lists are stored as JSON text to keep the schema driver-agnostic.
func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", errors.Wrap(err, "encode list")
	}
	return string(raw), nil
}

func decodeList(raw string) ([]string, error) {
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, errors.Wrap(err, "decode list")
	}
	return values, nil
}
