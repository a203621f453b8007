package services

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
	"github.com/manthysbr/ianfluencer/internal/core/ports"
)

const (
	relationshipEnthusiast = "fellow enthusiast"
	relationshipFollower   = "curious follower"
)

// PostGenerationJob writes one new post per persona and hands it to the store.
type PostGenerationJob struct {
	logger    *slog.Logger
	store     ports.ContentStore
	generator *ContentGenerator
	images    ports.ImageRenderer // optional
	perRun    int
}

func NewPostGenerationJob(logger *slog.Logger, store ports.ContentStore, generator *ContentGenerator, images ports.ImageRenderer, perRun int) *PostGenerationJob {
	if perRun <= 0 {
		perRun = 10
	}
	return &PostGenerationJob{
		logger:    logger,
		store:     store,
		generator: generator,
		images:    images,
		perRun:    perRun,
	}
}

// Run is the generate-posts job body. Persona failures do not stop the run
// but make it fail.
func (j *PostGenerationJob) Run(ctx context.Context) error {
	personas, err := j.store.ListPersonas(ctx)
	if err != nil {
		return errors.Wrap(err, "list personas")
	}
	if len(personas) > j.perRun {
		personas = personas[:j.perRun]
	}

	var runErr error
	created := 0
	for _, p := range personas {
		if err := ctx.Err(); err != nil {
			return errors.CombineErrors(runErr, err)
		}
		if err := j.postFor(ctx, p); err != nil {
			j.logger.Warn("post generation failed", "persona", p.ID, "error", err)
			runErr = errors.CombineErrors(runErr, errors.Wrapf(err, "persona %s", p.ID))
			continue
		}
		created++
	}

	j.logger.Info("post generation finished", "personas", len(personas), "created", created)
	return runErr
}

func (j *PostGenerationJob) postFor(ctx context.Context, p domain.Persona) error {
	recent, err := j.store.RecentPosts(ctx, p.ID, MaxPreviousPosts)
	if err != nil {
		return errors.Wrap(err, "load recent posts")
	}
	previous := make([]string, 0, len(recent))
	for _, post := range recent {
		previous = append(previous, post.Content)
	}

	result, err := j.generator.GeneratePost(ctx, p.PostContext(previous))
	if err != nil {
		return err
	}

	post := domain.NewPost(p.ID, result)
	if j.images != nil && result.ImagePrompt != "" {
		// A missing image never blocks the post.
		if url, err := j.renderImage(ctx, p, result.ImagePrompt); err != nil {
			j.logger.Warn("post image rendering failed", "persona", p.ID, "error", err)
		} else {
			post.ImageURL = url
		}
	}

	return j.store.SavePost(ctx, post)
}

func (j *PostGenerationJob) renderImage(ctx context.Context, p domain.Persona, subject string) (string, error) {
	prompt, err := j.generator.GenerateImagePrompt(ctx, subject, map[string]string{
		"style": "authentic social media photo",
		"mood":  p.WritingStyle,
		"place": p.Location,
	})
	if err != nil {
		return "", err
	}
	return j.images.GenerateImage(ctx, prompt)
}

// CommentGenerationJob lets each persona comment on one post by someone else.
type CommentGenerationJob struct {
	logger    *slog.Logger
	store     ports.ContentStore
	generator *ContentGenerator
	perRun    int
}

func NewCommentGenerationJob(logger *slog.Logger, store ports.ContentStore, generator *ContentGenerator, perRun int) *CommentGenerationJob {
	if perRun <= 0 {
		perRun = 10
	}
	return &CommentGenerationJob{
		logger:    logger,
		store:     store,
		generator: generator,
		perRun:    perRun,
	}
}

// Run is the generate-comments job body.
func (j *CommentGenerationJob) Run(ctx context.Context) error {
	personas, err := j.store.ListPersonas(ctx)
	if err != nil {
		return errors.Wrap(err, "list personas")
	}
	byID := make(map[domain.PersonaID]domain.Persona, len(personas))
	for _, p := range personas {
		byID[p.ID] = p
	}
	if len(personas) > j.perRun {
		personas = personas[:j.perRun]
	}

	var runErr error
	created := 0
	for _, p := range personas {
		if err := ctx.Err(); err != nil {
			return errors.CombineErrors(runErr, err)
		}
		ok, err := j.commentFor(ctx, p, byID)
		if err != nil {
			j.logger.Warn("comment generation failed", "persona", p.ID, "error", err)
			runErr = errors.CombineErrors(runErr, errors.Wrapf(err, "persona %s", p.ID))
			continue
		}
		if ok {
			created++
		}
	}

	j.logger.Info("comment generation finished", "personas", len(personas), "created", created)
	return runErr
}

// commentFor returns false when the persona has nothing left to comment on.
func (j *CommentGenerationJob) commentFor(ctx context.Context, p domain.Persona, byID map[domain.PersonaID]domain.Persona) (bool, error) {
	posts, err := j.store.CommentablePosts(ctx, p.ID, 1)
	if err != nil {
		return false, errors.Wrap(err, "load commentable posts")
	}
	if len(posts) == 0 {
		return false, nil
	}
	target := posts[0]

	relationship := relationshipFollower
	if author, ok := byID[target.PersonaID]; ok && p.SharesInterest(author) {
		relationship = relationshipEnthusiast
	}

	result, err := j.generator.GenerateComment(ctx, domain.CommentContext{
		CommenterName:        p.Name,
		CommenterPersonality: p.PersonalityTraits,
		TargetPostContent:    target.Content,
		Relationship:         relationship,
	})
	if err != nil {
		return false, err
	}

	if err := j.store.SaveComment(ctx, domain.NewComment(target.ID, p.ID, result)); err != nil {
		return false, err
	}
	return true, nil
}
