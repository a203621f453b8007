package main

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/manthysbr/ianfluencer/internal/adapters/duckdb"
	"github.com/manthysbr/ianfluencer/internal/adapters/providers"
	appconfig "github.com/manthysbr/ianfluencer/internal/config"
	"github.com/manthysbr/ianfluencer/internal/core/domain"
	"github.com/manthysbr/ianfluencer/internal/core/services"
)

// app holds the wired object graph shared by serve and run-job.
type app struct {
	cfg       *domain.AppConfig
	repo      *duckdb.Repository
	eventBus  *services.EventBus
	history   *services.RunHistory
	generator *services.ContentGenerator
	scheduler *services.JobScheduler
}

func loadConfig(cmd *cobra.Command) (*domain.AppConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	return appconfig.Load(path, appconfig.NewSecretKey)
}

func buildApp(ctx context.Context, logger *slog.Logger, cfg *domain.AppConfig) (*app, error) {
	repo, err := duckdb.NewRepository(cfg.Store.Path)
	if err != nil {
		return nil, errors.Wrap(err, "init repository")
	}

	for _, p := range domain.BuiltinPersonas() {
		if err := repo.CreatePersona(ctx, p); err != nil {
			repo.Close()
			return nil, errors.Wrapf(err, "seed persona %s", p.ID)
		}
	}

	client, images, err := providers.Build(cfg)
	if err != nil {
		repo.Close()
		return nil, errors.Wrap(err, "init providers")
	}

	eventBus := services.NewEventBus(logger)
	history := services.NewRunHistory(logger, eventBus, repo)
	generator := services.NewContentGenerator(logger, client, services.GenerationPolicy{
		MaxTokens: cfg.Generative.MaxTokens,
		Timeout:   cfg.Generative.Timeout,
	})
	scheduler := services.NewJobScheduler(logger, history)

	postJob := services.NewPostGenerationJob(logger, repo, generator, images, cfg.Jobs.PostsPerRun)
	commentJob := services.NewCommentGenerationJob(logger, repo, generator, cfg.Jobs.CommentsPerRun)
	bodies := map[domain.JobName]services.JobFunc{
		domain.JobGeneratePosts:    postJob.Run,
		domain.JobGenerateComments: commentJob.Run,
	}
	for _, def := range cfg.JobDefinitions() {
		if err := scheduler.Register(def, bodies[def.Name]); err != nil {
			repo.Close()
			return nil, errors.Wrapf(err, "register job %s", def.Name)
		}
	}

	return &app{
		cfg:       cfg,
		repo:      repo,
		eventBus:  eventBus,
		history:   history,
		generator: generator,
		scheduler: scheduler,
	}, nil
}

// Close drains pending run saves before closing the store.
func (a *app) Close() error {
	a.history.Close()
	return a.repo.Close()
}
