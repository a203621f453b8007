package domain

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// GenerativeConfig configures the text generation API
type GenerativeConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"` // may arrive encrypted ("enc:")
	Organization      string        `mapstructure:"organization"`
	Model             string        `mapstructure:"model"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// ImageConfig configures optional post image rendering
type ImageConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"` // empty = same as generative
	Model   string        `mapstructure:"model"`
	Size    string        `mapstructure:"size"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type JobsConfig struct {
	PostsInterval    time.Duration `mapstructure:"posts_interval"`
	CommentsInterval time.Duration `mapstructure:"comments_interval"`
	PostsPerRun      int           `mapstructure:"posts_per_run"`
	CommentsPerRun   int           `mapstructure:"comments_per_run"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type HTTPConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AppConfig is resolved once at startup and treated as immutable afterwards.
type AppConfig struct {
	Generative GenerativeConfig `mapstructure:"generative"`
	Image      ImageConfig      `mapstructure:"image"`
	Jobs       JobsConfig       `mapstructure:"jobs"`
	Store      StoreConfig      `mapstructure:"store"`
	HTTP       HTTPConfig       `mapstructure:"http"`
}

// DefaultConfig returns safe defaults
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Generative: GenerativeConfig{
			BaseURL:           "https://api.openai.com/v1",
			Model:             "gpt-4o-mini",
			MaxTokens:         1000,
			Timeout:           60 * time.Second,
			RequestsPerMinute: 60,
		},
		Image: ImageConfig{
			Model:   "gpt-image-1",
			Size:    "1024x1024",
			Timeout: 120 * time.Second,
		},
		Jobs: JobsConfig{
			PostsInterval:    3 * time.Hour,
			CommentsInterval: 2 * time.Hour,
			PostsPerRun:      10,
			CommentsPerRun:   10,
		},
		Store: StoreConfig{
			Path: "ianfluencer.db",
		},
		HTTP: HTTPConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
	}
}

// Validate rejects configurations the process cannot start with.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Generative.BaseURL) == "" {
		return errors.New("generative.base_url is required")
	}
	if strings.TrimSpace(c.Generative.APIKey) == "" {
		return errors.WithHint(errors.New("generative.api_key is required"), "set IANF_GENERATIVE_API_KEY")
	}
	if c.Generative.MaxTokens <= 0 {
		return errors.Newf("generative.max_tokens must be positive, got %d", c.Generative.MaxTokens)
	}
	if c.Generative.Timeout <= 0 {
		return errors.Newf("generative.timeout must be positive, got %s", c.Generative.Timeout)
	}
	if c.Jobs.PostsInterval <= 0 || c.Jobs.CommentsInterval <= 0 {
		return errors.New("job intervals must be positive")
	}
	return nil
}

// JobDefinitions returns DefaultJobs with the configured intervals applied.
func (c *AppConfig) JobDefinitions() []Job {
	jobs := DefaultJobs()
	for i := range jobs {
		switch jobs[i].Name {
		case JobGeneratePosts:
			if c.Jobs.PostsInterval > 0 {
				jobs[i].Interval = c.Jobs.PostsInterval
			}
		case JobGenerateComments:
			if c.Jobs.CommentsInterval > 0 {
				jobs[i].Interval = c.Jobs.CommentsInterval
			}
		}
	}
	return jobs
}
