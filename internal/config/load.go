package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
)

const (
	envPrefix     = "IANF"
	configFileEnv = "IANF_CONFIG"
)

// KeySource yields the secret key. Load only calls it for encrypted values,
// so NewSecretKey never touches disk for plaintext configs.
type KeySource func() (*SecretKey, error)

// Load resolves the process configuration from defaults, an optional file
// (path argument, else $IANF_CONFIG) and IANF_* environment variables, in
// increasing precedence. keys may be nil when no encrypted value is present.
func Load(path string, keys KeySource) (*domain.AppConfig, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("config") // IANF_CONFIG
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}

	var cfg domain.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if IsEncrypted(cfg.Generative.APIKey) {
		if keys == nil {
			return nil, errors.WithHint(errors.New("generative.api_key is encrypted but no secret key is available"),
				"set "+secretKeyEnv)
		}
		secret, err := keys()
		if err != nil {
			return nil, errors.Wrap(err, "load secret key")
		}
		key, err := secret.Decrypt(cfg.Generative.APIKey)
		if err != nil {
			return nil, errors.Wrap(err, "decrypt generative.api_key")
		}
		cfg.Generative.APIKey = key
	}
	if cfg.Image.BaseURL == "" {
		cfg.Image.BaseURL = cfg.Generative.BaseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := domain.DefaultConfig()

	v.SetDefault("generative.base_url", d.Generative.BaseURL)
	v.SetDefault("generative.api_key", "")
	v.SetDefault("generative.organization", "")
	v.SetDefault("generative.model", d.Generative.Model)
	v.SetDefault("generative.max_tokens", d.Generative.MaxTokens)
	v.SetDefault("generative.timeout", d.Generative.Timeout)
	v.SetDefault("generative.requests_per_minute", d.Generative.RequestsPerMinute)

	v.SetDefault("image.enabled", d.Image.Enabled)
	v.SetDefault("image.base_url", "")
	v.SetDefault("image.model", d.Image.Model)
	v.SetDefault("image.size", d.Image.Size)
	v.SetDefault("image.timeout", d.Image.Timeout)

	v.SetDefault("jobs.posts_interval", d.Jobs.PostsInterval)
	v.SetDefault("jobs.comments_interval", d.Jobs.CommentsInterval)
	v.SetDefault("jobs.posts_per_run", d.Jobs.PostsPerRun)
	v.SetDefault("jobs.comments_per_run", d.Jobs.CommentsPerRun)

	v.SetDefault("store.path", d.Store.Path)

	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.allowed_origins", d.HTTP.AllowedOrigins)
}

// Summary returns log-safe key/value pairs describing cfg.
func Summary(cfg *domain.AppConfig) []any {
	return []any{
		"base_url", cfg.Generative.BaseURL,
		"api_key", MaskSecret(cfg.Generative.APIKey),
		"model", cfg.Generative.Model,
		"max_tokens", cfg.Generative.MaxTokens,
		"timeout", cfg.Generative.Timeout.String(),
		"image_enabled", cfg.Image.Enabled,
		"posts_interval", cfg.Jobs.PostsInterval.String(),
		"comments_interval", cfg.Jobs.CommentsInterval.String(),
		"store", cfg.Store.Path,
	}
}
