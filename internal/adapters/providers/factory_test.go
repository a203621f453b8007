package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
)

func TestBuild_ImageDisabled(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Generative.APIKey = "sk-test"

	client, images, err := Build(cfg)
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.Nil(t, images)
}

func TestBuild_ImageEnabled(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Generative.APIKey = "sk-test"
	cfg.Image.Enabled = true

	_, images, err := Build(cfg)
	require.NoError(t, err)
	assert.NotNil(t, images)
}

func TestBuild_MissingBaseURL(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Generative.BaseURL = " "

	_, _, err := Build(cfg)
	assert.Error(t, err)
}
