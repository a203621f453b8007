package imagegen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
)

func TestGenerateImage(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&body)
		fmt.Fprint(w, `{"data":[{"url":"https://img.example/1.png"}]}`)
	}))
	defer srv.Close()

	p := NewOpenAIImageProvider(Config{BaseURL: srv.URL + "/", APIKey: "sk-test"})
	url, err := p.GenerateImage(context.Background(), "sunrise gym session")
	require.NoError(t, err)

	assert.Equal(t, "https://img.example/1.png", url)
	assert.Equal(t, "sunrise gym session", body["prompt"])
	assert.Equal(t, "gpt-image-1", body["model"])
}

func TestGenerateImage_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server_error", http.StatusInternalServerError, `oops`, domain.ErrTransport},
		{"no_url", http.StatusOK, `{"data":[]}`, domain.ErrEmptyResponse},
		{"bad_json", http.StatusOK, `{`, domain.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			p := NewOpenAIImageProvider(Config{BaseURL: srv.URL})
			_, err := p.GenerateImage(context.Background(), "x")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
