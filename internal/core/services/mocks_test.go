package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Generate(ctx context.Context, req domain.CallRequest) (domain.GenerationResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.GenerationResult), args.Error(1)
}

type MockImages struct {
	mock.Mock
}

func (m *MockImages) GenerateImage(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// memStore is an in-memory ContentStore.
type memStore struct {
	mu       sync.Mutex
	personas []domain.Persona
	posts    []domain.Post
	comments []domain.Comment
}

func newMemStore(personas ...domain.Persona) *memStore {
	return &memStore{personas: personas}
}

func (s *memStore) CreatePersona(_ context.Context, p domain.Persona) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.personas = append(s.personas, p)
	return nil
}

func (s *memStore) GetPersona(_ context.Context, id domain.PersonaID) (domain.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.personas {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Persona{}, domain.ErrPersonaNotFound
}

func (s *memStore) ListPersonas(_ context.Context) ([]domain.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Persona(nil), s.personas...), nil
}

func (s *memStore) SavePost(_ context.Context, post domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, post)
	return nil
}

func (s *memStore) RecentPosts(_ context.Context, personaID domain.PersonaID, limit int) ([]domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Post
	for _, p := range s.posts {
		if p.PersonaID == personaID {
			out = append(out, p)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *memStore) CommentablePosts(_ context.Context, personaID domain.PersonaID, limit int) ([]domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	commented := make(map[domain.PostID]bool)
	for _, c := range s.comments {
		if c.PersonaID == personaID {
			commented[c.PostID] = true
		}
	}
	var out []domain.Post
	for _, p := range s.posts {
		if p.PersonaID != personaID && !commented[p.ID] {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) SaveComment(_ context.Context, c domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = append(s.comments, c)
	return nil
}

func (s *memStore) ListComments(_ context.Context, postID domain.PostID) ([]domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) Posts() []domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Post(nil), s.posts...)
}

func (s *memStore) Comments() []domain.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Comment(nil), s.comments...)
}
