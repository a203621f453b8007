package kernel

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
)

// GET /api/personas
func (s *Server) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	personas, err := s.store.ListPersonas(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if personas == nil {
		personas = []domain.Persona{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"personas": personas,
		"count":    len(personas),
	})
}

// POST /api/personas/generate
// Body is a ProfileContext; the generated profile is stored as a new persona.
func (s *Server) handleGeneratePersona(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req domain.ProfileContext
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}

	profile, err := s.generator.GenerateProfile(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	persona := domain.PersonaFromProfile(profile, req)
	if err := s.store.CreatePersona(r.Context(), persona); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.logger.Info("persona generated", "persona", persona.ID, "niche", persona.Niche)
	writeJSON(w, http.StatusCreated, persona)
}

// GET /api/posts/{id}/comments
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	postID := domain.PostID(chi.URLParam(r, "id"))

	comments, err := s.store.ListComments(r.Context(), postID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"comments": comments,
		"count":    len(comments),
	})
}
