package httpapi

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dayli-app/api/internal/server/models"
)

type postDTO struct {
	Date          string    `json:"date"`
	FormatVersion int       `json:"format_version"`
	Nonce         string    `json:"nonce,omitempty"`
	Data          string    `json:"data"`
	Created       time.Time `json:"created"`
	LastChanged   time.Time `json:"last_changed"`
}

func toPostDTO(p *models.Post) postDTO {
	return postDTO{
		Date:          p.Date,
		FormatVersion: p.FormatVersion,
		Nonce:         p.Nonce,
		Data:          base64.StdEncoding.EncodeToString(p.Data),
		Created:       p.Created,
		LastChanged:   p.LastChanged,
	}
}

func (s *Server) handleSavePost(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromContext(r.Context())

	var req struct {
		Date          string `json:"date"`
		FormatVersion int    `json:"format_version"`
		Nonce         string `json:"nonce"`
		Data          string `json:"data"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		respondError(w, http.StatusBadRequest, "data must be base64")
		return
	}

	post := &models.Post{
		AccountID:     accountID,
		Date:          req.Date,
		FormatVersion: req.FormatVersion,
		Nonce:         req.Nonce,
		Data:          data,
	}
	if err := s.posts.Save(r.Context(), post); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"date": req.Date})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromContext(r.Context())
	date := chi.URLParam(r, "date")

	post, err := s.posts.Get(r.Context(), accountID, date)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"post": toPostDTO(post)})
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromContext(r.Context())

	posts, err := s.posts.List(r.Context(), accountID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	dtos := make([]postDTO, 0, len(posts))
	for _, p := range posts {
		dtos = append(dtos, toPostDTO(p))
	}
	respondJSON(w, http.StatusOK, map[string]any{"posts": dtos})
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromContext(r.Context())
	date := chi.URLParam(r, "date")

	if err := s.posts.Delete(r.Context(), accountID, date); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"deleted": date})
}
