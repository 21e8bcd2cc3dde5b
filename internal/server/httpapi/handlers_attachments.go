package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dayli-app/api/internal/server/models"
)

type attachmentDTO struct {
	ID           string `json:"id"`
	Nonce        string `json:"nonce"`
	UploadStatus string `json:"upload_status"`
}

func toAttachmentDTO(a *models.Attachment) attachmentDTO {
	return attachmentDTO{
		ID:           a.ID,
		Nonce:        a.Nonce,
		UploadStatus: a.UploadStatus,
	}
}

func (s *Server) handleCreateAttachment(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromContext(r.Context())
	date := chi.URLParam(r, "date")

	var req struct {
		Nonce string `json:"nonce"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	up, err := s.attachments.CreateUpload(r.Context(), accountID, date, req.Nonce)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"attachment": toAttachmentDTO(up.Attachment),
		"upload_url": up.UploadURL,
	})
}

func (s *Server) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromContext(r.Context())
	date := chi.URLParam(r, "date")

	list, err := s.attachments.ListForPost(r.Context(), accountID, date)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	dtos := make([]attachmentDTO, 0, len(list))
	for _, a := range list {
		dtos = append(dtos, toAttachmentDTO(a))
	}
	respondJSON(w, http.StatusOK, map[string]any{"attachments": dtos})
}

func (s *Server) handleAttachmentUploaded(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.attachments.MarkUploaded(r.Context(), accountID, id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"id": id})
}

func (s *Server) handleAttachmentDownload(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	url, err := s.attachments.DownloadURL(r.Context(), accountID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"url": url})
}

func (s *Server) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.attachments.Delete(r.Context(), accountID, id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}
