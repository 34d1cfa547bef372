package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/markdave123-py/docchat/internal/core/auth"
	"github.com/markdave123-py/docchat/internal/core/encoder"
	"github.com/markdave123-py/docchat/internal/models"
	"github.com/markdave123-py/docchat/internal/services"
)

type DocumentHandler struct {
	docs     *services.DocumentService
	maxBytes int64
	logger   *zap.Logger
}

func NewDocumentHandler(docs *services.DocumentService, maxBytes int64, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{docs: docs, maxBytes: maxBytes, logger: logger}
}

type chatResponse struct {
	Mode string       `json:"mode"`
	Chat *models.Chat `json:"chat"`
}

// Encode returns the inline form of the uploaded "file" part.
func (h *DocumentHandler) Encode(w http.ResponseWriter, r *http.Request) {
	doc, err := h.encodeUpload(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// CreateChat starts a chat on the uploaded "file" part.
func (h *DocumentHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	ident := auth.FromContext(r.Context())
	doc, err := h.encodeUpload(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	chat, err := h.docs.StartChat(r.Context(), ident, doc)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, chatResponse{Mode: services.ModeChat, Chat: chat})
}

func (h *DocumentHandler) encodeUpload(w http.ResponseWriter, r *http.Request) (models.Document, error) {
	// multipart framing adds a little on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.Document{}, encoder.ErrTooLarge
		}
		return models.Document{}, services.ErrNoDocument
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return models.Document{}, services.ErrNoDocument
	}
	defer file.Close()

	return h.docs.Encode(r.Context(), auth.FromContext(r.Context()), header.Filename, header.Header.Get("Content-Type"), file)
}
