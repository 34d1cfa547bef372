package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/markdave123-py/docchat/internal/core/auth"
	"github.com/markdave123-py/docchat/internal/services"
)

type ChatHandler struct {
	chats     *services.ChatService
	dashboard *services.DashboardService
	logger    *zap.Logger
}

func NewChatHandler(chats *services.ChatService, dashboard *services.DashboardService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chats: chats, dashboard: dashboard, logger: logger}
}

type sendRequest struct {
	Text string `json:"text"`
}

type sendErrorResponse struct {
	Error string `json:"error"`
	services.Transcript
}

// List serves the dashboard: chat summaries, the selected chat and the mode.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d, err := h.dashboard.Load(r.Context(), auth.FromContext(r.Context()), q.Get("chatId"), q.Get("search"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Get opens the chat session and returns its transcript.
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	tr, err := h.chats.View(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "chatID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// Send answers one question. Errors that leave a transcript behind are
// returned together with it.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	tr, err := h.chats.Send(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "chatID"), req.Text)
	if err == nil {
		writeJSON(w, http.StatusOK, tr)
		return
	}
	// no session was touched
	if tr.State == "" {
		writeError(w, h.logger, err)
		return
	}
	status, text := errorStatus(err)
	writeJSON(w, status, sendErrorResponse{Error: text, Transcript: tr})
}
