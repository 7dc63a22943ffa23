package assistant

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhishekrajdhar/ai-pashu/internal/service/ai"
	chatService "github.com/abhishekrajdhar/ai-pashu/internal/service/chat"
	"github.com/abhishekrajdhar/ai-pashu/pkg/utils"
)

// DefaultSessionID groups requests that do not carry a session id.
const DefaultSessionID = "default"

// adviceNote accompanies every response regardless of outcome.
const adviceNote = "This is AI-generated information. Please consult a veterinary expert for critical issues."

// Handler serves the farmer assistant endpoints.
type Handler struct {
	chatSvc *chatService.Service
	aiSvc   *ai.Service
}

// New creates the assistant handler. aiSvc may be nil when the provider is
// not configured; requests then receive the fallback reply.
func New(chatSvc *chatService.Service, aiSvc *ai.Service) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		aiSvc:   aiSvc,
	}
}

// RegisterRoutes mounts the assistant routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/farmer-assistant", h.handleQuery)
	r.Get("/farmer-assistant/history/{sessionID}", h.handleHistory)
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

type queryResponse struct {
	Answer  string `json:"answer"`
	Context string `json:"context"`
	Note    string `json:"note"`
}

// handleQuery runs one assistant turn: transcript -> prompt -> model ->
// split -> append -> respond. Provider failures are absorbed into the
// fallback payload with HTTP 200.
func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	var payload queryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.SessionID == "" {
		payload.SessionID = DefaultSessionID
	}

	history := h.chatSvc.History(r.Context(), payload.SessionID)

	reply := ai.FallbackReply
	if h.aiSvc != nil {
		reply = h.aiSvc.Answer(r.Context(), payload.SessionID, payload.Query, history)
	}

	h.chatSvc.Append(r.Context(), payload.SessionID, payload.Query, reply.Answer)

	utils.RespondJSON(w, http.StatusOK, queryResponse{
		Answer:  reply.Answer,
		Context: reply.Context,
		Note:    adviceNote,
	})
}

// handleHistory returns the recorded exchanges for a session.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	utils.RespondJSON(w, http.StatusOK, h.chatSvc.History(r.Context(), sessionID))
}
