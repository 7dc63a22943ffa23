package stream

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cloudwego/eino/schema"

	"github.com/abhishekrajdhar/ai-pashu/internal/handler/assistant"
	"github.com/abhishekrajdhar/ai-pashu/internal/service/ai"
	chatService "github.com/abhishekrajdhar/ai-pashu/internal/service/chat"
	"github.com/abhishekrajdhar/ai-pashu/pkg/utils"
)

// Handler streams assistant replies via Server-Sent Events.
type Handler struct {
	aiSvc   *ai.Service
	chatSvc *chatService.Service
}

// New creates a stream handler. aiSvc may be nil; requests then get 503.
func New(aiSvc *ai.Service, chatSvc *chatService.Service) *Handler {
	return &Handler{
		aiSvc:   aiSvc,
		chatSvc: chatSvc,
	}
}

// RegisterRoutes mounts the streaming route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/farmer-assistant/stream", h.handleStream)
}

// StreamResponse represents one streamed event.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	if h.aiSvc == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		utils.RespondError(w, http.StatusBadRequest, "query parameter is required")
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = assistant.DefaultSessionID
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)

	if err := h.streamReply(r.Context(), w, flusher, sessionID, query); err != nil {
		log.Printf("[stream] error handling session=%s: %v", sessionID, err)
	}
}

// streamReply relays model chunks as delta events, then records the split
// exchange once the stream completes.
func (h *Handler) streamReply(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID, query string) error {
	history := h.chatSvc.History(ctx, sessionID)

	stream, err := h.aiSvc.Stream(ctx, query, history)
	if err != nil {
		h.sendSSEError(w, flusher, "failed to start model stream")
		return err
	}
	defer stream.Close()

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
	})

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			h.sendSSEError(w, flusher, "model stream failed")
			return recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			utils.SendSSEChunk(w, flusher, StreamResponse{
				Event:     "delta",
				SessionID: sessionID,
				Content:   chunk.Content,
			})
		}
	}

	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		h.sendSSEError(w, flusher, "failed to assemble model output")
		return err
	}

	answer, _ := ai.SplitReply(response.Content)
	h.chatSvc.Append(ctx, sessionID, query, answer)

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   response.Content,
	})
	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	return nil
}

func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event: "error",
		Error: errorMsg,
	})
}
