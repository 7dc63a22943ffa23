package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhishekrajdhar/ai-pashu/internal/handler/assistant"
	"github.com/abhishekrajdhar/ai-pashu/internal/handler/stream"
	middlewarePkg "github.com/abhishekrajdhar/ai-pashu/internal/middleware"
	aiService "github.com/abhishekrajdhar/ai-pashu/internal/service/ai"
	chatService "github.com/abhishekrajdhar/ai-pashu/internal/service/chat"
	"github.com/abhishekrajdhar/ai-pashu/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, aiSvc *aiService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	assistantHandler := assistant.New(chatSvc, aiSvc)
	assistantHandler.RegisterRoutes(r)

	streamHandler := stream.New(aiSvc, chatSvc)
	streamHandler.RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
