package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mkrijger/quizroom-backend/internal/hub"
	"github.com/mkrijger/quizroom-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/api/create", CreateQuiz(h, log))
	r.Get("/api/quizzes", ListQuizzes(h))
	r.Post("/api/host", HostSession(h))
	r.Post("/api/join", JoinSession(h))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log.Named("ws")))
	r.Handle("/*", http.FileServer(http.Dir("public")))
	return r
}
