package transport

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"trackline/internal/transport/handler"
	transportMiddleware "trackline/internal/transport/middleware"
)

func NewRouter(
	userHandler *handler.UserHandler,
	teamHandler *handler.TeamHandler,
	issueHandler *handler.IssueHandler,
	commentHandler *handler.CommentHandler,
	healthHandler *handler.HealthHandler,
	wsHandler *handler.WSHandler,
	log *zap.Logger,
) *chi.Mux {
	router := chi.NewRouter()

	// Recovery должен быть первым для обработки паник во всех middleware
	router.Use(transportMiddleware.Recovery(log))

	// RequestID для трейсинга запросов
	router.Use(middleware.RequestID)

	// Logging для структурированного логирования всех запросов
	router.Use(transportMiddleware.Logging(log))

	// Metrics для сбора метрик производительности
	router.Use(transportMiddleware.Metrics)

	// Эндпоинт для Prometheus метрик
	router.Handle("/metrics", promhttp.Handler())

	router.Get("/health", healthHandler.Health)

	// Websocket живет дольше любого таймаута, поэтому вне Timeout
	router.Get("/cable", wsHandler.Serve)

	router.Route("/api/v1", func(r chi.Router) {
		// Timeout для контроля времени выполнения запросов
		r.Use(transportMiddleware.Timeout(5*time.Second, log))

		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.CreateUser)
			r.Get("/{userId}", userHandler.GetUser)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Post("/", teamHandler.CreateTeam)
			r.Get("/{teamId}", teamHandler.GetTeam)
			r.Post("/{teamId}/members", userHandler.AddMember)
		})

		r.Route("/issues", func(r chi.Router) {
			r.Post("/", issueHandler.CreateIssue)
			r.Get("/{issueId}", issueHandler.GetIssue)
			r.Patch("/{issueId}", issueHandler.UpdateIssue)
			r.Delete("/{issueId}", issueHandler.DeleteIssue)
			r.Post("/{issueId}/comments", commentHandler.CreateComment)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Patch("/{commentId}", commentHandler.UpdateComment)
			r.Delete("/{commentId}", commentHandler.DeleteComment)
		})
	})

	return router
}
