package qcmbasic

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/qcm-api/internal/config"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/health"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/questions/create"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/questions/list"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/root"
	"github.com/magabrotheeeer/qcm-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/qcm-api/internal/lib/metrics"
	authservice "github.com/magabrotheeeer/qcm-api/internal/services/auth"
	bankservice "github.com/magabrotheeeer/qcm-api/internal/services/questionbank"
)

// RegisterRoutes регистрирует маршруты сервиса qcm-basic.
func RegisterRoutes(r chi.Router, logger *slog.Logger, limit config.RateLimit, m *metrics.Metrics,
	authenticator *authservice.BasicAuthenticator, bank *bankservice.QuestionBank) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.Metrics(m),
		middlewarectx.RateLimit(limit.RPS, limit.Burst, logger),
	)

	r.Get("/", root.Hello)
	r.Get("/health", health.New(logger, nil).ServeHTTP)
	r.Handle("/metrics", m.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.BasicAuth(authenticator, logger))

		r.Get("/questions", list.New(logger, bank).ServeHTTP)
		r.With(middlewarectx.RequireAdmin(logger)).Post("/questions", create.New(logger, bank).ServeHTTP)
	})
}
