package qcmapi

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/qcm-api/docs"
	"github.com/magabrotheeeer/qcm-api/internal/config"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/auth/token"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/health"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/qcm/add"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/qcm/answer"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/qcm/generate"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/qcm/reset"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/root"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/users/create"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/users/deactivate"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/users/list"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/users/me"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/users/remove"
	"github.com/magabrotheeeer/qcm-api/internal/http/handlers/users/update"
	"github.com/magabrotheeeer/qcm-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/qcm-api/internal/lib/metrics"
	authservice "github.com/magabrotheeeer/qcm-api/internal/services/auth"
	qcmservice "github.com/magabrotheeeer/qcm-api/internal/services/qcm"
	userservice "github.com/magabrotheeeer/qcm-api/internal/services/users"
)

// RegisterRoutes регистрирует все маршруты сервиса qcm-api.
func RegisterRoutes(r chi.Router, logger *slog.Logger, limit config.RateLimit, m *metrics.Metrics, pinger health.Pinger,
	authService *authservice.AuthService, userService *userservice.UserService, qcmService *qcmservice.QCMService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.Metrics(m),
		middlewarectx.RateLimit(limit.RPS, limit.Burst, logger),
	)

	// Открытые конечные точки
	r.Get("/", root.DocsRedirect)
	r.Post("/token", token.New(logger, authService).ServeHTTP)
	r.Get("/health", health.New(logger, pinger).ServeHTTP)
	r.Handle("/metrics", m.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)

	// Группа с JWT аутентификацией
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.BearerAuth(authService, logger))

		r.Get("/users/me/", me.New(logger).ServeHTTP)
		r.Get("/qcm/{use}/{subject}/{nb_questions}", generate.New(logger, qcmService).ServeHTTP)
		r.Get("/qcm/{question_id}", answer.New(logger, qcmService).ServeHTTP)

		// Только для администраторов
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireAdmin(logger))

			r.Post("/users/", create.New(logger, userService).ServeHTTP)
			r.Put("/users/update/", update.New(logger, userService).ServeHTTP)
			r.Put("/users/deactivate/", deactivate.New(logger, userService).ServeHTTP)
			r.Delete("/users/delete/{username}", remove.New(logger, userService).ServeHTTP)
			r.Get("/users/list", list.New(logger, userService).ServeHTTP)
			r.Post("/db_reset/", reset.New(logger, qcmService).ServeHTTP)
			r.Post("/qcm_add/", add.New(logger, qcmService).ServeHTTP)
		})
	})
}
