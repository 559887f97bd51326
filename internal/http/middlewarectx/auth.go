// Package middlewarectx содержит HTTP middleware аутентификации и авторизации.
//
// BearerAuth проверяет JWT в заголовке Authorization, BasicAuth проверяет
// учётные данные HTTP Basic. В случае успеха пользователь кладётся в контекст запроса
// и доступен обработчикам через UserFromContext.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/qcm-api/internal/http/response"
	"github.com/magabrotheeeer/qcm-api/internal/lib/sl"
	"github.com/magabrotheeeer/qcm-api/internal/models"
	authservice "github.com/magabrotheeeer/qcm-api/internal/services/auth"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// User — ключ текущего пользователя в контексте.
const User Key = "user"

// TokenAuthenticator восстанавливает пользователя по bearer-токену.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// BasicAuthenticator проверяет пару имя/пароль HTTP Basic.
type BasicAuthenticator interface {
	Authenticate(username, password string) (*models.User, error)
}

// WithUser возвращает контекст с пользователем.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, User, user)
}

// UserFromContext возвращает пользователя, положенного middleware аутентификации.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(User).(*models.User)
	return user, ok && user != nil
}

// Username возвращает имя текущего пользователя или пустую строку.
func Username(ctx context.Context) string {
	if user, ok := UserFromContext(ctx); ok {
		return user.Username
	}
	return ""
}

// BearerAuth возвращает middleware, который проверяет токен из заголовка
// "Authorization: Bearer <token>".
//
// Неверный токен даёт 401 с заголовком WWW-Authenticate: Bearer.
// Для отключённого пользователя ответ 403.
func BearerAuth(authenticator TokenAuthenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.BearerAuth"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				log.Info("missing or invalid authorization header")
				w.Header().Set("WWW-Authenticate", "Bearer")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("not authenticated"))
				return
			}

			user, err := authenticator.Authenticate(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, authservice.ErrInactiveUser):
				log.Info("inactive user", sl.Err(err))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("inactive user"))
				return
			case errors.Is(err, authservice.ErrInvalidCredentials):
				log.Info("invalid or expired token", sl.Err(err))
				w.Header().Set("WWW-Authenticate", "Bearer")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("could not validate credentials"))
				return
			default:
				log.Error("failed to authenticate", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal error"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// BasicAuth возвращает middleware, который проверяет учётные данные HTTP Basic.
// При ошибке отвечает 401 с заголовком WWW-Authenticate: Basic.
func BasicAuth(authenticator BasicAuthenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.BasicAuth"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			username, password, ok := r.BasicAuth()
			if !ok {
				log.Info("missing basic credentials")
				unauthorizedBasic(w, r)
				return
			}
			user, err := authenticator.Authenticate(username, password)
			if err != nil {
				log.Info("invalid basic credentials", slog.String("username", username))
				unauthorizedBasic(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func unauthorizedBasic(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="qcm"`)
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error("incorrect username or password"))
}

// RequireAdmin пропускает только пользователей с ролью admin, остальным отвечает 403.
func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				log.Error("user missing in context", slog.String("request_id", middleware.GetReqID(r.Context())))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("not authenticated"))
				return
			}
			if !user.IsAdmin() {
				log.Info("insufficient permissions",
					slog.String("username", user.Username),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("user has insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
