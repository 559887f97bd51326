// Package token реализует выдачу bearer-токена по форме OAuth2 password flow.
//
// Обработчик принимает поля username и password в теле
// application/x-www-form-urlencoded и возвращает объект токена OAuth2.
package token

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/qcm-api/internal/http/response"
	"github.com/magabrotheeeer/qcm-api/internal/lib/sl"
	"github.com/magabrotheeeer/qcm-api/internal/models"
	authservice "github.com/magabrotheeeer/qcm-api/internal/services/auth"
)

// Request — поля формы запроса токена.
type Request struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// Service описывает интерфейс выдачи токена.
type Service interface {
	Login(ctx context.Context, username, password string) (*models.Token, error)
}

// Handler обрабатывает HTTP-запросы выдачи токена.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Получение токена доступа
// @Description Проверяет имя и пароль из формы и возвращает bearer-токен (OAuth2 password flow).
// @Tags token access
// @Accept  x-www-form-urlencoded
// @Produce  json
// @Param username formData string true "Имя пользователя"
// @Param password formData string true "Пароль"
// @Success 200 {object} models.Token
// @Failure 400 {object} response.ErrorResponse "Некорректная форма"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /token [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.token"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := r.ParseForm(); err != nil {
		log.Error("failed to parse form", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid form body"))
		return
	}
	req := Request{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, authservice.ErrInvalidCredentials) || errors.Is(err, authservice.ErrInactiveUser) {
			log.Info("login rejected", slog.String("username", req.Username), sl.Err(err))
			w.Header().Set("WWW-Authenticate", "Bearer")
			render.Status(r, http.StatusUnauthorized)
			if errors.Is(err, authservice.ErrInactiveUser) {
				render.JSON(w, r, response.Error("inactive user"))
				return
			}
			render.JSON(w, r, response.Error("incorrect username or password"))
			return
		}
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("token issued", slog.String("username", req.Username))
	render.JSON(w, r, token)
}
