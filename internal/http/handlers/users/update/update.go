// Package update реализует HTTP-обработчик изменения учётных данных пользователя.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/qcm-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/qcm-api/internal/http/response"
	"github.com/magabrotheeeer/qcm-api/internal/lib/sl"
	"github.com/magabrotheeeer/qcm-api/internal/lib/validation"
	"github.com/magabrotheeeer/qcm-api/internal/models"
	usersservice "github.com/magabrotheeeer/qcm-api/internal/services/users"
	"github.com/magabrotheeeer/qcm-api/internal/storage"
)

// Service описывает интерфейс изменения пользователя.
type Service interface {
	Update(ctx context.Context, actor, target string, req models.UserUpdate) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы изменения пользователя.
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
		validate: validation.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменение пользователя
// @Description Заменяет email, имя, полное имя и пароль пользователя user_to_modify.
// @Tags Users management / admin area
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param user_to_modify query string true "Имя изменяемого пользователя"
// @Param request body models.UserUpdate true "Новые данные"
// @Success 200 {object} response.Response{data=models.User}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Пользователь зарезервирован или недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 409 {object} response.ErrorResponse "Имя или email заняты"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users/update/ [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	target := r.URL.Query().Get("user_to_modify")
	if target == "" {
		log.Info("missing user_to_modify")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("query parameter user_to_modify is required"))
		return
	}

	var req models.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user, err := h.service.Update(r.Context(), middlewarectx.Username(r.Context()), target, req)
	switch {
	case err == nil:
	case errors.Is(err, usersservice.ErrReservedUser):
		log.Info("attempt to modify reserved user", slog.String("target", target))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("you can't modify this user"))
		return
	case errors.Is(err, storage.ErrUserNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	case errors.Is(err, storage.ErrUserExists):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("username or email already exist"))
		return
	default:
		log.Error("failed to update user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update user"))
		return
	}

	log.Info("user updated", slog.String("target", target))
	render.JSON(w, r, response.StatusOKWithData(user))
}
