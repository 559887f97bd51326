// Package deactivate реализует HTTP-обработчик блокировки и разблокировки пользователя.
package deactivate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/qcm-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/qcm-api/internal/http/response"
	"github.com/magabrotheeeer/qcm-api/internal/lib/sl"
	"github.com/magabrotheeeer/qcm-api/internal/models"
	usersservice "github.com/magabrotheeeer/qcm-api/internal/services/users"
	"github.com/magabrotheeeer/qcm-api/internal/storage"
)

// Service описывает интерфейс изменения флага блокировки.
type Service interface {
	Deactivate(ctx context.Context, actor, target string, disabled bool) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы блокировки пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Блокировка пользователя
// @Description Устанавливает флаг disabled пользователя user_to_desactivate. Пустое тело блокирует пользователя.
// @Tags Users management / admin area
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param user_to_desactivate query string true "Имя пользователя"
// @Param request body models.UserDeactivate false "Значение флага"
// @Success 200 {object} response.Response{data=models.User}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Пользователь зарезервирован или недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users/deactivate/ [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.deactivate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	target := r.URL.Query().Get("user_to_desactivate")
	if target == "" {
		log.Info("missing user_to_desactivate")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("query parameter user_to_desactivate is required"))
		return
	}

	var req models.UserDeactivate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	user, err := h.service.Deactivate(r.Context(), middlewarectx.Username(r.Context()), target, req.Value())
	switch {
	case err == nil:
	case errors.Is(err, usersservice.ErrReservedUser):
		log.Info("attempt to disable reserved user", slog.String("target", target))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("you can't disable this user"))
		return
	case errors.Is(err, storage.ErrUserNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	default:
		log.Error("failed to change disabled flag", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to disable user"))
		return
	}

	log.Info("disabled flag changed", slog.String("target", target), slog.Bool("disabled", user.Disabled))
	render.JSON(w, r, response.StatusOKWithData(user))
}
