// Package create реализует HTTP-обработчик создания пользователя администратором.
package create

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

// Service описывает интерфейс создания пользователя.
type Service interface {
	Create(ctx context.Context, actor string, req models.UserCreate) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы создания пользователя.
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
// @Summary Создание пользователя
// @Description Создает пользователя с ролью user или admin. Доступно только администратору.
// @Tags Users management / admin area
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.UserCreate true "Данные пользователя"
// @Success 201 {object} response.Response{data=models.User}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав или имя зарезервировано"
// @Failure 409 {object} response.ErrorResponse "Пользователь или email уже существуют"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.UserCreate
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

	user, err := h.service.Create(r.Context(), middlewarectx.Username(r.Context()), req)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Info("user already exists", slog.String("username", req.Username))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("user or mail already exist"))
			return
		}
		if errors.Is(err, usersservice.ErrReservedUser) {
			log.Info("attempt to create reserved user", slog.String("username", req.Username))
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("this username is reserved"))
			return
		}
		log.Error("failed to create user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create user"))
		return
	}

	log.Info("user created", slog.String("username", user.Username))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(user))
}
