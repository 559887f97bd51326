// Package add реализует HTTP-обработчик добавления вопроса в базу.
package add

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
	"github.com/magabrotheeeer/qcm-api/internal/storage"
)

// Service описывает интерфейс добавления вопроса.
type Service interface {
	AddQuestion(ctx context.Context, actor string, req models.QuestionCreate) (*models.Question, error)
}

// Handler обрабатывает HTTP-запросы добавления вопроса.
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
// @Summary Добавление вопроса
// @Tags Update question database / Danger ZONE: Reset table Question
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.QuestionCreate true "Вопрос"
// @Success 201 {object} response.Response{data=models.Question}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 409 {object} response.ErrorResponse "Вопрос уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /qcm_add/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.qcm.add"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.QuestionCreate
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

	q, err := h.service.AddQuestion(r.Context(), middlewarectx.Username(r.Context()), req)
	if err != nil {
		if errors.Is(err, storage.ErrQuestionExists) {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("question already exists"))
			return
		}
		log.Error("failed to add question", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to add question"))
		return
	}

	log.Info("question added", slog.Int("id", q.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(q))
}
