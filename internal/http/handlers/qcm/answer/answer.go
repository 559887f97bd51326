package answer

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/qcm-api/internal/http/response"
	"github.com/magabrotheeeer/qcm-api/internal/lib/sl"
	"github.com/magabrotheeeer/qcm-api/internal/models"
	"github.com/magabrotheeeer/qcm-api/internal/storage"
)

// Handler обрабатывает HTTP-запросы ответа на вопрос.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс получения ответа.
type Service interface {
	Answer(ctx context.Context, id int) (*models.Answer, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Ответ на вопрос
// @Tags QCM
// @Produce  json
// @Security BearerAuth
// @Param question_id path int true "ID вопроса"
// @Success 200 {object} response.Response{data=models.Answer}
// @Failure 401 {object} response.ErrorResponse "Не аутентифицирован"
// @Failure 404 {object} response.ErrorResponse "Вопрос не найден"
// @Failure 422 {object} response.ErrorResponse "Некорректный ID"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /qcm/{question_id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.qcm.answer"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	// id вопроса имеет тип SERIAL, значения вне int32 отклоняются.
	id, err := strconv.ParseInt(chi.URLParam(r, "question_id"), 10, 32)
	if err != nil {
		log.Info("invalid id format", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("invalid question id"))
		return
	}

	answer, err := h.service.Answer(r.Context(), int(id))
	if err != nil {
		if errors.Is(err, storage.ErrQuestionNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("question not found"))
			return
		}
		log.Error("failed to read answer", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read answer"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(answer))
}
