package reset

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/qcm-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/qcm-api/internal/http/response"
	"github.com/magabrotheeeer/qcm-api/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы перезагрузки таблицы вопросов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс перезагрузки таблицы вопросов.
type Service interface {
	Reset(ctx context.Context, actor string) (int, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Перезагрузка таблицы вопросов
// @Description Очищает таблицу вопросов и загружает CSV-снимок. ID начинаются с 1 в порядке файла.
// @Tags Update question database / Danger ZONE: Reset table Question
// @Produce  json
// @Security BearerAuth
// @Success 201 {object} response.Response{data=map[string]any}
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Снимок недоступен или ошибка базы"
// @Router /db_reset/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.qcm.reset"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	n, err := h.service.Reset(r.Context(), middlewarectx.Username(r.Context()))
	if err != nil {
		log.Error("failed to reset questions table", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to reset questions table"))
		return
	}

	log.Info("questions table updated", slog.Int("count", n))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "Table question updated",
		"count":   n,
	}))
}
