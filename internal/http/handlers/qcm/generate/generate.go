// Package generate реализует HTTP-обработчик генерации случайного QCM.
package generate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/qcm-api/internal/http/response"
	"github.com/magabrotheeeer/qcm-api/internal/lib/sl"
	"github.com/magabrotheeeer/qcm-api/internal/models"
	qcmservice "github.com/magabrotheeeer/qcm-api/internal/services/qcm"
)

// Service описывает интерфейс генерации QCM.
type Service interface {
	Generate(ctx context.Context, use models.Use, subject models.Subject, n int) ([]models.QuestionView, error)
}

// Handler обрабатывает HTTP-запросы генерации QCM.
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
// @Summary Случайный QCM
// @Description Возвращает до nb_questions случайных вопросов с заданными use и subject, без правильных ответов.
// @Tags QCM
// @Produce  json
// @Security BearerAuth
// @Param use path string true "Тип теста" Enums(Test de positionnement, Test de validation, Total Bootcamp)
// @Param subject path string true "Тематика" Enums(BDD, Systèmes distribués, Streaming de données, Data Science, Docker, Classification, Machine Learning, Automation)
// @Param nb_questions path int true "Число вопросов" Enums(5, 10, 20)
// @Success 200 {object} response.Response{data=[]models.QuestionView}
// @Failure 401 {object} response.ErrorResponse "Не аутентифицирован"
// @Failure 403 {object} response.ErrorResponse "Пользователь отключен"
// @Failure 422 {object} response.ErrorResponse "Неизвестные use, subject или число вопросов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /qcm/{use}/{subject}/{nb_questions} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.qcm.generate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	use, errUse := url.PathUnescape(chi.URLParam(r, "use"))
	subject, errSubject := url.PathUnescape(chi.URLParam(r, "subject"))
	n, errN := strconv.Atoi(chi.URLParam(r, "nb_questions"))
	if errUse != nil || errSubject != nil || errN != nil {
		log.Info("invalid path parameters")
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(qcmservice.ErrInvalidSelection.Error()))
		return
	}

	questions, err := h.service.Generate(r.Context(), models.Use(use), models.Subject(subject), n)
	if err != nil {
		if errors.Is(err, qcmservice.ErrInvalidSelection) {
			log.Info("invalid selection",
				slog.String("use", use),
				slog.String("subject", subject),
				slog.Int("nb_questions", n))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(qcmservice.ErrInvalidSelection.Error()))
			return
		}
		log.Error("failed to generate qcm", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to generate qcm"))
		return
	}

	log.Info("qcm generated", slog.Int("count", len(questions)))
	render.JSON(w, r, response.StatusOKWithData(questions))
}
