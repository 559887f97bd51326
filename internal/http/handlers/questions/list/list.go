// Package list реализует выборку вопросов варианта с HTTP Basic.
package list

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/qcm-api/internal/http/response"
	"github.com/magabrotheeeer/qcm-api/internal/lib/sl"
	"github.com/magabrotheeeer/qcm-api/internal/models"
	bankservice "github.com/magabrotheeeer/qcm-api/internal/services/questionbank"
)

const defaultQuestions = 5

// Service описывает интерфейс выборки вопросов.
type Service interface {
	Questions(use models.Use, subjects []models.Subject, n int) ([]models.Question, error)
}

// Handler обрабатывает HTTP-запросы выборки вопросов.
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
// @Summary Случайные вопросы
// @Description Возвращает вопросы с заданным use и тематикой из subjects. Если подходящих больше n_questions, возвращается случайная выборка.
// @Tags Questions
// @Produce  json
// @Security BasicAuth
// @Param use query string true "Тип теста"
// @Param subjects query []string false "Тематики" collectionFormat(multi)
// @Param n_questions query int false "Число вопросов" default(5)
// @Success 200 {object} response.Response{data=[]models.Question}
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 422 {object} response.ErrorResponse "Некорректные параметры"
// @Router /questions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.questions.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	query := r.URL.Query()
	n := defaultQuestions
	if raw := query.Get("n_questions"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("n_questions must be an integer"))
			return
		}
		n = parsed
	}

	subjects := make([]models.Subject, 0, len(query["subjects"]))
	for _, s := range query["subjects"] {
		subjects = append(subjects, models.Subject(s))
	}

	questions, err := h.service.Questions(models.Use(query.Get("use")), subjects, n)
	if err != nil {
		if errors.Is(err, bankservice.ErrInvalidSelection) {
			log.Info("invalid selection", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(bankservice.ErrInvalidSelection.Error()))
			return
		}
		log.Error("failed to select questions", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to select questions"))
		return
	}

	log.Info("questions selected", slog.Int("count", len(questions)))
	render.JSON(w, r, response.StatusOKWithData(questions))
}
