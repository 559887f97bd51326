// Package services содержит логику варианта с HTTP Basic: выборку случайных
// вопросов из CSV-таблицы и добавление новых вопросов.
package services

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/magabrotheeeer/qcm-api/internal/lib/metrics"
	"github.com/magabrotheeeer/qcm-api/internal/models"
)

// ErrInvalidSelection — неизвестные use или subject, либо неположительное число вопросов.
var ErrInvalidSelection = errors.New("invalid use, subjects or number of questions")

// QuestionStore описывает таблицу вопросов в памяти.
type QuestionStore interface {
	Filter(use models.Use, subjects []models.Subject) []models.Question
	Append(q models.Question) error
}

// QuestionBank выбирает вопросы для варианта с HTTP Basic.
type QuestionBank struct {
	store   QuestionStore
	metrics *metrics.Metrics
	log     *slog.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewQuestionBank создает новый экземпляр QuestionBank.
func NewQuestionBank(store QuestionStore, m *metrics.Metrics, log *slog.Logger) *QuestionBank {
	return &QuestionBank{
		store:   store,
		metrics: m,
		log:     log,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Questions возвращает вопросы с заданным use и subject из subjects.
// Если подходящих вопросов больше n, возвращается равномерная случайная выборка из n.
func (b *QuestionBank) Questions(use models.Use, subjects []models.Subject, n int) ([]models.Question, error) {
	const op = "services.questionbank.Questions"

	if !use.Valid() || n <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSelection)
	}
	for _, s := range subjects {
		if !s.Valid() {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidSelection)
		}
	}

	matched := b.store.Filter(use, subjects)
	if len(matched) > n {
		matched = b.sample(matched, n)
	}
	b.metrics.QuestionsServed.WithLabelValues(string(use)).Add(float64(len(matched)))
	return matched, nil
}

// sample перемешивает первые n позиций алгоритмом Фишера-Йетса и возвращает их.
func (b *QuestionBank) sample(questions []models.Question, n int) []models.Question {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := 0; i < n; i++ {
		j := i + b.rnd.Intn(len(questions)-i)
		questions[i], questions[j] = questions[j], questions[i]
	}
	return questions[:n]
}

// Add добавляет вопрос в таблицу.
func (b *QuestionBank) Add(actor string, req models.QuestionCreate) (*models.Question, error) {
	const op = "services.questionbank.Add"

	q := req.ToQuestion()
	if err := b.store.Append(q); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	b.metrics.AdminActions.WithLabelValues(models.EventQuestionCreated).Inc()
	b.log.Info("question added", slog.String("actor", actor))
	return &q, nil
}
