// Package services содержит бизнес-логику генерации QCM, выдачи ответов
// и обновления банка вопросов.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/qcm-api/internal/lib/csvquestions"
	"github.com/magabrotheeeer/qcm-api/internal/lib/metrics"
	"github.com/magabrotheeeer/qcm-api/internal/lib/sl"
	"github.com/magabrotheeeer/qcm-api/internal/lib/validation"
	"github.com/magabrotheeeer/qcm-api/internal/models"
)

// AnswerKeyPrefix — префикс ключей кеша с ответами на вопросы.
const AnswerKeyPrefix = "question:"

var (
	// ErrInvalidSelection — неизвестные use, subject или недопустимое число вопросов.
	ErrInvalidSelection = errors.New("invalid use, subject or number of questions")
	// ErrSnapshotUnavailable — CSV-снимок вопросов не удалось прочитать.
	ErrSnapshotUnavailable = errors.New("questions snapshot unavailable")
)

// QuestionRepository определяет методы для работы с вопросами в хранилище.
type QuestionRepository interface {
	RandomQuestions(ctx context.Context, use models.Use, subject models.Subject, limit int) ([]*models.Question, error)
	GetQuestion(ctx context.Context, id int) (*models.Question, error)
	CreateQuestion(ctx context.Context, q models.Question) (*models.Question, error)
	ReplaceQuestions(ctx context.Context, questions []models.Question) (int, error)
}

// Cache описывает методы кеширования ответов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
}

// Publisher публикует события аудита.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// QCMService реализует операции над банком вопросов.
type QCMService struct {
	repo      QuestionRepository
	cache     Cache
	publisher Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	csvPath   string
	cacheTTL  time.Duration
	validate  *validator.Validate
}

// NewQCMService создает новый экземпляр QCMService.
// Таблица вопросов перезагружается из CSV-снимка по пути csvPath.
func NewQCMService(repo QuestionRepository, cache Cache, publisher Publisher, m *metrics.Metrics,
	log *slog.Logger, csvPath string, cacheTTL time.Duration) *QCMService {
	return &QCMService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		log:       log,
		csvPath:   csvPath,
		cacheTTL:  cacheTTL,
		validate:  validation.New(),
	}
}

// Generate возвращает до n случайных вопросов с заданными use и subject без ключей ответа.
func (s *QCMService) Generate(ctx context.Context, use models.Use, subject models.Subject, n int) ([]models.QuestionView, error) {
	const op = "services.qcm.Generate"

	if !use.Valid() || !subject.Valid() || !models.ValidQuestionCount(n) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSelection)
	}

	questions, err := s.repo.RandomQuestions(ctx, use, subject, n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]models.QuestionView, 0, len(questions))
	for _, q := range questions {
		result = append(result, q.View())
	}
	s.metrics.QuestionsServed.WithLabelValues(string(use)).Add(float64(len(result)))
	return result, nil
}

// Answer возвращает правильный ответ на вопрос id, используя кеш.
// Ошибки кеша не прерывают запрос: ответ читается из хранилища.
func (s *QCMService) Answer(ctx context.Context, id int) (*models.Answer, error) {
	const op = "services.qcm.Answer"

	key := AnswerKeyPrefix + strconv.Itoa(id)
	var cached models.Answer
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read answer from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		s.metrics.AnswerCache.WithLabelValues("hit").Inc()
		return &cached, nil
	}
	s.metrics.AnswerCache.WithLabelValues("miss").Inc()

	q, err := s.repo.GetQuestion(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	answer := q.Answer()
	if err := s.cache.Set(ctx, key, answer, s.cacheTTL); err != nil {
		s.log.Warn("failed to add answer to cache", slog.String("key", key), sl.Err(err))
	}
	return &answer, nil
}

// AddQuestion сохраняет новый вопрос.
func (s *QCMService) AddQuestion(ctx context.Context, actor string, req models.QuestionCreate) (*models.Question, error) {
	const op = "services.qcm.AddQuestion"

	created, err := s.repo.CreateQuestion(ctx, req.ToQuestion())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("question added", slog.Int("id", created.ID), slog.String("actor", actor))
	event := models.NewEvent(models.EventQuestionCreated, actor, strconv.Itoa(created.ID))
	s.emit(ctx, event)
	return created, nil
}

// Reset заменяет таблицу вопросов содержимым CSV-снимка и сбрасывает кеш ответов.
// Возвращает число загруженных вопросов.
func (s *QCMService) Reset(ctx context.Context, actor string) (int, error) {
	const op = "services.qcm.Reset"

	questions, err := csvquestions.ReadFile(s.csvPath)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %w", op, ErrSnapshotUnavailable, err)
	}
	questions = s.validSnapshotRows(questions)

	n, err := s.repo.ReplaceQuestions(ctx, questions)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	removed, err := s.cache.InvalidatePrefix(ctx, AnswerKeyPrefix)
	if err != nil {
		s.log.Warn("failed to flush cached answers", sl.Err(err))
	}

	s.log.Info("questions table reloaded",
		slog.Int("count", n),
		slog.Int("cache_removed", removed),
		slog.String("actor", actor))
	event := models.NewEvent(models.EventQuestionsReset, actor, "")
	event.Count = n
	s.emit(ctx, event)
	return n, nil
}

// validSnapshotRows отбрасывает строки снимка, которые не прошли бы проверку
// при добавлении через API, и повторы текста вопроса.
func (s *QCMService) validSnapshotRows(questions []models.Question) []models.Question {
	valid := make([]models.Question, 0, len(questions))
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		// строка 1 занята заголовком
		line := i + 2
		if err := s.validate.Struct(snapshotRow(q)); err != nil {
			s.log.Warn("skipping invalid snapshot row", slog.Int("line", line), sl.Err(err))
			continue
		}
		if _, dup := seen[q.Question]; dup {
			s.log.Warn("skipping duplicate snapshot row", slog.Int("line", line))
			continue
		}
		seen[q.Question] = struct{}{}
		valid = append(valid, q)
	}
	if skipped := len(questions) - len(valid); skipped > 0 {
		s.log.Warn("snapshot rows skipped", slog.Int("skipped", skipped), slog.Int("kept", len(valid)))
	}
	return valid
}

func snapshotRow(q models.Question) models.QuestionCreate {
	return models.QuestionCreate{
		Use:       q.Use,
		Subject:   q.Subject,
		Question:  q.Question,
		ResponseA: q.ResponseA,
		ResponseB: q.ResponseB,
		ResponseC: q.ResponseC,
		ResponseD: q.ResponseD,
		Correct:   q.Correct,
		Remark:    q.Remark,
	}
}

func (s *QCMService) emit(ctx context.Context, event models.Event) {
	s.metrics.AdminActions.WithLabelValues(event.Type).Inc()
	if err := s.publisher.Publish(ctx, event.Type, event); err != nil {
		s.log.Warn("failed to publish event", slog.String("type", event.Type), sl.Err(err))
	}
}
