package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/qcm-api/internal/cache"
	"github.com/magabrotheeeer/qcm-api/internal/lib/csvquestions"
	"github.com/magabrotheeeer/qcm-api/internal/lib/metrics"
	"github.com/magabrotheeeer/qcm-api/internal/models"
	"github.com/magabrotheeeer/qcm-api/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) RandomQuestions(ctx context.Context, use models.Use, subject models.Subject, limit int) ([]*models.Question, error) {
	args := m.Called(ctx, use, subject, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *RepoMock) GetQuestion(ctx context.Context, id int) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *RepoMock) CreateQuestion(ctx context.Context, q models.Question) (*models.Question, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *RepoMock) ReplaceQuestions(ctx context.Context, questions []models.Question) (int, error) {
	args := m.Called(ctx, questions)
	return args.Int(0), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) InvalidatePrefix(ctx context.Context, prefix string) (int, error) {
	args := m.Called(ctx, prefix)
	return args.Int(0), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	return m.Called(ctx, routingKey, event).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newMiniredisCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return &cache.Cache{Db: redis.NewClient(&redis.Options{Addr: mr.Addr()})}, mr
}

func TestQCMService_Generate(t *testing.T) {
	repo := new(RepoMock)
	svc := NewQCMService(repo, cache.Nop{}, new(PublisherMock), metrics.New(), newNoopLogger(), "", time.Hour)

	rows := []*models.Question{
		{ID: 1, Question: "q1", Subject: models.SubjectDocker, Use: models.UseTotalBootcamp, Correct: "A", ResponseA: "a", ResponseB: "b"},
		{ID: 2, Question: "q2", Subject: models.SubjectDocker, Use: models.UseTotalBootcamp, Correct: "B", ResponseA: "a", ResponseB: "b"},
	}
	repo.On("RandomQuestions", mock.Anything, models.UseTotalBootcamp, models.SubjectDocker, 5).Return(rows, nil).Once()

	got, err := svc.Generate(context.Background(), models.UseTotalBootcamp, models.SubjectDocker, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "q1", got[0].Question)
	assert.Equal(t, models.SubjectDocker, got[1].Subject)
	repo.AssertExpectations(t)
}

func TestQCMService_Generate_InvalidSelection(t *testing.T) {
	repo := new(RepoMock)
	svc := NewQCMService(repo, cache.Nop{}, new(PublisherMock), metrics.New(), newNoopLogger(), "", time.Hour)

	tests := []struct {
		name    string
		use     models.Use
		subject models.Subject
		n       int
	}{
		{"unknown use", "Examen", models.SubjectDocker, 5},
		{"unknown subject", models.UseTotalBootcamp, "Cooking", 5},
		{"bad count", models.UseTotalBootcamp, models.SubjectDocker, 7},
		{"zero count", models.UseTotalBootcamp, models.SubjectDocker, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), tt.use, tt.subject, tt.n)
			assert.ErrorIs(t, err, ErrInvalidSelection)
		})
	}
	repo.AssertNotCalled(t, "RandomQuestions", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQCMService_Answer_UsesCache(t *testing.T) {
	repo := new(RepoMock)
	c, mr := newMiniredisCache(t)
	svc := NewQCMService(repo, c, new(PublisherMock), metrics.New(), newNoopLogger(), "", time.Hour)

	repo.On("GetQuestion", mock.Anything, 7).
		Return(&models.Question{ID: 7, Question: "q7", Correct: "BD"}, nil).Once()

	first, err := svc.Answer(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, models.Answer{ID: 7, Question: "q7", Correct: "BD"}, *first)
	assert.True(t, mr.Exists("question:7"))

	second, err := svc.Answer(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	repo.AssertNumberOfCalls(t, "GetQuestion", 1)
}

func TestQCMService_Answer_CacheErrorFallsBack(t *testing.T) {
	repo := new(RepoMock)
	cm := new(CacheMock)
	svc := NewQCMService(repo, cm, new(PublisherMock), metrics.New(), newNoopLogger(), "", time.Hour)

	cm.On("Get", mock.Anything, "question:3", mock.Anything).Return(false, errors.New("redis down")).Once()
	cm.On("Set", mock.Anything, "question:3", mock.Anything, time.Hour).Return(errors.New("redis down")).Once()
	repo.On("GetQuestion", mock.Anything, 3).Return(&models.Question{ID: 3, Correct: "A"}, nil).Once()

	answer, err := svc.Answer(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "A", answer.Correct)
	cm.AssertExpectations(t)
}

func TestQCMService_Answer_NotFound(t *testing.T) {
	repo := new(RepoMock)
	svc := NewQCMService(repo, cache.Nop{}, new(PublisherMock), metrics.New(), newNoopLogger(), "", time.Hour)
	repo.On("GetQuestion", mock.Anything, 99).Return(nil, storage.ErrQuestionNotFound).Once()

	_, err := svc.Answer(context.Background(), 99)
	assert.ErrorIs(t, err, storage.ErrQuestionNotFound)
}

func TestQCMService_AddQuestion(t *testing.T) {
	repo := new(RepoMock)
	pub := new(PublisherMock)
	svc := NewQCMService(repo, cache.Nop{}, pub, metrics.New(), newNoopLogger(), "", time.Hour)

	req := models.QuestionCreate{
		Use: models.UseValidationTest, Subject: models.SubjectAutomation,
		Question: "Q?", ResponseA: "a", ResponseB: "b", Correct: "A",
	}
	repo.On("CreateQuestion", mock.Anything, req.ToQuestion()).Return(&models.Question{ID: 42, Question: "Q?"}, nil).Once()
	pub.On("Publish", mock.Anything, models.EventQuestionCreated, mock.MatchedBy(func(e models.Event) bool {
		return e.Subject == "42" && e.Actor == "admin"
	})).Return(nil).Once()

	q, err := svc.AddQuestion(context.Background(), "admin", req)
	require.NoError(t, err)
	assert.Equal(t, 42, q.ID)
	pub.AssertExpectations(t)

	repo.On("CreateQuestion", mock.Anything, mock.Anything).Return(nil, storage.ErrQuestionExists).Once()
	_, err = svc.AddQuestion(context.Background(), "admin", req)
	assert.ErrorIs(t, err, storage.ErrQuestionExists)
}

func TestQCMService_Reset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.csv")
	snapshot := []models.Question{
		{Question: "q1", Subject: models.SubjectDatabase, Use: models.UseAdmissionTest, Correct: "A", ResponseA: "a", ResponseB: "b"},
		{Question: "q2", Subject: models.SubjectDocker, Use: models.UseTotalBootcamp, Correct: "C", ResponseA: "a", ResponseB: "b", ResponseC: "c"},
	}
	require.NoError(t, csvquestions.WriteFile(path, snapshot))

	repo := new(RepoMock)
	pub := new(PublisherMock)
	c, mr := newMiniredisCache(t)
	require.NoError(t, mr.Set("question:1", `{"id":1}`))
	require.NoError(t, mr.Set("user:1", "keep"))
	svc := NewQCMService(repo, c, pub, metrics.New(), newNoopLogger(), path, time.Hour)

	repo.On("ReplaceQuestions", mock.Anything, snapshot).Return(2, nil).Once()
	pub.On("Publish", mock.Anything, models.EventQuestionsReset, mock.MatchedBy(func(e models.Event) bool {
		return e.Count == 2
	})).Return(nil).Once()

	n, err := svc.Reset(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, mr.Exists("question:1"))
	assert.True(t, mr.Exists("user:1"))
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestQCMService_Reset_SkipsInvalidRows(t *testing.T) {
	good := models.Question{Question: "q1", Subject: models.SubjectDatabase, Use: models.UseAdmissionTest, Correct: "A", ResponseA: "a", ResponseB: "b"}
	tests := []struct {
		name string
		bad  models.Question
	}{
		{"unknown subject", models.Question{Question: "q2", Subject: "Cobol", Use: models.UseAdmissionTest, Correct: "A", ResponseA: "a", ResponseB: "b"}},
		{"unknown use", models.Question{Question: "q2", Subject: models.SubjectDocker, Use: "Exam", Correct: "A", ResponseA: "a", ResponseB: "b"}},
		{"bad answer key", models.Question{Question: "q2", Subject: models.SubjectDocker, Use: models.UseTotalBootcamp, Correct: "ABCDE", ResponseA: "a", ResponseB: "b"}},
		{"answer key with space", models.Question{Question: "q2", Subject: models.SubjectDocker, Use: models.UseTotalBootcamp, Correct: "A ", ResponseA: "a", ResponseB: "b"}},
		{"missing responseB", models.Question{Question: "q2", Subject: models.SubjectDocker, Use: models.UseTotalBootcamp, Correct: "A", ResponseA: "a"}},
		{"duplicate question", good},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "questions.csv")
			require.NoError(t, csvquestions.WriteFile(path, []models.Question{good, tt.bad}))

			repo := new(RepoMock)
			pub := new(PublisherMock)
			svc := NewQCMService(repo, cache.Nop{}, pub, metrics.New(), newNoopLogger(), path, time.Hour)

			repo.On("ReplaceQuestions", mock.Anything, []models.Question{good}).Return(1, nil).Once()
			pub.On("Publish", mock.Anything, models.EventQuestionsReset, mock.Anything).Return(nil).Once()

			n, err := svc.Reset(context.Background(), "admin")
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			repo.AssertExpectations(t)
		})
	}
}

func TestQCMService_Reset_MissingSnapshot(t *testing.T) {
	repo := new(RepoMock)
	svc := NewQCMService(repo, cache.Nop{}, new(PublisherMock), metrics.New(), newNoopLogger(),
		filepath.Join(t.TempDir(), "missing.csv"), time.Hour)

	_, err := svc.Reset(context.Background(), "admin")
	assert.ErrorIs(t, err, ErrSnapshotUnavailable)
	assert.ErrorIs(t, err, os.ErrNotExist)
	repo.AssertNotCalled(t, "ReplaceQuestions", mock.Anything, mock.Anything)
}
