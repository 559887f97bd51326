package qcmbasic

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/qcm-api/internal/config"
	"github.com/magabrotheeeer/qcm-api/internal/lib/csvquestions"
	"github.com/magabrotheeeer/qcm-api/internal/lib/metrics"
	"github.com/magabrotheeeer/qcm-api/internal/models"
	authservice "github.com/magabrotheeeer/qcm-api/internal/services/auth"
	bankservice "github.com/magabrotheeeer/qcm-api/internal/services/questionbank"
	"github.com/magabrotheeeer/qcm-api/internal/storage/csvstore"
)

func newTestRouter(t *testing.T) (http.Handler, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "questions.csv")
	require.NoError(t, csvquestions.WriteFile(path, []models.Question{
		{Question: "Docker 1", Subject: models.SubjectDocker, Use: models.UseTotalBootcamp, Correct: "A", ResponseA: "a", ResponseB: "b"},
		{Question: "Docker 2", Subject: models.SubjectDocker, Use: models.UseTotalBootcamp, Correct: "B", ResponseA: "a", ResponseB: "b"},
		{Question: "BDD 1", Subject: models.SubjectDatabase, Use: models.UseTotalBootcamp, Correct: "C", ResponseA: "a", ResponseB: "b", ResponseC: "c"},
		{Question: "BDD 2", Subject: models.SubjectDatabase, Use: models.UseValidationTest, Correct: "A", ResponseA: "a", ResponseB: "b"},
	}))
	store, err := csvstore.Open(path)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	authenticator := authservice.NewBasicAuthenticator([]config.BasicUser{
		{Username: "admin", Password: "4dm1N", Role: "admin"},
		{Username: "alice", Password: "wonderland", Role: "user"},
	})

	r := chi.NewRouter()
	RegisterRoutes(r, logger, config.RateLimit{RPS: 1000, Burst: 1000}, m, authenticator, bankservice.NewQuestionBank(store, m, logger))
	return r, path
}

func TestRoutes_Hello(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Hello":"World"}`, rec.Body.String())
}

func TestRoutes_QuestionsRequireCredentials(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/questions?use=Total+Bootcamp", nil)
	req.SetBasicAuth("alice", "wrong")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
}

func TestRoutes_QuestionsFilterAndSample(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/questions?use=Total+Bootcamp&subjects=Docker&subjects=BDD&n_questions=2", nil)
	req.SetBasicAuth("alice", "wonderland")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []models.Question `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	for _, q := range body.Data {
		assert.Equal(t, models.UseTotalBootcamp, q.Use)
		assert.NotEqual(t, "BDD 2", q.Question)
	}
}

func TestRoutes_AddQuestion(t *testing.T) {
	r, path := newTestRouter(t)
	body := `{"use":"Test de validation","subject":"Docker","question":"Docker 3","responseA":"a","responseB":"b","correct":"A"}`

	t.Run("user is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/questions", strings.NewReader(body))
		req.SetBasicAuth("alice", "wonderland")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin creates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/questions", strings.NewReader(body))
		req.SetBasicAuth("admin", "4dm1N")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		onDisk, err := csvquestions.ReadFile(path)
		require.NoError(t, err)
		assert.Len(t, onDisk, 5)
		assert.Equal(t, "Docker 3", onDisk[4].Question)
	})

	t.Run("duplicate", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/questions", strings.NewReader(body))
		req.SetBasicAuth("admin", "4dm1N")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestRoutes_Metrics(t *testing.T) {
	r, _ := newTestRouter(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "qcm_http_requests_total")
}
