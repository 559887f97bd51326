package create

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/qcm-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/qcm-api/internal/models"
	"github.com/magabrotheeeer/qcm-api/internal/storage/csvstore"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Add(actor string, req models.QuestionCreate) (*models.Question, error) {
	args := m.Called(actor, req)
	q, _ := args.Get(0).(*models.Question)
	return q, args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	validBody := `{"use":"Test de validation","subject":"BDD","question":"SQL ?","responseA":"oui","responseB":"non","correct":"AB"}`
	want := models.QuestionCreate{
		Use: models.UseValidationTest, Subject: models.SubjectDatabase,
		Question: "SQL ?", ResponseA: "oui", ResponseB: "non", Correct: "AB",
	}

	tests := []struct {
		name       string
		body       string
		mockQ      *models.Question
		mockErr    error
		callsSvc   bool
		wantStatus int
	}{
		{"created", validBody, &models.Question{Question: "SQL ?"}, nil, true, http.StatusCreated},
		{"malformed", "not json", nil, nil, false, http.StatusBadRequest},
		{"missing response b", strings.Replace(validBody, `"responseB":"non",`, "", 1), nil, nil, false, http.StatusUnprocessableEntity},
		{"unknown use", strings.Replace(validBody, "Test de validation", "Examen", 1), nil, nil, false, http.StatusUnprocessableEntity},
		{"duplicate", validBody, nil, csvstore.ErrQuestionExists, true, http.StatusConflict},
		{"write failure", validBody, nil, errors.New("disk full"), true, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callsSvc {
				svc.On("Add", "admin", want).Return(tt.mockQ, tt.mockErr).Once()
			}
			req := httptest.NewRequest(http.MethodPost, "/questions", strings.NewReader(tt.body))
			req = req.WithContext(middlewarectx.WithUser(req.Context(), &models.User{Username: "admin", Role: models.RoleAdmin}))
			rec := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
