package list

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/qcm-api/internal/models"
	bankservice "github.com/magabrotheeeer/qcm-api/internal/services/questionbank"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Questions(use models.Use, subjects []models.Subject, n int) ([]models.Question, error) {
	args := m.Called(use, subjects, n)
	q, _ := args.Get(0).([]models.Question)
	return q, args.Error(1)
}

func TestListHandler(t *testing.T) {
	docker := []models.Question{{ID: 1, Question: "Docker ?", Use: models.UseTotalBootcamp, Subject: models.SubjectDocker, Correct: "A"}}

	tests := []struct {
		name       string
		query      url.Values
		wantUse    models.Use
		wantSubj   []models.Subject
		wantN      int
		mockQ      []models.Question
		mockErr    error
		callsSvc   bool
		wantStatus int
	}{
		{
			name:       "default count",
			query:      url.Values{"use": {"Total Bootcamp"}, "subjects": {"Docker"}},
			wantUse:    models.UseTotalBootcamp,
			wantSubj:   []models.Subject{models.SubjectDocker},
			wantN:      5,
			mockQ:      docker,
			callsSvc:   true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "several subjects",
			query:      url.Values{"use": {"Total Bootcamp"}, "subjects": {"Docker", "BDD"}, "n_questions": {"2"}},
			wantUse:    models.UseTotalBootcamp,
			wantSubj:   []models.Subject{models.SubjectDocker, models.SubjectDatabase},
			wantN:      2,
			mockQ:      docker,
			callsSvc:   true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid selection",
			query:      url.Values{"use": {"Cuisine"}},
			wantUse:    models.Use("Cuisine"),
			wantSubj:   []models.Subject{},
			wantN:      5,
			mockErr:    fmt.Errorf("wrap: %w", bankservice.ErrInvalidSelection),
			callsSvc:   true,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "non numeric count",
			query:      url.Values{"use": {"Total Bootcamp"}, "n_questions": {"many"}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "failure",
			query:      url.Values{"use": {"Total Bootcamp"}},
			wantUse:    models.UseTotalBootcamp,
			wantSubj:   []models.Subject{},
			wantN:      5,
			mockErr:    errors.New("boom"),
			callsSvc:   true,
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callsSvc {
				svc.On("Questions", tt.wantUse, tt.wantSubj, tt.wantN).Return(tt.mockQ, tt.mockErr).Once()
			}
			req := httptest.NewRequest(http.MethodGet, "/questions?"+tt.query.Encode(), nil)
			rec := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)

			if tt.wantStatus == http.StatusOK {
				var body struct {
					Status string            `json:"status"`
					Data   []models.Question `json:"data"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "OK", body.Status)
				assert.Equal(t, tt.mockQ, body.Data)
			}
		})
	}
}
