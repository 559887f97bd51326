package me

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/qcm-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/qcm-api/internal/models"
)

func TestMeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(logger)

	t.Run("user in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/me/", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), &models.User{
			ID: 3, Username: "alice", Email: "a@example.com", Role: models.RoleUser,
			PasswordHash: "hash", OTPSecret: "secret",
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			`{"status":"OK","data":{"id":3,"username":"alice","email":"a@example.com","disabled":false,"role":"user"}}`,
			rec.Body.String())
	})

	t.Run("no user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
