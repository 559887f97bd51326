package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/qcm-api/internal/migrations"
	"github.com/magabrotheeeer/qcm-api/internal/models"
)

// setupTestStorage поднимает контейнер PostgreSQL и применяет миграции.
func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var storage *Storage
	for range 10 {
		storage, err = New(ctx, dsn)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	migrationsPath, err := filepath.Abs("../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	t.Cleanup(func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	return storage
}

// newTestUser возвращает пользователя с уникальными именем и email.
func newTestUser() models.User {
	suffix := uuid.NewString()[:8]
	return models.User{
		Username:     "user-" + suffix,
		Email:        suffix + "@example.com",
		FullName:     "Test User " + suffix,
		PasswordHash: "hashedpassword",
		OTPSecret:    "JBSWY3DPEHPK3PXP",
		Role:         models.RoleUser,
	}
}

// newTestQuestion возвращает вопрос с уникальным текстом.
func newTestQuestion(use models.Use, subject models.Subject) models.Question {
	return models.Question{
		Question:  "Question " + uuid.NewString(),
		Subject:   subject,
		Use:       use,
		Correct:   "A",
		ResponseA: "yes",
		ResponseB: "no",
	}
}
