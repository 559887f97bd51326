// Package qcmbasic собирает упрощённый сервис QCM: HTTP Basic и таблица вопросов из CSV.
package qcmbasic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/qcm-api/internal/config"
	"github.com/magabrotheeeer/qcm-api/internal/lib/metrics"
	authservice "github.com/magabrotheeeer/qcm-api/internal/services/auth"
	bankservice "github.com/magabrotheeeer/qcm-api/internal/services/questionbank"
	"github.com/magabrotheeeer/qcm-api/internal/storage/csvstore"
)

// App содержит HTTP-сервер варианта с HTTP Basic.
type App struct {
	server *http.Server
	logger *slog.Logger
}

// New загружает CSV-таблицу вопросов и регистрирует маршруты.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "qcmbasic.New"

	if len(cfg.BasicUsers) == 0 {
		return nil, fmt.Errorf("%s: %w", op, errors.New("basic_users is empty"))
	}

	store, err := csvstore.Open(cfg.QuestionsCSVPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("questions loaded", slog.Int("count", store.Len()), slog.String("path", cfg.QuestionsCSVPath))

	m := metrics.New()
	authenticator := authservice.NewBasicAuthenticator(cfg.BasicUsers)
	bank := bankservice.NewQuestionBank(store, m, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.RateLimit, m, authenticator, bank)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{server: srv, logger: logger}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}
