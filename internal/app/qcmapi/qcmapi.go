// Package qcmapi собирает сервис QCM с JWT-аутентификацией и хранилищем PostgreSQL.
package qcmapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/qcm-api/internal/cache"
	"github.com/magabrotheeeer/qcm-api/internal/config"
	"github.com/magabrotheeeer/qcm-api/internal/lib/jwt"
	"github.com/magabrotheeeer/qcm-api/internal/lib/metrics"
	"github.com/magabrotheeeer/qcm-api/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/qcm-api/internal/lib/sl"
	"github.com/magabrotheeeer/qcm-api/internal/migrations"
	authservice "github.com/magabrotheeeer/qcm-api/internal/services/auth"
	qcmservice "github.com/magabrotheeeer/qcm-api/internal/services/qcm"
	userservice "github.com/magabrotheeeer/qcm-api/internal/services/users"
	"github.com/magabrotheeeer/qcm-api/internal/storage"
)

// answerCache объединяет операции кеша ответов с закрытием соединения.
type answerCache interface {
	qcmservice.Cache
	io.Closer
}

// eventPublisher объединяет публикацию событий с закрытием соединения.
type eventPublisher interface {
	userservice.Publisher
	io.Closer
}

type questionCounter interface {
	CountQuestions(ctx context.Context) (int, error)
}

// reportQuestionBank пишет в журнал размер банка вопросов и возвращает его.
func reportQuestionBank(ctx context.Context, repo questionCounter, logger *slog.Logger) int {
	n, err := repo.CountQuestions(ctx)
	if err != nil {
		logger.Warn("failed to count questions", sl.Err(err))
		return 0
	}
	if n == 0 {
		logger.Warn("questions table is empty, POST /db_reset/ loads the CSV snapshot")
		return 0
	}
	logger.Info("questions available", slog.Int("count", n))
	return n
}

// App содержит HTTP-сервер и ресурсы, которые нужно освободить при остановке.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *storage.Storage
	cache     answerCache
	publisher eventPublisher
}

// New подключает хранилище, применяет миграции, создаёт суперадминистратора
// и регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	var answers answerCache = cache.Nop{}
	if cfg.RedisConnection.Address != "" {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		answers = redisCache
	} else {
		logger.Warn("redis address is empty, answer cache disabled")
	}

	var publisher eventPublisher = rabbitmq.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			_ = answers.Close()
			_ = db.Close()
			return nil, err
		}
		publisher = p
	} else {
		logger.Warn("rabbitmq url is empty, audit events disabled")
	}

	m := metrics.New()
	jwtMaker := jwt.NewJWTMaker(cfg.JWTToken.SecretKey, cfg.JWTToken.TokenTTL)

	authService := authservice.NewAuthService(db, jwtMaker, m, logger)
	userService := userservice.NewUserService(db, publisher, m, logger, cfg.SuperAdmin.Username)
	qcmService := qcmservice.NewQCMService(db, answers, publisher, m, logger, cfg.QuestionsCSVPath, cfg.RedisConnection.TTL)

	created, err := userService.EnsureSuperAdmin(ctx, cfg.SuperAdmin)
	if err != nil {
		_ = publisher.Close()
		_ = answers.Close()
		_ = db.Close()
		return nil, err
	}
	if created {
		logger.Info("superadmin account created", slog.String("username", cfg.SuperAdmin.Username))
	}
	reportQuestionBank(ctx, db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.RateLimit, m, db, authService, userService, qcmService)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server:    srv,
		logger:    logger,
		db:        db,
		cache:     answers,
		publisher: publisher,
	}, nil
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
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if err := a.publisher.Close(); err != nil {
		a.logger.Error("failed to close publisher", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close cache", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
