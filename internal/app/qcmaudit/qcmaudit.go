// Package qcmaudit собирает потребителя событий аудита из RabbitMQ.
package qcmaudit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/qcm-api/internal/config"
	"github.com/magabrotheeeer/qcm-api/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/qcm-api/internal/lib/sl"
	auditservice "github.com/magabrotheeeer/qcm-api/internal/services/audit"
)

// App читает очередь аудита и записывает события в журнал.
type App struct {
	logger  *slog.Logger
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	service *auditservice.AuditService
}

// New подключается к брокеру и привязывает очередь аудита ко всем событиям exchange.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "qcmaudit.New"

	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("rabbitmq url is empty"))
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupExchange(conn, cfg.RabbitMQ.Exchange)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := rabbitmq.BindQueue(ch, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.AuditQueue, "#"); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{
		logger:  logger,
		conn:    conn,
		ch:      ch,
		queue:   cfg.RabbitMQ.AuditQueue,
		service: auditservice.NewAuditService(logger),
	}, nil
}

// Run обрабатывает события до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("audit consumer started", slog.String("queue", a.queue))
	defer a.close()

	return rabbitmq.ConsumeMessages(ctx, a.ch, a.queue, func(body []byte) error {
		if err := a.service.Handle(body); err != nil {
			a.logger.Warn("audit event dropped", sl.Err(err))
			return err
		}
		return nil
	})
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
