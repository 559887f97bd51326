// Package services содержит обработку событий аудита, опубликованных сервисом qcm-api.
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/qcm-api/internal/models"
)

// ErrMalformedEvent — тело сообщения не является событием аудита.
var ErrMalformedEvent = errors.New("malformed audit event")

// AuditService записывает события аудита в журнал.
type AuditService struct {
	log *slog.Logger
}

// NewAuditService создает новый экземпляр AuditService.
func NewAuditService(log *slog.Logger) *AuditService {
	return &AuditService{log: log}
}

// Handle разбирает событие из тела сообщения и записывает его в журнал.
func (s *AuditService) Handle(body []byte) error {
	const op = "services.audit.Handle"

	var event models.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrMalformedEvent, err)
	}
	if event.ID == "" || event.Type == "" {
		return fmt.Errorf("%s: %w", op, ErrMalformedEvent)
	}

	attrs := []any{
		slog.String("event_id", event.ID),
		slog.String("type", event.Type),
		slog.String("actor", event.Actor),
		slog.Time("occurred_at", event.OccurredAt),
	}
	if event.Subject != "" {
		attrs = append(attrs, slog.String("subject", event.Subject))
	}
	if event.Type == models.EventQuestionsReset {
		attrs = append(attrs, slog.Int("count", event.Count))
	}
	s.log.Info("audit event", attrs...)
	return nil
}
