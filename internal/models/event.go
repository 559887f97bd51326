package models

import (
	"time"

	"github.com/google/uuid"
)

// Ключи маршрутизации событий аудита.
const (
	EventUserCreated     = "user.created"
	EventUserUpdated     = "user.updated"
	EventUserDeactivated = "user.deactivated"
	EventUserDeleted     = "user.deleted"
	EventQuestionCreated = "question.created"
	EventQuestionsReset  = "questions.reset"
)

// Event — событие аудита административного действия.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Actor      string    `json:"actor"`
	Subject    string    `json:"subject,omitempty"`
	Count      int       `json:"count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent создаёт событие с новым идентификатором и текущим временем UTC.
func NewEvent(eventType, actor, subject string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Actor:      actor,
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
	}
}
