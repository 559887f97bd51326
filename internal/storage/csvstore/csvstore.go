// Package csvstore хранит таблицу вопросов в памяти и сохраняет её в CSV-файл.
package csvstore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/magabrotheeeer/qcm-api/internal/lib/csvquestions"
	"github.com/magabrotheeeer/qcm-api/internal/models"
)

// ErrQuestionExists — вопрос с таким текстом уже есть в таблице.
var ErrQuestionExists = errors.New("question already exists")

// Store — таблица вопросов, загруженная из CSV.
type Store struct {
	mu        sync.RWMutex
	path      string
	questions []models.Question
}

// Open загружает вопросы из файла path.
func Open(path string) (*Store, error) {
	const op = "csvstore.Open"

	questions, err := csvquestions.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{path: path, questions: questions}, nil
}

// Filter возвращает копии вопросов с заданным use, чей subject входит в subjects.
// Пустой список subjects не ограничивает выборку.
func (s *Store) Filter(use models.Use, subjects []models.Subject) []models.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed := make(map[models.Subject]struct{}, len(subjects))
	for _, subj := range subjects {
		allowed[subj] = struct{}{}
	}

	result := make([]models.Question, 0)
	for _, q := range s.questions {
		if q.Use != use {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[q.Subject]; !ok {
				continue
			}
		}
		result = append(result, q)
	}
	return result
}

// Len возвращает число вопросов в таблице.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questions)
}

// Append добавляет вопрос и перезаписывает CSV-файл.
// При ошибке записи таблица в памяти не меняется.
func (s *Store) Append(q models.Question) error {
	const op = "csvstore.Append"

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.questions {
		if existing.Question == q.Question {
			return fmt.Errorf("%s: %w", op, ErrQuestionExists)
		}
	}

	updated := make([]models.Question, len(s.questions), len(s.questions)+1)
	copy(updated, s.questions)
	updated = append(updated, q)

	if err := csvquestions.WriteFile(s.path, updated); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.questions = updated
	return nil
}
