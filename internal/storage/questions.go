package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/qcm-api/internal/models"
)

const questionColumns = `id, question, subject, use, correct, response_a, response_b, response_c, response_d, remark`

func scanQuestion(row rowScanner) (*models.Question, error) {
	var (
		q                         models.Question
		subject, use              string
		responseC, responseD, rem sql.NullString
	)
	if err := row.Scan(&q.ID, &q.Question, &subject, &use, &q.Correct,
		&q.ResponseA, &q.ResponseB, &responseC, &responseD, &rem); err != nil {
		return nil, err
	}
	q.Subject = models.Subject(subject)
	q.Use = models.Use(use)
	q.ResponseC = responseC.String
	q.ResponseD = responseD.String
	q.Remark = rem.String
	return &q, nil
}

// RandomQuestions возвращает не более limit случайных вопросов с заданными use и subject.
func (s *Storage) RandomQuestions(ctx context.Context, use models.Use, subject models.Subject, limit int) ([]*models.Question, error) {
	const op = "storage.RandomQuestions"

	query := `SELECT ` + questionColumns + `
			  FROM questions
			  WHERE use = $1 AND subject = $2
			  ORDER BY random()
			  LIMIT $3`
	rows, err := s.DB.QueryContext(ctx, query, string(use), string(subject), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Question, 0, limit)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetQuestion возвращает вопрос по ID.
func (s *Storage) GetQuestion(ctx context.Context, id int) (*models.Question, error) {
	const op = "storage.GetQuestion"

	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	q, err := scanQuestion(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrQuestionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return q, nil
}

const insertQuestion = `INSERT INTO questions
			  (question, subject, use, correct, response_a, response_b, response_c, response_d, remark)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING ` + questionColumns

func questionArgs(q models.Question) []any {
	return []any{
		q.Question, string(q.Subject), string(q.Use), q.Correct,
		q.ResponseA, q.ResponseB,
		nullString(q.ResponseC), nullString(q.ResponseD), nullString(q.Remark),
	}
}

// CreateQuestion добавляет вопрос и возвращает его с присвоенным ID.
func (s *Storage) CreateQuestion(ctx context.Context, q models.Question) (*models.Question, error) {
	const op = "storage.CreateQuestion"

	created, err := scanQuestion(s.DB.QueryRowContext(ctx, insertQuestion, questionArgs(q)...))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, ErrQuestionExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// ReplaceQuestions в одной транзакции очищает таблицу вопросов, сбрасывает
// счётчик ID и вставляет questions в исходном порядке (ID начинаются с 1).
// Возвращает число вставленных вопросов.
func (s *Storage) ReplaceQuestions(ctx context.Context, questions []models.Question) (int, error) {
	const op = "storage.ReplaceQuestions"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `TRUNCATE TABLE questions RESTART IDENTITY`); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertQuestion)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i, q := range questions {
		if _, err := scanQuestion(stmt.QueryRowContext(ctx, questionArgs(q)...)); err != nil {
			if isUniqueViolation(err) {
				return 0, fmt.Errorf("%s: row %d: %w", op, i+1, ErrQuestionExists)
			}
			return 0, fmt.Errorf("%s: row %d: %w", op, i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return len(questions), nil
}

// CountQuestions возвращает число вопросов в таблице.
func (s *Storage) CountQuestions(ctx context.Context) (int, error) {
	const op = "storage.CountQuestions"
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
