// Package csvquestions читает и записывает снимок вопросов в формате CSV.
//
// Первая строка файла содержит заголовок. Колонки сопоставляются по имени, поэтому
// порядок колонок произволен, а неизвестные колонки игнорируются.
// Обязательны колонки question, responseA и responseB.
package csvquestions

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/magabrotheeeer/qcm-api/internal/models"
)

// Header — колонки, которые пишет Write.
var Header = []string{
	"question", "subject", "use", "correct",
	"responseA", "responseB", "responseC", "responseD", "remark",
}

var requiredColumns = []string{"question", "responseA", "responseB"}

// ErrMissingColumn возвращается, если в заголовке нет обязательной колонки.
var ErrMissingColumn = errors.New("missing required column")

// Read разбирает CSV из r.
func Read(r io.Reader) ([]models.Question, error) {
	const op = "csvquestions.Read"

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%s: %w: %s", op, ErrMissingColumn, name)
		}
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var questions []models.Question
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		q := models.Question{
			Question:  field(record, "question"),
			Subject:   models.Subject(field(record, "subject")),
			Use:       models.Use(field(record, "use")),
			Correct:   field(record, "correct"),
			ResponseA: field(record, "responseA"),
			ResponseB: field(record, "responseB"),
			ResponseC: field(record, "responseC"),
			ResponseD: field(record, "responseD"),
			Remark:    field(record, "remark"),
		}
		if q.Question == "" {
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// ReadFile разбирает CSV-файл по пути path.
func ReadFile(path string) ([]models.Question, error) {
	const op = "csvquestions.ReadFile"
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = f.Close()
	}()

	questions, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return questions, nil
}

// Write записывает вопросы в w с заголовком Header.
func Write(w io.Writer, questions []models.Question) error {
	const op = "csvquestions.Write"
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, q := range questions {
		record := []string{
			q.Question, string(q.Subject), string(q.Use), q.Correct,
			q.ResponseA, q.ResponseB, q.ResponseC, q.ResponseD, q.Remark,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// WriteFile атомарно перезаписывает файл path: данные пишутся во временный
// файл в том же каталоге, который затем переименовывается.
func WriteFile(path string, questions []models.Question) error {
	const op = "csvquestions.WriteFile"
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := Write(tmp, questions); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
