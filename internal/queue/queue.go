// Package queue is the offline fallback for detection rows that could not
// be persisted, flushed to the backend once connectivity returns.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"earbridge/internal/model"
)

type Queue struct {
	mu   sync.Mutex
	path string
}

func Open(path string) (*Queue, error) {
	if path == "" {
		return nil, errors.New("queue path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create queue dir: %w", err)
		}
	}
	return &Queue{path: path}, nil
}

func (q *Queue) Append(row model.DetectionRow) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	rows, err := q.load()
	if err != nil {
		return err
	}
	rows = append(rows, row)
	return q.save(rows)
}

func (q *Queue) Pending() ([]model.DetectionRow, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load()
}

// Remove drops the given rows from the queue, matching on timestamp and
// type like the original sync path did.
func (q *Queue) Remove(rows []model.DetectionRow) error {
	if len(rows) == 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	current, err := q.load()
	if err != nil {
		return err
	}
	kept := current[:0]
	for _, item := range current {
		if !containsRow(rows, item) {
			kept = append(kept, item)
		}
	}
	return q.save(kept)
}

func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	err := os.Remove(q.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (q *Queue) load() ([]model.DetectionRow, error) {
	data, err := os.ReadFile(q.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var rows []model.DetectionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("corrupt queue file: %w", err)
	}
	return rows, nil
}

func (q *Queue) save(rows []model.DetectionRow) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return os.WriteFile(q.path, data, 0o644)
}

func containsRow(rows []model.DetectionRow, target model.DetectionRow) bool {
	for _, r := range rows {
		if r.Timestamp == target.Timestamp && r.Tipo == target.Tipo {
			return true
		}
	}
	return false
}
