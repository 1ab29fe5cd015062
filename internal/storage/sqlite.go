package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"earbridge/internal/model"
)

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:earbridge.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS detections (
			id TEXT PRIMARY KEY,
			tipo TEXT NOT NULL,
			prioridad TEXT NOT NULL,
			direccion TEXT NOT NULL,
			intensidad REAL NOT NULL,
			frecuencia_dominante REAL,
			timestamp TEXT NOT NULL,
			procesado INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_timestamp ON detections(timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) SaveDetection(ctx context.Context, row model.DetectionRow) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO detections (id, tipo, prioridad, direccion, intensidad, frecuencia_dominante, timestamp, procesado)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID,
		row.Tipo,
		row.Prioridad,
		row.Direccion,
		row.Intensidad,
		nullFloat(row.FrecuenciaDominante),
		row.Timestamp,
		row.Procesado,
	)
	return err
}

func (s *sqliteStore) FetchRecent(ctx context.Context, limit int) ([]model.DetectionRow, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tipo, prioridad, direccion, intensidad, frecuencia_dominante, timestamp, procesado
		FROM detections ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}
