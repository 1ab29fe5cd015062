package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"earbridge/internal/model"
)

type postgresStore struct {
	baseStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/earbridge?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{baseStore{db: db}}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS detections (
			id TEXT PRIMARY KEY,
			tipo TEXT NOT NULL,
			prioridad TEXT NOT NULL,
			direccion TEXT NOT NULL,
			intensidad DOUBLE PRECISION NOT NULL,
			frecuencia_dominante DOUBLE PRECISION,
			timestamp TIMESTAMPTZ NOT NULL,
			procesado BOOLEAN NOT NULL DEFAULT FALSE
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

func (s *postgresStore) SaveDetection(ctx context.Context, row model.DetectionRow) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO detections (id, tipo, prioridad, direccion, intensidad, frecuencia_dominante, timestamp, procesado)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
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

func (s *postgresStore) FetchRecent(ctx context.Context, limit int) ([]model.DetectionRow, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tipo, prioridad, direccion, intensidad, frecuencia_dominante, timestamp::text, procesado
		FROM detections ORDER BY timestamp DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}
