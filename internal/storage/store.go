package storage

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"earbridge/internal/config"
	"earbridge/internal/model"
)

// Store persists detection history. The dispatcher treats failures here as
// non-fatal; a nil Store disables persistence entirely.
type Store interface {
	Init(ctx context.Context) error
	Close() error
	SaveDetection(ctx context.Context, row model.DetectionRow) error
	FetchRecent(ctx context.Context, limit int) ([]model.DetectionRow, error)
}

func NewStore(cfg config.StorageConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, errors.New("unsupported storage driver")
	}
}

// MapRow converts a canonical detection into the backend row shape. The
// dominant frequency travels in the diagnostic bag when the firmware
// reports it; the column stays null otherwise.
func MapRow(det model.Detection) model.DetectionRow {
	var freq *float64
	if det.Extra != nil {
		if v, ok := det.Extra["frecuencia_dominante"]; ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				freq = &f
			}
		}
	}
	return model.DetectionRow{
		ID:                  det.ID,
		Tipo:                det.Type,
		Prioridad:           string(det.Priority),
		Direccion:           string(det.Direction),
		Intensidad:          det.Intensity,
		FrecuenciaDominante: freq,
		Timestamp:           time.Unix(det.Timestamp, 0).UTC().Format(time.RFC3339),
		Procesado:           false,
	}
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func scanRows(rows *sql.Rows) ([]model.DetectionRow, error) {
	out := make([]model.DetectionRow, 0)
	for rows.Next() {
		var row model.DetectionRow
		var freq sql.NullFloat64
		if err := rows.Scan(&row.ID, &row.Tipo, &row.Prioridad, &row.Direccion,
			&row.Intensidad, &freq, &row.Timestamp, &row.Procesado); err != nil {
			return nil, err
		}
		if freq.Valid {
			f := freq.Float64
			row.FrecuenciaDominante = &f
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
