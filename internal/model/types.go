package model

import "time"

// Priority levels as the classification table emits them.
type Priority string

const (
	PriorityRed    Priority = "rojo"
	PriorityYellow Priority = "amarillo"
	PriorityGreen  Priority = "verde"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityRed, PriorityYellow, PriorityGreen:
		return true
	}
	return false
}

type Direction string

const (
	DirectionLeft  Direction = "izquierda"
	DirectionRight Direction = "derecha"
	DirectionFront Direction = "frente"
	DirectionBack  Direction = "atrás"
	DirectionUp    Direction = "arriba"
)

type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// RawFormat tags which wire generation a decoded message belongs to.
type RawFormat int

const (
	FormatUnknown RawFormat = iota
	FormatNew
	FormatLegacy
)

// RawEvent is the best-effort result of decoding one framed message.
// Confidence is nil when the message carried no confidence label at all;
// the normalizer applies its own default in that case.
type RawEvent struct {
	Format     RawFormat
	SoundCode  string
	SideCode   string
	Confidence *float64
	Raw        string
}

// Detection is the canonical domain event. Type and Priority always come
// from the same classification table entry; the device cannot set them
// independently.
type Detection struct {
	ID        string            `json:"id"`
	Timestamp int64             `json:"timestamp"`
	Type      string            `json:"tipo"`
	Priority  Priority          `json:"prioridad"`
	Direction Direction         `json:"direccion"`
	Intensity float64           `json:"intensidad"`
	Source    string            `json:"fuente"`
	Mode      Mode              `json:"modo"`
	Extra     map[string]string `json:"extra,omitempty"`
}

func (d Detection) Time() time.Time {
	return time.Unix(d.Timestamp, 0).UTC()
}

// DetectionRow is the backend row shape. Column names follow the existing
// detections table.
type DetectionRow struct {
	ID                  string   `json:"id"`
	Tipo                string   `json:"tipo"`
	Prioridad           string   `json:"prioridad"`
	Direccion           string   `json:"direccion"`
	Intensidad          float64  `json:"intensidad"`
	FrecuenciaDominante *float64 `json:"frecuencia_dominante"`
	Timestamp           string   `json:"timestamp"`
	Procesado           bool     `json:"procesado"`
}
