// Package classify turns raw device vocabulary into canonical detections.
// Priority and type are always derived from the same table entry, so a
// buggy or hostile firmware cannot inject an arbitrary priority.
package classify

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"earbridge/internal/config"
	"earbridge/internal/model"
)

// ErrInvalidPayload means the raw event carried neither a short-code pair
// nor a legacy sound field. Anything partially resolvable degrades to the
// fallback class instead of erroring.
var ErrInvalidPayload = errors.New("payload has no recognizable sound fields")

const defaultConfidence = 0.5

type Normalizer struct {
	table  *Table
	source string
	now    func() time.Time
}

func NewNormalizer(table *Table, source string) *Normalizer {
	if table == nil {
		table = NewTable(nil)
	}
	if source == "" {
		source = "esp32"
	}
	return &Normalizer{table: table, source: source, now: time.Now}
}

// TableFromConfig converts configured overrides into table entries.
func TableFromConfig(cfg config.ClassifyConfig) *Table {
	if len(cfg.Sounds) == 0 {
		return NewTable(nil)
	}
	overrides := make(map[string]SoundClass, len(cfg.Sounds))
	for key, ov := range cfg.Sounds {
		overrides[key] = SoundClass{
			Label:    ov.Label,
			Priority: model.Priority(ov.Priority),
			Icon:     ov.Icon,
		}
	}
	return NewTable(overrides)
}

// Normalize maps a RawEvent to a canonical Detection. The timestamp is
// assigned here; the device clock is not trusted.
func (n *Normalizer) Normalize(raw model.RawEvent) (model.Detection, error) {
	var soundKey, sideKey string

	switch raw.Format {
	case model.FormatNew:
		soundKey = soundCodes[raw.SoundCode]
		if soundKey == "" {
			soundKey = raw.SoundCode
		}
		sideKey = sideCodes[raw.SideCode]
		if sideKey == "" {
			sideKey = string(model.DirectionFront)
		}
	case model.FormatLegacy:
		soundKey = raw.SoundCode
		sideKey = raw.SideCode
		if sideKey == "" {
			sideKey = string(model.DirectionFront)
		}
	default:
		return model.Detection{}, ErrInvalidPayload
	}

	class, _ := n.table.Resolve(soundKey)
	confidence := defaultConfidence
	if raw.Confidence != nil {
		confidence = *raw.Confidence
	}

	return model.Detection{
		ID:        uuid.NewString(),
		Timestamp: n.now().Unix(),
		Type:      strings.ToLower(class.Label),
		Priority:  class.Priority,
		Direction: ResolveDirection(sideKey),
		Intensity: confidence,
		Source:    n.source,
		Mode:      model.ModeOnline,
		Extra: map[string]string{
			"raw_sound": raw.SoundCode,
			"raw_side":  raw.SideCode,
			"icon":      class.Icon,
		},
	}, nil
}
