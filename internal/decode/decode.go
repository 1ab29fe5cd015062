// Package decode turns one reassembled link message into a RawEvent. It
// never fails: a strict JSON parse is attempted first, then a tolerant
// label scanner picks whatever it can out of degraded text.
package decode

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"earbridge/internal/model"
)

// Decode parses a complete framed message into a best-effort RawEvent.
func Decode(message string) model.RawEvent {
	trimmed := strings.TrimSpace(message)
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil && obj != nil {
		return FromMap(obj, message)
	}
	return scan(message)
}

// FromMap decodes an already-parsed object, e.g. a REST ingest body.
func FromMap(obj map[string]any, raw string) model.RawEvent {
	ev := model.RawEvent{Format: model.FormatUnknown, Raw: raw}

	s := stringField(obj, "S")
	l := stringField(obj, "L")
	if s != "" && l != "" {
		ev.Format = model.FormatNew
		ev.SoundCode = s
		ev.SideCode = l
		ev.Confidence = floatField(obj, "conf")
		return ev
	}

	top := stringField(obj, "top")
	if top == "" {
		top = stringField(obj, "sound")
	}
	if top != "" {
		ev.Format = model.FormatLegacy
		ev.SoundCode = top
		ev.SideCode = stringField(obj, "lado")
		if ev.SideCode == "" {
			ev.SideCode = stringField(obj, "side")
		}
		ev.Confidence = floatField(obj, "conf")
		return ev
	}
	return ev
}

func stringField(obj map[string]any, key string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func floatField(obj map[string]any, key string) *float64 {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			f = 0
		}
		return &f
	default:
		zero := 0.0
		return &zero
	}
}
