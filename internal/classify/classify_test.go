package classify

import (
	"errors"
	"testing"

	"earbridge/internal/config"
	"earbridge/internal/model"
)

func floatPtr(f float64) *float64 { return &f }

func TestNormalizeNewFormatSiren(t *testing.T) {
	n := NewNormalizer(nil, "")
	det, err := n.Normalize(model.RawEvent{Format: model.FormatNew, SoundCode: "Si", SideCode: "Iz"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if det.Type != "sirena" {
		t.Fatalf("type: %q", det.Type)
	}
	if det.Priority != model.PriorityRed {
		t.Fatalf("priority: %q", det.Priority)
	}
	if det.Direction != model.DirectionLeft {
		t.Fatalf("direction: %q", det.Direction)
	}
	if det.Intensity != 0.5 {
		t.Fatalf("intensity: %v", det.Intensity)
	}
	if det.Source != "esp32" || det.Mode != model.ModeOnline {
		t.Fatalf("source/mode: %q %q", det.Source, det.Mode)
	}
	if det.ID == "" || det.Timestamp == 0 {
		t.Fatalf("missing id or timestamp")
	}
}

func TestNormalizeTableAuthority(t *testing.T) {
	n := NewNormalizer(nil, "")
	cases := []struct {
		raw      model.RawEvent
		wantType string
		wantPrio model.Priority
	}{
		{model.RawEvent{Format: model.FormatNew, SoundCode: "Ca", SideCode: "Der"}, "claxon", model.PriorityRed},
		{model.RawEvent{Format: model.FormatNew, SoundCode: "Vz", SideCode: "Ce"}, "voz", model.PriorityYellow},
		{model.RawEvent{Format: model.FormatNew, SoundCode: "Dr", SideCode: "Iz"}, "obras/taladro", model.PriorityGreen},
		{model.RawEvent{Format: model.FormatLegacy, SoundCode: "SIREN", SideCode: "atras"}, "sirena", model.PriorityRed},
		{model.RawEvent{Format: model.FormatLegacy, SoundCode: "siren", SideCode: "frente"}, "sirena", model.PriorityRed},
		{model.RawEvent{Format: model.FormatLegacy, SoundCode: "human_voice", SideCode: "derecha"}, "voz", model.PriorityYellow},
	}
	for _, tc := range cases {
		det, err := n.Normalize(tc.raw)
		if err != nil {
			t.Fatalf("normalize %+v: %v", tc.raw, err)
		}
		if det.Type != tc.wantType || det.Priority != tc.wantPrio {
			t.Fatalf("%q resolved to %q/%q, want %q/%q",
				tc.raw.SoundCode, det.Type, det.Priority, tc.wantType, tc.wantPrio)
		}
	}
}

func TestNormalizeUnknownSoundFallsBack(t *testing.T) {
	n := NewNormalizer(nil, "")
	det, err := n.Normalize(model.RawEvent{Format: model.FormatLegacy, SoundCode: "bell", SideCode: "centro", Confidence: floatPtr(0.5)})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if det.Type != "ruido" {
		t.Fatalf("type: %q", det.Type)
	}
	if det.Priority != model.PriorityGreen {
		t.Fatalf("priority: %q", det.Priority)
	}
	if det.Direction != model.DirectionFront {
		t.Fatalf("direction: %q", det.Direction)
	}
	if det.Intensity != 0.5 {
		t.Fatalf("intensity: %v", det.Intensity)
	}
}

func TestNormalizeDirectionSynonyms(t *testing.T) {
	n := NewNormalizer(nil, "")
	cases := map[string]model.Direction{
		"izquierda": model.DirectionLeft,
		"derecha":   model.DirectionRight,
		"centro":    model.DirectionFront,
		"atras":     model.DirectionBack,
		"atrás":     model.DirectionBack,
		"arriba":    model.DirectionUp,
		"sideways":  model.DirectionFront,
		"":          model.DirectionFront,
	}
	for side, want := range cases {
		det, err := n.Normalize(model.RawEvent{Format: model.FormatLegacy, SoundCode: "siren", SideCode: side})
		if err != nil {
			t.Fatalf("normalize side %q: %v", side, err)
		}
		if det.Direction != want {
			t.Fatalf("side %q: got %q, want %q", side, det.Direction, want)
		}
	}
}

func TestNormalizeConfidence(t *testing.T) {
	n := NewNormalizer(nil, "")
	det, _ := n.Normalize(model.RawEvent{Format: model.FormatLegacy, SoundCode: "siren", Confidence: floatPtr(0.9)})
	if det.Intensity != 0.9 {
		t.Fatalf("intensity: %v", det.Intensity)
	}
	// Present-but-unparseable confidence arrives as 0.0 from the decoder and
	// is kept as-is; only an absent confidence gets the 0.5 default.
	det, _ = n.Normalize(model.RawEvent{Format: model.FormatLegacy, SoundCode: "siren", Confidence: floatPtr(0)})
	if det.Intensity != 0 {
		t.Fatalf("intensity: %v", det.Intensity)
	}
	det, _ = n.Normalize(model.RawEvent{Format: model.FormatLegacy, SoundCode: "siren"})
	if det.Intensity != 0.5 {
		t.Fatalf("intensity: %v", det.Intensity)
	}
}

func TestNormalizeInvalidPayload(t *testing.T) {
	n := NewNormalizer(nil, "")
	_, err := n.Normalize(model.RawEvent{Format: model.FormatUnknown})
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestNormalizeUnknownShortCodePassesThrough(t *testing.T) {
	n := NewNormalizer(nil, "")
	det, err := n.Normalize(model.RawEvent{Format: model.FormatNew, SoundCode: "Zz", SideCode: "Qq"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if det.Type != "ruido" || det.Priority != model.PriorityGreen {
		t.Fatalf("fallback: %q/%q", det.Type, det.Priority)
	}
	if det.Direction != model.DirectionFront {
		t.Fatalf("direction: %q", det.Direction)
	}
}

func TestTableOverrides(t *testing.T) {
	table := TableFromConfig(config.ClassifyConfig{
		Sounds: map[string]config.SoundOverride{
			"dog_bark": {Label: "Ladrido", Priority: "amarillo", Icon: "paw"},
		},
	})
	n := NewNormalizer(table, "esp32")
	det, err := n.Normalize(model.RawEvent{Format: model.FormatLegacy, SoundCode: "dog_bark"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if det.Type != "ladrido" || det.Priority != model.PriorityYellow {
		t.Fatalf("override: %q/%q", det.Type, det.Priority)
	}
	// built-ins survive the merge
	if det, _ := n.Normalize(model.RawEvent{Format: model.FormatNew, SoundCode: "Si", SideCode: "Iz"}); det.Type != "sirena" {
		t.Fatalf("default entry lost: %q", det.Type)
	}
}
