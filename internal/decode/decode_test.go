package decode

import (
	"testing"

	"earbridge/internal/model"
)

func TestDecodeNewFormat(t *testing.T) {
	ev := Decode(`{"S":"Si","L":"Iz"}`)
	if ev.Format != model.FormatNew {
		t.Fatalf("format: %v", ev.Format)
	}
	if ev.SoundCode != "Si" || ev.SideCode != "Iz" {
		t.Fatalf("codes: %q %q", ev.SoundCode, ev.SideCode)
	}
	if ev.Confidence != nil {
		t.Fatalf("confidence should be absent")
	}
}

func TestDecodeLegacyFormat(t *testing.T) {
	ev := Decode(`{"top":"siren","lado":"izquierda","conf":0.8}`)
	if ev.Format != model.FormatLegacy {
		t.Fatalf("format: %v", ev.Format)
	}
	if ev.SoundCode != "siren" || ev.SideCode != "izquierda" {
		t.Fatalf("codes: %q %q", ev.SoundCode, ev.SideCode)
	}
	if ev.Confidence == nil || *ev.Confidence != 0.8 {
		t.Fatalf("confidence: %v", ev.Confidence)
	}
}

func TestDecodeLegacyAliases(t *testing.T) {
	ev := Decode(`{"sound":"voice","side":"derecha"}`)
	if ev.Format != model.FormatLegacy || ev.SoundCode != "voice" || ev.SideCode != "derecha" {
		t.Fatalf("event: %+v", ev)
	}
}

func TestDecodeFallbackPlainText(t *testing.T) {
	ev := Decode(`top bell lado centro conf 0.5`)
	if ev.Format != model.FormatLegacy {
		t.Fatalf("format: %v", ev.Format)
	}
	if ev.SoundCode != "bell" || ev.SideCode != "centro" {
		t.Fatalf("codes: %q %q", ev.SoundCode, ev.SideCode)
	}
	if ev.Confidence == nil || *ev.Confidence != 0.5 {
		t.Fatalf("confidence: %v", ev.Confidence)
	}
}

func TestDecodeFallbackTruncatedJSON(t *testing.T) {
	ev := Decode(`{"top":"siren","lado":"izquierda`)
	if ev.SoundCode != "siren" {
		t.Fatalf("sound: %q", ev.SoundCode)
	}
	if ev.SideCode != "izquierda" {
		t.Fatalf("side: %q", ev.SideCode)
	}
}

func TestDecodeFallbackShortCodes(t *testing.T) {
	ev := Decode(`S Si L Iz`)
	if ev.Format != model.FormatNew {
		t.Fatalf("format: %v", ev.Format)
	}
	if ev.SoundCode != "Si" || ev.SideCode != "Iz" {
		t.Fatalf("codes: %q %q", ev.SoundCode, ev.SideCode)
	}
}

func TestDecodeInvalidConfidenceDefaultsZero(t *testing.T) {
	ev := Decode(`top bell conf abc`)
	if ev.Confidence == nil || *ev.Confidence != 0 {
		t.Fatalf("confidence: %v", ev.Confidence)
	}
}

func TestDecodeUnrecognizedText(t *testing.T) {
	ev := Decode(`###garbage###`)
	if ev.Format != model.FormatUnknown {
		t.Fatalf("format: %v", ev.Format)
	}
	if ev.SoundCode != "" {
		t.Fatalf("sound: %q", ev.SoundCode)
	}
}

func TestDecodeNeverPanicsOnEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "}", "{", "{}"} {
		ev := Decode(in)
		if ev.Format != model.FormatUnknown {
			t.Fatalf("input %q: format %v", in, ev.Format)
		}
	}
}
