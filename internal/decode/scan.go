package decode

import (
	"strconv"
	"strings"

	"earbridge/internal/model"
)

// Labels the tolerant scanner looks for, longest first so "top" wins over a
// stray "s" and "lado" over "l".
var (
	soundLabels = []string{"top", "s"}
	sideLabels  = []string{"lado", "l"}
	confLabels  = []string{"conf"}
)

// scan recovers labels from malformed or truncated text. Everything is
// best-effort; a label that is absent simply stays empty.
func scan(message string) model.RawEvent {
	ev := model.RawEvent{Format: model.FormatUnknown, Raw: message}

	sound, soundLabel, soundOK := scanLabel(message, soundLabels)
	side, _, _ := scanLabel(message, sideLabels)
	confText, _, confOK := scanLabel(message, confLabels)

	ev.SoundCode = sound
	ev.SideCode = side
	if confOK {
		f, err := strconv.ParseFloat(confText, 64)
		if err != nil {
			f = 0
		}
		ev.Confidence = &f
	}
	if soundOK && sound != "" {
		if soundLabel == "s" {
			ev.Format = model.FormatNew
		} else {
			ev.Format = model.FormatLegacy
		}
	}
	return ev
}

// scanLabel finds the first case-insensitive occurrence of any label, skips
// separator characters after it, and captures up to the next delimiter.
func scanLabel(text string, labels []string) (value, label string, ok bool) {
	lower := strings.ToLower(text)
	for _, l := range labels {
		i := strings.Index(lower, l)
		if i < 0 {
			continue
		}
		j := i + len(l)
		for j < len(text) && isSeparator(text[j]) {
			j++
		}
		k := j
		for k < len(text) && !isDelimiter(text[k]) {
			k++
		}
		captured := strings.Trim(text[j:k], "\"'{}")
		return captured, l, true
	}
	return "", "", false
}

func isSeparator(c byte) bool {
	switch c {
	case '{', '}', '"', '\'', ':', '=', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', ',', '}', ')', ';':
		return true
	}
	return false
}
