package classify

import (
	"strings"

	"earbridge/internal/model"
)

// SoundClass is one classification table entry. Label and Priority always
// travel together; a detection never mixes entries.
type SoundClass struct {
	Label    string
	Priority model.Priority
	Icon     string
}

// FallbackClass is used for any sound key the table does not know.
var FallbackClass = SoundClass{Label: "Ruido", Priority: model.PriorityGreen, Icon: "help-circle"}

// Short codes emitted by current firmware, translated to the verbose keys
// the classification table is written in.
var soundCodes = map[string]string{
	"Si": "siren",
	"Ca": "car_horn",
	"Dr": "drilling",
	"En": "engine_idling",
	"Ai": "air_conditioner",
	"Vz": "voice",
	"Un": "unknown",
}

var sideCodes = map[string]string{
	"Iz":  "izquierda",
	"Der": "derecha",
	"Ce":  "frente",
}

// Direction synonyms across firmware generations.
var directions = map[string]model.Direction{
	"izquierda": model.DirectionLeft,
	"derecha":   model.DirectionRight,
	"centro":    model.DirectionFront,
	"frente":    model.DirectionFront,
	"atras":     model.DirectionBack,
	"atrás":     model.DirectionBack,
	"arriba":    model.DirectionUp,
}

func defaultSounds() map[string]SoundClass {
	return map[string]SoundClass{
		// danger
		"SIREN":    {Label: "Sirena", Priority: model.PriorityRed, Icon: "alert-circle"},
		"CAR_HORN": {Label: "Claxon", Priority: model.PriorityRed, Icon: "car"},

		// informational noise
		"DRILLING":        {Label: "Obras/Taladro", Priority: model.PriorityGreen, Icon: "hammer"},
		"AIR_CONDITIONER": {Label: "Aire Acond.", Priority: model.PriorityGreen, Icon: "fan"},
		"ENGINE_IDLING":   {Label: "Motor Auto", Priority: model.PriorityGreen, Icon: "truck"},

		// social
		"voice":       {Label: "Voz", Priority: model.PriorityYellow, Icon: "mic"},
		"human_voice": {Label: "Voz", Priority: model.PriorityYellow, Icon: "mic"},
	}
}

// Table resolves sound keys to classes. Lookup order is exact, lowercase,
// then uppercase; anything else falls back to the noise class.
type Table struct {
	sounds   map[string]SoundClass
	fallback SoundClass
}

// NewTable builds the classification table, merging overrides on top of the
// built-in entries.
func NewTable(overrides map[string]SoundClass) *Table {
	sounds := defaultSounds()
	for key, class := range overrides {
		sounds[key] = class
	}
	return &Table{sounds: sounds, fallback: FallbackClass}
}

func (t *Table) Resolve(soundKey string) (SoundClass, bool) {
	if class, ok := t.sounds[soundKey]; ok {
		return class, true
	}
	if class, ok := t.sounds[strings.ToLower(soundKey)]; ok {
		return class, true
	}
	if class, ok := t.sounds[strings.ToUpper(soundKey)]; ok {
		return class, true
	}
	return t.fallback, false
}

// ResolveDirection maps a side key to a canonical direction, defaulting to
// front for anything unrecognized.
func ResolveDirection(sideKey string) model.Direction {
	if d, ok := directions[strings.ToLower(strings.TrimSpace(sideKey))]; ok {
		return d
	}
	return model.DirectionFront
}
