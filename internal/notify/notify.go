// Package notify is a stand-in presentation collaborator. The real app
// surface (heads-up notification, haptics) lives on the device; this
// implementation logs what it would have rendered.
package notify

import (
	"context"
	"log/slog"
	"strings"

	"earbridge/internal/model"
)

// Vibration patterns in milliseconds, alternating wait/vibrate.
var patterns = map[model.Priority][]int{
	model.PriorityRed:    {0, 1000},
	model.PriorityYellow: {0, 200, 100, 200},
	model.PriorityGreen:  {0, 100},
}

var defaultPattern = []int{0, 500}

// PatternFor returns the haptic pattern for a priority.
func PatternFor(priority model.Priority) []int {
	if p, ok := patterns[priority]; ok {
		return p
	}
	return defaultPattern
}

type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) ShowAlert(_ context.Context, det model.Detection) error {
	if n.logger != nil {
		n.logger.Info("alert",
			"title", strings.ToUpper(det.Type)+" detectado",
			"direction", det.Direction,
			"priority", det.Priority,
			"intensity", det.Intensity,
		)
	}
	return nil
}

func (n *LogNotifier) Vibrate(_ context.Context, priority model.Priority) error {
	if n.logger != nil {
		n.logger.Debug("vibrate", "priority", priority, "pattern", PatternFor(priority))
	}
	return nil
}
