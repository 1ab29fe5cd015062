package dispatch

import (
	"sync"
	"time"

	"earbridge/internal/model"
)

// Gate carries the mutable suppression state shared between the link
// delivery path, the demo generator and the busy-flag setter. All access
// goes through the mutex; producers run on independent goroutines.
type Gate struct {
	mu        sync.Mutex
	busy      bool
	lastFired map[string]time.Time
}

func NewGate() *Gate {
	return &Gate{lastFired: make(map[string]time.Time)}
}

// SetBusy flips the focus-protection flag. True while the user is in an
// active voice-transcription session.
func (g *Gate) SetBusy(busy bool) {
	g.mu.Lock()
	g.busy = busy
	g.mu.Unlock()
}

func (g *Gate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

type verdict int

const (
	verdictAccept verdict = iota
	verdictSuppressedBusy
	verdictThrottled
)

func throttleKey(det model.Detection) string {
	return det.Type + "_" + string(det.Direction)
}

// admit applies the focus override and throttle rules atomically. On
// acceptance the throttle stamp is committed immediately, so a later
// persistence or presentation failure still counts for throttling.
func (g *Gate) admit(det model.Detection, now time.Time, throttle time.Duration) verdict {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy && det.Priority != model.PriorityRed {
		return verdictSuppressedBusy
	}
	key := throttleKey(det)
	if last, ok := g.lastFired[key]; ok && now.Sub(last) < throttle {
		return verdictThrottled
	}
	g.lastFired[key] = now
	return verdictAccept
}

// Reset clears the throttle history and the busy flag.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.busy = false
	g.lastFired = make(map[string]time.Time)
	g.mu.Unlock()
}
