// Package alerts holds the in-memory alert state: the alert currently shown
// to the user and a bounded ring of recent alerts for the history view.
package alerts

import (
	"sync"
	"time"

	"earbridge/internal/model"
)

type Store struct {
	mu     sync.RWMutex
	active *model.Detection
	gen    uint64
	buf    []model.Detection
	limit  int
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 200
	}
	return &Store{limit: limit}
}

// Activate replaces the displayed alert and schedules its clearing. A newer
// alert arriving inside the window takes over the display with its own
// timer; the generation counter makes the stale timer a no-op.
func (s *Store) Activate(det model.Detection, clearAfter time.Duration) {
	s.mu.Lock()
	s.active = &det
	s.gen++
	gen := s.gen
	s.push(det)
	s.mu.Unlock()
	if clearAfter > 0 {
		time.AfterFunc(clearAfter, func() { s.clearGen(gen) })
	}
}

func (s *Store) clearGen(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.active = nil
	}
}

// Active returns the currently displayed alert, if any.
func (s *Store) Active() (model.Detection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return model.Detection{}, false
	}
	return *s.active, true
}

// Dismiss clears the displayed alert immediately.
func (s *Store) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
	s.gen++
}

func (s *Store) push(det model.Detection) {
	if len(s.buf) < s.limit {
		s.buf = append(s.buf, det)
		return
	}
	copy(s.buf, s.buf[1:])
	s.buf[len(s.buf)-1] = det
}

func (s *Store) List(limit int) []model.Detection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.buf) {
		limit = len(s.buf)
	}
	out := make([]model.Detection, 0, limit)
	for i := len(s.buf) - limit; i < len(s.buf); i++ {
		out = append(out, s.buf[i])
	}
	return out
}

// Since returns alerts at or after the given unix timestamp.
func (s *Store) Since(ts int64) []model.Detection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Detection, 0)
	for _, d := range s.buf {
		if d.Timestamp >= ts {
			out = append(out, d)
		}
	}
	return out
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
	s.active = nil
	s.gen++
}
