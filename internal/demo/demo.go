// Package demo replays a scripted detection scenario through the real
// decode → normalize → dispatch path, for showcasing the app without a
// paired device.
package demo

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"earbridge/internal/ingest"
)

type step struct {
	delay   time.Duration
	payload string
}

// The script: an informational noise, then a voice, then a siren behind
// the user.
var script = []step{
	{2 * time.Second, `{"top":"bell","lado":"centro","conf":0.5}`},
	{10 * time.Second, `{"top":"human_voice","lado":"derecha","conf":0.7}`},
	{20 * time.Second, `{"top":"SIREN","lado":"atras","conf":0.95}`},
}

type Runner struct {
	pipe   *ingest.Pipeline
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewRunner(pipe *ingest.Pipeline, logger *slog.Logger) *Runner {
	return &Runner{pipe: pipe, logger: logger}
}

// Run starts (or restarts) the scenario. Steps fire relative to the call.
func (r *Runner) Run(ctx context.Context) {
	r.Stop()
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	if r.logger != nil {
		r.logger.Info("demo scenario started")
	}
	go r.play(ctx)
}

func (r *Runner) play(ctx context.Context) {
	start := time.Now()
	for _, s := range script {
		wait := s.delay - time.Since(start)
		if wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return
			}
		}
		if r.pipe.HandleMessage(ctx, s.payload, "demo") && r.logger != nil {
			r.logger.Info("demo detection injected", "payload", s.payload)
		}
	}
}

func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
		if r.logger != nil {
			r.logger.Info("demo scenario stopped")
		}
	}
}
