package queue

import (
	"context"
	"log/slog"
	"net"
	"time"

	"earbridge/internal/storage"
)

// Prober answers whether the backend is reachable right now.
type Prober interface {
	Online(ctx context.Context) bool
}

// DialProber considers the network up when a TCP dial to a known address
// succeeds.
type DialProber struct {
	Addr    string
	Timeout time.Duration
}

func (p DialProber) Online(_ context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	conn, err := net.DialTimeout("tcp", p.Addr, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Syncer periodically drains the queue into the store while online.
type Syncer struct {
	queue    *Queue
	store    storage.Store
	prober   Prober
	interval time.Duration
	logger   *slog.Logger
}

func NewSyncer(q *Queue, store storage.Store, prober Prober, interval time.Duration, logger *slog.Logger) *Syncer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Syncer{queue: q, store: store, prober: prober, interval: interval, logger: logger}
}

func (s *Syncer) Start(ctx context.Context) {
	go func() {
		for {
			if !backoffSleep(ctx, s.interval) {
				return
			}
			s.SyncOnce(ctx)
		}
	}()
}

// SyncOnce flushes every pending row it can; rows that fail to save stay
// queued for the next pass.
func (s *Syncer) SyncOnce(ctx context.Context) {
	if s.queue == nil || s.store == nil {
		return
	}
	if s.prober != nil && !s.prober.Online(ctx) {
		if s.logger != nil {
			s.logger.Debug("offline, skipping queue sync")
		}
		return
	}
	pending, err := s.queue.Pending()
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("read offline queue", "err", err)
		}
		return
	}
	if len(pending) == 0 {
		return
	}
	if s.logger != nil {
		s.logger.Info("syncing offline detections", "count", len(pending))
	}
	synced := pending[:0:0]
	for _, row := range pending {
		if err := s.store.SaveDetection(ctx, row); err != nil {
			if s.logger != nil {
				s.logger.Warn("sync detection", "err", err, "tipo", row.Tipo)
			}
			continue
		}
		synced = append(synced, row)
	}
	if len(synced) == 0 {
		return
	}
	if err := s.queue.Remove(synced); err != nil && s.logger != nil {
		s.logger.Warn("prune synced detections", "err", err)
	}
}

func backoffSleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = 200 * time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
