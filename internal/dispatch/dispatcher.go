// Package dispatch gates canonical detections before they reach the user:
// focus protection, per (type, direction) throttling, then hand-off to the
// persistence and presentation collaborators.
package dispatch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"earbridge/internal/alerts"
	"earbridge/internal/config"
	"earbridge/internal/model"
	"earbridge/internal/queue"
	"earbridge/internal/storage"
)

// Notifier is the presentation boundary. Real haptics and UI live outside
// this core.
type Notifier interface {
	ShowAlert(ctx context.Context, det model.Detection) error
	Vibrate(ctx context.Context, priority model.Priority) error
}

type Dispatcher struct {
	logger   *slog.Logger
	gate     *Gate
	alerts   *alerts.Store
	store    storage.Store
	queue    *queue.Queue
	notifier Notifier
	cfg      atomic.Value
	now      func() time.Time
}

func NewDispatcher(cfg *config.Config, logger *slog.Logger, gate *Gate, alertStore *alerts.Store, store storage.Store, q *queue.Queue, notifier Notifier) *Dispatcher {
	if gate == nil {
		gate = NewGate()
	}
	d := &Dispatcher{
		logger:   logger,
		gate:     gate,
		alerts:   alertStore,
		store:    store,
		queue:    q,
		notifier: notifier,
		now:      time.Now,
	}
	d.cfg.Store(cfg)
	return d
}

func (d *Dispatcher) UpdateConfig(cfg *config.Config) {
	d.cfg.Store(cfg)
}

func (d *Dispatcher) config() *config.Config {
	if v := d.cfg.Load(); v != nil {
		return v.(*config.Config)
	}
	return config.DefaultConfig()
}

func (d *Dispatcher) Gate() *Gate {
	return d.gate
}

// Start consumes detections from the pipeline channel until the context is
// cancelled.
func (d *Dispatcher) Start(ctx context.Context, in <-chan model.Detection) {
	go func() {
		for {
			select {
			case det := <-in:
				d.Dispatch(ctx, det)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Dispatch runs one detection through the gate. It reports whether the
// detection became a user-visible alert. Collaborator failures are logged
// and never propagate; the throttle stamp is already committed by then.
func (d *Dispatcher) Dispatch(ctx context.Context, det model.Detection) bool {
	cfg := d.config()
	now := d.now()

	switch d.gate.admit(det, now, cfg.Dispatch.ThrottleWindow) {
	case verdictSuppressedBusy:
		if d.logger != nil {
			d.logger.Info("alert suppressed during transcription",
				"type", det.Type, "priority", det.Priority)
		}
		return false
	case verdictThrottled:
		if d.logger != nil {
			d.logger.Debug("throttled duplicate alert",
				"type", det.Type, "direction", det.Direction)
		}
		return false
	}

	if det.Priority == model.PriorityRed && d.gate.Busy() && d.logger != nil {
		d.logger.Warn("critical override during transcription", "type", det.Type)
	}

	d.persist(ctx, det)
	if d.alerts != nil {
		d.alerts.Activate(det, cfg.Dispatch.DisplayWindow)
	}
	d.present(ctx, det)
	return true
}

func (d *Dispatcher) persist(ctx context.Context, det model.Detection) {
	if d.store == nil {
		return
	}
	row := storage.MapRow(det)
	if err := d.store.SaveDetection(ctx, row); err != nil {
		if d.logger != nil {
			d.logger.Error("persist detection", "err", err, "type", det.Type)
		}
		if d.queue != nil {
			if qerr := d.queue.Append(row); qerr != nil && d.logger != nil {
				d.logger.Error("queue detection", "err", qerr)
			}
		}
	}
}

func (d *Dispatcher) present(ctx context.Context, det model.Detection) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.ShowAlert(ctx, det); err != nil && d.logger != nil {
		d.logger.Error("show alert", "err", err, "type", det.Type)
	}
	if err := d.notifier.Vibrate(ctx, det.Priority); err != nil && d.logger != nil {
		d.logger.Error("vibrate", "err", err, "priority", det.Priority)
	}
}
