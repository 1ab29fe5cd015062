// Package ingest hosts the link sources: the TCP bridge carrying live
// device notifications, a Kafka replay source, and a REST endpoint for raw
// payload injection. Every source runs messages through the same
// frame → decode → normalize path and feeds one shared channel.
package ingest

import (
	"context"
	"log/slog"

	"earbridge/internal/classify"
	"earbridge/internal/decode"
	"earbridge/internal/model"
)

// Pipeline is the shared decode/normalize stage between framing and
// dispatch.
type Pipeline struct {
	normalizer *classify.Normalizer
	out        chan<- model.Detection
	logger     *slog.Logger
}

func NewPipeline(normalizer *classify.Normalizer, out chan<- model.Detection, logger *slog.Logger) *Pipeline {
	return &Pipeline{normalizer: normalizer, out: out, logger: logger}
}

// HandleMessage decodes and normalizes one complete framed message and
// forwards the detection. Undecodable messages are dropped with a warning;
// the stream continues.
func (p *Pipeline) HandleMessage(ctx context.Context, msg, link string) bool {
	raw := decode.Decode(msg)
	det, err := p.normalizer.Normalize(raw)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("dropping undecodable message", "err", err, "link", link, "raw", msg)
		}
		return false
	}
	if det.Extra != nil {
		det.Extra["link"] = link
	}
	return SendNonBlocking(ctx, p.out, det, p.logger)
}

// SendNonBlocking drops the detection instead of blocking when the channel
// is full; sound events arrive at human-scale rates, so a full channel
// means something downstream is stuck.
func SendNonBlocking(ctx context.Context, out chan<- model.Detection, det model.Detection, logger *slog.Logger) bool {
	select {
	case out <- det:
		return true
	case <-ctx.Done():
		return false
	default:
		if logger != nil {
			logger.Warn("detection channel full, dropping event", "type", det.Type, "priority", det.Priority)
		}
		return false
	}
}
