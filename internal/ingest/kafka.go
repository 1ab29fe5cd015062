package ingest

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"earbridge/internal/config"
	"earbridge/internal/link"
)

// StartKafka replays recorded link chunks from a topic, e.g. captures from
// a field test. Records carry the same base64 chunks the live bridge
// delivers, so they go through the same framer.
func StartKafka(ctx context.Context, cfg *config.Manager, pipe *Pipeline, logger *slog.Logger) {
	current := cfg.Get().Link.Kafka
	if !current.Enabled {
		if logger != nil {
			logger.Info("kafka replay disabled")
		}
		return
	}
	if logger != nil {
		logger.Info("kafka replay enabled", "brokers", current.Brokers, "topic", current.Topic, "group_id", current.GroupID)
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  current.Brokers,
		Topic:    current.Topic,
		GroupID:  current.GroupID,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	go func() {
		defer reader.Close()
		framer := link.NewFramer(cfg.Get().Link.BufferCap, logger)
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if logger != nil {
					logger.Warn("kafka read error", "err", err)
				}
				continue
			}
			chunk, err := link.DecodeChunk(string(m.Value))
			if err != nil {
				if logger != nil {
					logger.Warn("bad chunk in kafka record", "err", err, "offset", m.Offset)
				}
				continue
			}
			for _, msg := range framer.Feed(chunk) {
				pipe.HandleMessage(ctx, msg, "kafka")
			}
		}
	}()
}
