package ingest

import (
	"context"
	"strings"
	"testing"

	"earbridge/internal/classify"
	"earbridge/internal/link"
	"earbridge/internal/model"
)

func newTestPipeline(buf int) (*Pipeline, chan model.Detection) {
	out := make(chan model.Detection, buf)
	pipe := NewPipeline(classify.NewNormalizer(nil, "esp32"), out, nil)
	return pipe, out
}

func TestEndToEndNewFormatSplitChunks(t *testing.T) {
	pipe, out := newTestPipeline(4)
	framer := link.NewFramer(0, nil)

	for _, msg := range framer.Feed(`{"S":"Si",`) {
		pipe.HandleMessage(context.Background(), msg, "tcp")
	}
	if len(out) != 0 {
		t.Fatalf("detection before message complete")
	}
	for _, msg := range framer.Feed(`"L":"Iz"}`) {
		pipe.HandleMessage(context.Background(), msg, "tcp")
	}
	if len(out) != 1 {
		t.Fatalf("detections: %d", len(out))
	}
	det := <-out
	if det.Type != "sirena" || det.Priority != model.PriorityRed {
		t.Fatalf("classification: %q/%q", det.Type, det.Priority)
	}
	if det.Direction != model.DirectionLeft {
		t.Fatalf("direction: %q", det.Direction)
	}
	if det.Intensity != 0.5 {
		t.Fatalf("intensity: %v", det.Intensity)
	}
}

func TestEndToEndDegradedLegacyText(t *testing.T) {
	pipe, out := newTestPipeline(4)
	framer := link.NewFramer(0, nil)

	// degraded non-JSON text, still brace-terminated by the firmware
	for _, msg := range framer.Feed(`top bell lado centro conf 0.5}`) {
		pipe.HandleMessage(context.Background(), msg, "tcp")
	}
	if len(out) != 1 {
		t.Fatalf("detections: %d", len(out))
	}
	det := <-out
	if det.Type != "ruido" || det.Priority != model.PriorityGreen {
		t.Fatalf("fallback classification: %q/%q", det.Type, det.Priority)
	}
	if det.Direction != model.DirectionFront {
		t.Fatalf("direction: %q", det.Direction)
	}
	if det.Intensity != 0.5 {
		t.Fatalf("intensity: %v", det.Intensity)
	}
}

func TestEndToEndRecoversAfterOverflow(t *testing.T) {
	pipe, out := newTestPipeline(4)
	framer := link.NewFramer(2000, nil)

	if msgs := framer.Feed(strings.Repeat("x", 2001)); len(msgs) != 0 {
		t.Fatalf("messages from overflow: %d", len(msgs))
	}
	for _, msg := range framer.Feed(`{"S":"Ca","L":"Der"}`) {
		pipe.HandleMessage(context.Background(), msg, "tcp")
	}
	if len(out) != 1 {
		t.Fatalf("detections after recovery: %d", len(out))
	}
	det := <-out
	if det.Type != "claxon" || det.Direction != model.DirectionRight {
		t.Fatalf("detection after recovery: %q/%q", det.Type, det.Direction)
	}
}

func TestUndecodableMessageDropped(t *testing.T) {
	pipe, out := newTestPipeline(4)
	if pipe.HandleMessage(context.Background(), `###}`, "tcp") {
		t.Fatalf("garbage message accepted")
	}
	if len(out) != 0 {
		t.Fatalf("detections: %d", len(out))
	}
}

func TestSendNonBlockingDropsWhenFull(t *testing.T) {
	out := make(chan model.Detection, 1)
	det := model.Detection{Type: "sirena"}
	if !SendNonBlocking(context.Background(), out, det, nil) {
		t.Fatalf("send into empty channel failed")
	}
	if SendNonBlocking(context.Background(), out, det, nil) {
		t.Fatalf("send into full channel should drop")
	}
}
