package link

import (
	"bytes"
	"log/slog"
)

// DefaultBufferCap bounds the per-connection accumulation buffer. A stream
// that never produces a terminator gets wiped rather than growing without
// limit.
const DefaultBufferCap = 2000

// Framer reassembles brace-terminated messages out of an arbitrary stream of
// decoded chunks. One Framer per connection; not safe for concurrent use,
// the transport delivers notifications one at a time in arrival order.
type Framer struct {
	buf    []byte
	cap    int
	logger *slog.Logger
}

func NewFramer(bufferCap int, logger *slog.Logger) *Framer {
	if bufferCap <= 0 {
		bufferCap = DefaultBufferCap
	}
	return &Framer{cap: bufferCap, logger: logger}
}

// Feed appends a chunk and returns every complete message that is now
// available, in order. A message is everything up to and including the first
// '}' remaining in the buffer.
func (f *Framer) Feed(chunk string) []string {
	f.buf = append(f.buf, chunk...)
	var msgs []string
	for {
		i := bytes.IndexByte(f.buf, '}')
		if i < 0 {
			break
		}
		msgs = append(msgs, string(f.buf[:i+1]))
		f.buf = f.buf[:copy(f.buf, f.buf[i+1:])]
	}
	if len(f.buf) > f.cap {
		if f.logger != nil {
			f.logger.Warn("frame buffer overflow without terminator, wiping", "size", len(f.buf), "cap", f.cap)
		}
		f.buf = f.buf[:0]
	}
	return msgs
}

// Reset clears the buffer. Called on connect and on transport disconnect.
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
}

// Pending reports how many buffered bytes are waiting for a terminator.
func (f *Framer) Pending() int {
	return len(f.buf)
}
