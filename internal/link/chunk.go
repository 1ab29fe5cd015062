package link

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeChunk turns one transport notification into text. The firmware sends
// standard-alphabet base64; padding may already be stripped by the bridge.
func DecodeChunk(raw string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "=")
	if trimmed == "" {
		return "", nil
	}
	data, err := base64.RawStdEncoding.DecodeString(trimmed)
	if err != nil {
		return "", fmt.Errorf("decode chunk: %w", err)
	}
	return string(data), nil
}
