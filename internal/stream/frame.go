package stream

import (
	"encoding/json"
	"fmt"
	"strings"

	"quill/internal/logging"
	"quill/internal/pipeline"
)

// SSE framing: lines of interest are "data: <payload>"; the sentinel
// payload "[DONE]" closes a stream without carrying a frame.
const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// DecodeFrame extracts one frame from an SSE line. It returns ok=false for
// lines that carry no frame: comment/keep-alive lines without the data
// prefix, the [DONE] sentinel, and payloads that fail to parse. A malformed
// payload drops exactly that frame and never fails the stream; see
// dropMalformedFrame.
func DecodeFrame(line string) (pipeline.Frame, bool) {
	if !strings.HasPrefix(line, dataPrefix) {
		return pipeline.Frame{}, false
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	if payload == "" || payload == doneSentinel {
		return pipeline.Frame{}, false
	}

	var f pipeline.Frame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		dropMalformedFrame(payload, err)
		return pipeline.Frame{}, false
	}
	return f, true
}

// dropMalformedFrame is the deliberate policy for unparsable payloads:
// log and move on, so one bad frame cannot sink an otherwise healthy run.
func dropMalformedFrame(payload string, err error) {
	if len(payload) > 120 {
		payload = payload[:120] + "..."
	}
	logging.Warn("dropping malformed frame", "error", err, "payload", payload)
}

// EncodeFrame renders a frame as one SSE data line, newline-terminated.
func EncodeFrame(f pipeline.Frame) ([]byte, error) {
	payload, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return []byte(dataPrefix + string(payload) + "\n"), nil
}

// DoneLine returns the stream-closing sentinel line.
func DoneLine() []byte {
	return []byte(dataPrefix + doneSentinel + "\n")
}
