package stream

import "bytes"

// LineScanner is an incremental line framer for a chunked byte stream.
// Chunks are buffered as raw bytes and a line is only emitted once its
// terminator has been seen, so a chunk boundary may fall mid-line or even
// mid multi-byte UTF-8 sequence without corrupting the output.
type LineScanner struct {
	buf []byte
}

// Feed appends a chunk to the buffer and returns every newly completed
// line, without terminators. The trailing fragment after the last newline
// stays buffered until a later chunk completes it.
func (s *LineScanner) Feed(chunk []byte) []string {
	s.buf = append(s.buf, chunk...)

	var lines []string
	start := 0
	for {
		i := bytes.IndexByte(s.buf[start:], '\n')
		if i < 0 {
			break
		}
		line := s.buf[start : start+i]
		// Tolerate CRLF-terminated streams.
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		lines = append(lines, string(line))
		start += i + 1
	}
	if start > 0 {
		s.buf = append(s.buf[:0], s.buf[start:]...)
	}
	return lines
}

// Rest returns the unterminated fragment still held in the buffer.
func (s *LineScanner) Rest() string {
	return string(s.buf)
}
