package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedSingleChunk(t *testing.T) {
	var s LineScanner
	lines := s.Feed([]byte("one\ntwo\nthree"))
	assert.Equal(t, []string{"one", "two"}, lines)
	assert.Equal(t, "three", s.Rest())

	lines = s.Feed([]byte("\n"))
	assert.Equal(t, []string{"three"}, lines)
	assert.Empty(t, s.Rest())
}

func TestFeedStripsCarriageReturn(t *testing.T) {
	var s LineScanner
	lines := s.Feed([]byte("data: a\r\ndata: b\r\n"))
	assert.Equal(t, []string{"data: a", "data: b"}, lines)
}

func TestFeedEmptyLines(t *testing.T) {
	var s LineScanner
	lines := s.Feed([]byte("\n\nx\n"))
	assert.Equal(t, []string{"", "", "x"}, lines)
}

// The stream may be split at any byte offset, including inside a multi-byte
// UTF-8 sequence. Reassembled lines must come out identical regardless of
// where the split falls.
func TestFeedSplitAtEveryOffset(t *testing.T) {
	input := "data: {\"type\":\"step-complete\",\"stepId\":\"résumé\"}\ndata: { \"emoji\": \"\U0001f389\" }\n"
	want := []string{
		"data: {\"type\":\"step-complete\",\"stepId\":\"résumé\"}",
		"data: { \"emoji\": \"\U0001f389\" }",
	}

	raw := []byte(input)
	for cut := 0; cut <= len(raw); cut++ {
		var s LineScanner
		var got []string
		got = append(got, s.Feed(raw[:cut])...)
		got = append(got, s.Feed(raw[cut:])...)
		require.Equal(t, want, got, "split at byte %d", cut)
	}
}

func TestFeedOneByteAtATime(t *testing.T) {
	var s LineScanner
	var got []string
	for _, b := range []byte("ab\ncd\n") {
		got = append(got, s.Feed([]byte{b})...)
	}
	assert.Equal(t, []string{"ab", "cd"}, got)
}
