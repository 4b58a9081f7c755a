package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSource(t *testing.T) {
	src, err := ParseSource("sftp://alice@files.example.com:2222/srv/docs/*.md")
	require.NoError(t, err)
	assert.Equal(t, "alice", src.User)
	assert.Equal(t, "files.example.com", src.Host)
	assert.Equal(t, "2222", src.Port)
	assert.Equal(t, "/srv/docs/*.md", src.Path)
}

func TestParseSourceDefaults(t *testing.T) {
	t.Setenv("USER", "bob")
	src, err := ParseSource("sftp://files.example.com/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "bob", src.User)
	assert.Equal(t, "22", src.Port)
}

func TestParseSourceRejectsBadInput(t *testing.T) {
	for _, raw := range []string{
		"https://example.com/x",
		"sftp://",
		"sftp://hostonly",
		"not a url at all",
	} {
		_, err := ParseSource(raw)
		assert.Error(t, err, raw)
	}
}
