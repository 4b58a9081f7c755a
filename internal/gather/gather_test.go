package gather

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestCollectLocalGlob(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"notes/a.md":     "alpha notes",
		"notes/b.md":     "beta notes",
		"notes/skip.png": "\x00binary",
	})

	g := New(Options{})
	out, err := g.Collect(context.Background(), []string{filepath.Join(dir, "notes", "*.md")})
	require.NoError(t, err)

	assert.Contains(t, out, "alpha notes")
	assert.Contains(t, out, "beta notes")
	assert.Contains(t, out, "--- context: "+filepath.Join(dir, "notes", "a.md")+" ---")
	// Sorted: a.md before b.md.
	assert.Less(t, strings.Index(out, "alpha"), strings.Index(out, "beta"))
}

func TestCollectDoubleStar(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a/deep/x.txt": "deep text",
		"top.txt":      "top text",
	})

	g := New(Options{})
	out, err := g.Collect(context.Background(), []string{filepath.Join(dir, "**", "*.txt")})
	require.NoError(t, err)
	assert.Contains(t, out, "deep text")
	assert.Contains(t, out, "top text")
}

func TestCollectLiteralPath(t *testing.T) {
	dir := writeFiles(t, map[string]string{"doc.md": "the doc"})

	g := New(Options{})
	out, err := g.Collect(context.Background(), []string{filepath.Join(dir, "doc.md")})
	require.NoError(t, err)
	assert.Contains(t, out, "the doc")
}

func TestCollectNoMatches(t *testing.T) {
	g := New(Options{})
	_, err := g.Collect(context.Background(), []string{filepath.Join(t.TempDir(), "*.nope")})
	assert.ErrorContains(t, err, "matched no files")
}

func TestCollectSkipsBinaryAndOversized(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ok.txt":  "fine",
		"bin.dat": "head\x00tail",
		"big.txt": strings.Repeat("x", 2048),
	})

	g := New(Options{MaxFileSize: 1024})
	out, err := g.Collect(context.Background(), []string{filepath.Join(dir, "*")})
	require.NoError(t, err)
	assert.Contains(t, out, "fine")
	assert.NotContains(t, out, "tail")
	assert.NotContains(t, out, "xxxx")
}

func TestCollectURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "quill")
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, `<html><head><title>t</title><script>var x=1;</script></head>
<body><h1>Heading</h1><p>Body paragraph.</p><ul><li>point one</li></ul></body></html>`)
	}))
	defer srv.Close()

	g := New(Options{})
	out, err := g.Collect(context.Background(), []string{srv.URL})
	require.NoError(t, err)

	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "Body paragraph.")
	assert.Contains(t, out, "point one")
	assert.NotContains(t, out, "var x=1")
	assert.Contains(t, out, "--- context: "+srv.URL+" ---")
}

func TestCollectURLPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "raw text body")
	}))
	defer srv.Close()

	g := New(Options{})
	out, err := g.Collect(context.Background(), []string{srv.URL})
	require.NoError(t, err)
	assert.Contains(t, out, "raw text body")
}

func TestCollectURLErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g := New(Options{})
	_, err := g.Collect(context.Background(), []string{srv.URL})
	assert.Error(t, err)
}

func TestCollectPreservesSourceOrder(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"second.txt": "second content",
		"first.txt":  "first content",
	})

	g := New(Options{})
	out, err := g.Collect(context.Background(), []string{
		filepath.Join(dir, "second.txt"),
		filepath.Join(dir, "first.txt"),
	})
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "second content"), strings.Index(out, "first content"))
}

func TestLocalPaths(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.md": "a",
		"b.md": "b",
	})

	g := New(Options{})
	paths, err := g.LocalPaths([]string{
		filepath.Join(dir, "*.md"),
		"https://example.com/page",
		"sftp://host/remote.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.md"), filepath.Join(dir, "b.md")}, paths)
}
