package gather

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"quill/internal/logging"
	"quill/internal/remote"
)

// DefaultMaxFileSize caps any single gathered file.
const DefaultMaxFileSize = 1 << 20

// Options configure a Gatherer.
type Options struct {
	MaxFileSize int64
	HTTPTimeout time.Duration
}

// Gatherer assembles run context from heterogeneous sources: local glob
// patterns, http(s) URLs, and sftp remotes. The collected text is meant to
// be prepended to the user's input before a run.
type Gatherer struct {
	httpClient  *http.Client
	maxFileSize int64
}

// New creates a gatherer.
func New(opts Options) *Gatherer {
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gatherer{
		httpClient:  &http.Client{Timeout: timeout},
		maxFileSize: maxSize,
	}
}

// Collect resolves every source and concatenates the results, each under a
// header naming where it came from. Source order is preserved.
func (g *Gatherer) Collect(ctx context.Context, sources []string) (string, error) {
	var b strings.Builder
	for _, src := range sources {
		switch {
		case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
			text, err := g.fetchURL(ctx, src)
			if err != nil {
				return "", fmt.Errorf("failed to gather %s: %w", src, err)
			}
			writeSection(&b, src, text)

		case strings.HasPrefix(src, "sftp://"):
			parsed, err := remote.ParseSource(src)
			if err != nil {
				return "", err
			}
			files, err := remote.Fetch(ctx, parsed, g.maxFileSize)
			if err != nil {
				return "", fmt.Errorf("failed to gather %s: %w", src, err)
			}
			for _, name := range sortedKeys(files) {
				writeSection(&b, src+" "+name, files[name])
			}

		default:
			files, err := g.localFiles(src)
			if err != nil {
				return "", err
			}
			for _, path := range files {
				text, ok, err := g.readLocal(path)
				if err != nil {
					return "", err
				}
				if !ok {
					continue
				}
				writeSection(&b, path, text)
			}
		}
	}
	return b.String(), nil
}

// LocalPaths expands every non-URL, non-sftp source to matching file
// paths. The watcher uses this to know what to watch.
func (g *Gatherer) LocalPaths(sources []string) ([]string, error) {
	var paths []string
	for _, src := range sources {
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "sftp://") {
			continue
		}
		matches, err := g.localFiles(src)
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

func (g *Gatherer) localFiles(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad context pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		// A literal path that exists but matched nothing as a glob is
		// still usable; anything else is a user error worth surfacing.
		if _, statErr := os.Stat(pattern); statErr == nil {
			return []string{pattern}, nil
		}
		return nil, fmt.Errorf("context pattern %q matched no files", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

// readLocal returns the file's text and whether it is usable as context.
// Oversized and binary files are skipped, not fatal.
func (g *Gatherer) readLocal(path string) (string, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", false, nil
	}
	if info.Size() > g.maxFileSize {
		logging.Warn("skipping oversized context file", "path", path, "size", info.Size())
		return "", false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if isBinary(data) {
		logging.Warn("skipping binary context file", "path", path)
		return "", false, nil
	}
	return string(data), true, nil
}

// isBinary sniffs for a NUL byte in the head of the file.
func isBinary(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.IndexByte(head, 0) >= 0
}

func writeSection(b *strings.Builder, name, text string) {
	fmt.Fprintf(b, "--- context: %s ---\n%s\n\n", name, strings.TrimRight(text, "\n"))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
