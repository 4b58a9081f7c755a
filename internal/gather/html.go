package gather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var spaceRE = regexp.MustCompile(`\s+`)
var blankRE = regexp.MustCompile(`\n{3,}`)

// fetchURL downloads a page and reduces it to markdown-ish text. Non-HTML
// responses are returned as-is.
func (g *Gatherer) fetchURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "quill/1.0")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, g.maxFileSize))
	if err != nil {
		return "", err
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return string(body), nil
	}
	return extractText(string(body))
}

// extractText walks the parsed HTML and keeps readable content, skipping
// chrome (nav, scripts, footers) and marking headings and list items.
func extractText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	skipTags := map[string]bool{
		"script": true, "style": true, "nav": true, "footer": true,
		"header": true, "aside": true, "noscript": true, "iframe": true,
	}
	blockTags := map[string]bool{
		"p": true, "div": true, "section": true, "article": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"li": true, "tr": true, "blockquote": true, "pre": true, "table": true,
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			if skipTags[tag] {
				return
			}
			switch tag {
			case "h1":
				b.WriteString("\n# ")
			case "h2":
				b.WriteString("\n## ")
			case "h3", "h4", "h5", "h6":
				b.WriteString("\n### ")
			case "li":
				b.WriteString("\n- ")
			case "br":
				b.WriteString("\n")
			case "pre":
				b.WriteString("\n```\n")
			case "p", "div", "section", "article", "blockquote":
				b.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				b.WriteString(spaceRE.ReplaceAllString(text, " "))
				b.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			if tag == "pre" {
				b.WriteString("\n```\n")
			}
			if blockTags[tag] {
				b.WriteString("\n")
			}
		}
	}

	start := findBody(doc)
	if start == nil {
		start = doc
	}
	walk(start)

	out := blankRE.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(out), nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && strings.ToLower(n.Data) == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findBody(c); found != nil {
			return found
		}
	}
	return nil
}
