// internal/webfetch/extract.go
package webfetch

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Pre-compiled to avoid runtime regex compilation on every document.
var excessiveLinesRe = regexp.MustCompile(`\n{4,}`)

const excerptMaxLen = 280

// Extraction is the readable portion of a fetched page.
type Extraction struct {
	Title    string
	Markdown string
	Excerpt  string
	SiteName string
}

// Extractor turns raw HTML into readable markdown.
type Extractor struct {
	converter *md.Converter
}

// NewExtractor creates a new extractor with GitHub-flavored markdown output.
func NewExtractor() *Extractor {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &Extractor{converter: converter}
}

// Extract runs readability over the HTML and converts the article body
// to markdown. Falls back to converting the whole document when
// readability cannot identify an article.
func (e *Extractor) Extract(htmlContent []byte, pageURL string) (*Extraction, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = &url.URL{}
	}

	article, err := readability.FromReader(bytes.NewReader(htmlContent), parsedURL)
	if err != nil {
		return e.extractFallback(htmlContent)
	}

	markdown, err := e.converter.ConvertString(article.Content)
	if err != nil {
		return nil, fmt.Errorf("convert to markdown: %w", err)
	}
	markdown = cleanMarkdown(markdown)

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = extractMarkdownTitle(markdown)
	}

	excerpt := strings.TrimSpace(article.Excerpt)
	if excerpt == "" {
		excerpt = buildExcerpt(markdown)
	}

	return &Extraction{
		Title:    title,
		Markdown: markdown,
		Excerpt:  excerpt,
		SiteName: article.SiteName,
	}, nil
}

// extractFallback converts the raw document when readability fails.
func (e *Extractor) extractFallback(htmlContent []byte) (*Extraction, error) {
	markdown, err := e.converter.ConvertString(string(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("convert to markdown: %w", err)
	}
	markdown = cleanMarkdown(markdown)

	title := extractHTMLTitle(htmlContent)
	if title == "" {
		title = extractMarkdownTitle(markdown)
	}

	return &Extraction{
		Title:    title,
		Markdown: markdown,
		Excerpt:  buildExcerpt(markdown),
	}, nil
}

// extractHTMLTitle extracts the <title> text from HTML.
func extractHTMLTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}

	var title string
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if title != "" {
				return
			}
			extract(c)
		}
	}
	extract(doc)

	return title
}

// cleanMarkdown cleans up converted markdown.
func cleanMarkdown(content string) string {
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")

	return strings.TrimSpace(content)
}

// extractMarkdownTitle extracts the first H1 heading from markdown.
func extractMarkdownTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// buildExcerpt takes the first non-heading prose lines of the markdown.
func buildExcerpt(markdown string) string {
	var sb strings.Builder
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(trimmed)
		if sb.Len() >= excerptMaxLen {
			break
		}
	}

	excerpt := sb.String()
	if len(excerpt) > excerptMaxLen {
		excerpt = excerpt[:excerptMaxLen]
		if idx := strings.LastIndex(excerpt, " "); idx > 0 {
			excerpt = excerpt[:idx]
		}
		excerpt += "…"
	}
	return excerpt
}
