// internal/webfetch/webfetch_test.go
package webfetch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{
			name:    "valid https URL",
			url:     "https://go.dev/doc/effective_go",
			wantErr: false,
		},
		{
			name:    "valid http URL",
			url:     "http://example.com/page",
			wantErr: false,
		},
		{
			name:    "ftp scheme rejected",
			url:     "ftp://example.com/file",
			wantErr: true,
		},
		{
			name:    "localhost rejected",
			url:     "https://localhost:8080",
			wantErr: true,
		},
		{
			name:    "private IP rejected",
			url:     "https://192.168.1.1/path",
			wantErr: true,
		},
		{
			name:    "loopback IP rejected",
			url:     "http://127.0.0.1/admin",
			wantErr: true,
		},
		{
			name:    "missing host rejected",
			url:     "https:///path",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExtractHTMLTitle(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "simple title",
			html:     "<html><head><title>My Page</title></head><body></body></html>",
			expected: "My Page",
		},
		{
			name:     "title with whitespace",
			html:     "<html><head><title>  Spaced Title  </title></head></html>",
			expected: "Spaced Title",
		},
		{
			name:     "no title",
			html:     "<html><head></head><body>Content</body></html>",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractHTMLTitle([]byte(tt.html)))
		})
	}
}

func TestExtractMarkdownTitle(t *testing.T) {
	assert.Equal(t, "Hello World", extractMarkdownTitle("# Hello World\n\nContent here"))
	assert.Equal(t, "Title Here", extractMarkdownTitle("Some text\n\n# Title Here\n\nMore"))
	assert.Equal(t, "", extractMarkdownTitle("## Section\n\nContent"))
}

func TestCleanMarkdown(t *testing.T) {
	input := "# Title\n\n\n\n\n\nParagraph with trailing spaces   \n"
	got := cleanMarkdown(input)

	assert.NotContains(t, got, "\n\n\n\n")
	assert.NotContains(t, got, "spaces   ")
	assert.True(t, strings.HasPrefix(got, "# Title"))
}

func TestExtract(t *testing.T) {
	page := `<html>
<head><title>Content Strategy Basics</title></head>
<body>
<nav>Home | About</nav>
<article>
<h1>Content Strategy Basics</h1>
<p>A content strategy aligns every article with a business goal. It starts from audience research and keyword intent rather than from topics the team happens to like. This opening paragraph is long enough for readability to treat the article as the main content of the page.</p>
<p>Second paragraph with <strong>bold text</strong> and a <a href="https://example.com/guide">link</a> to keep the converter busy.</p>
</article>
<footer>Copyright</footer>
</body>
</html>`

	e := NewExtractor()
	got, err := e.Extract([]byte(page), "https://example.com/post")
	require.NoError(t, err)

	assert.Contains(t, got.Title, "Content Strategy Basics")
	assert.Contains(t, got.Markdown, "content strategy aligns")
	assert.Contains(t, got.Markdown, "**bold text**")
	assert.NotEmpty(t, got.Excerpt)
}

func TestExtractFallbackOnEmptyDocument(t *testing.T) {
	e := NewExtractor()
	got, err := e.Extract([]byte("<html><head><title>Bare</title></head><body><p>tiny</p></body></html>"), "https://example.com")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestBuildExcerptTruncates(t *testing.T) {
	long := strings.Repeat("word ", 200)
	got := buildExcerpt(long)

	assert.LessOrEqual(t, len(got), excerptMaxLen+len("…"))
	assert.True(t, strings.HasSuffix(got, "…"))
}
