package sources

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"time"
)

const (
	// minContentRunes is the smallest extraction worth keeping; anything
	// shorter is usually a paywall stub or a consent page.
	minContentRunes = 50

	maxBodyBytes = 1 << 20 // 1 MiB
)

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	headRe   = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
)

// ContentExtractor fetches a news article page and reduces it to plain
// text. Extraction is best-effort: any failure returns "" and the caller
// falls back to the collector-provided summary.
type ContentExtractor struct {
	httpClient *http.Client
}

// NewContentExtractor creates an extractor with a bounded request timeout.
func NewContentExtractor(timeout time.Duration) *ContentExtractor {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ContentExtractor{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Extract returns the article body text for the URL, or "" when the
// page cannot be fetched or yields too little text.
func (e *ContentExtractor) Extract(ctx context.Context, url string) string {
	if url == "" {
		return ""
	}

	text, err := e.fetch(ctx, url)
	if err != nil {
		log.Printf("article extraction failed for %s: %v", url, err)
		return ""
	}
	if len([]rune(text)) < minContentRunes {
		return ""
	}
	return text
}

func (e *ContentExtractor) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; stockrag/1.0)")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	html := string(body)
	html = headRe.ReplaceAllString(html, " ")
	html = scriptRe.ReplaceAllString(html, " ")
	return StripHTML(html), nil
}
