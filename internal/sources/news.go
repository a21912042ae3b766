package sources

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// newsFile mirrors the collector's JSON layout. Flat collections put
// articles under "items"; per-stock collections nest them under
// "stocks.<name>.items".
type newsFile struct {
	Items  []Article `json:"items"`
	Stocks map[string]struct {
		Items []Article `json:"items"`
	} `json:"stocks"`
}

// LoadNews reads a news JSON file in either collector layout.
func LoadNews(path string) (*NewsDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	var nf newsFile
	if err := json.Unmarshal(data, &nf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	doc := &NewsDocument{Filename: filepath.Base(path)}
	doc.Articles = append(doc.Articles, nf.Items...)
	for _, stock := range nf.Stocks {
		doc.Articles = append(doc.Articles, stock.Items...)
	}
	return doc, nil
}

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// StripHTML removes markup tags and collapses runs of whitespace. The
// news search API returns titles and summaries with <b> highlighting
// and entities left in place.
func StripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	return strings.Join(strings.Fields(s), " ")
}

// FormatArticle renders one article as normalized text. Each article is
// formatted individually so chunk boundaries never straddle unrelated
// articles. fullContent is the extracted article body; when empty the
// collector-provided summary is used instead.
func FormatArticle(a Article, fullContent string) string {
	var parts []string

	if title := StripHTML(a.Title); title != "" {
		parts = append(parts, "Title: "+title)
	}

	if fullContent != "" {
		parts = append(parts, "Body: "+fullContent)
	} else if desc := StripHTML(a.Description); desc != "" {
		parts = append(parts, "Summary: "+desc)
	}

	if a.PubDate != "" {
		parts = append(parts, "Published: "+a.PubDate)
	}
	if link := a.BestLink(); link != "" {
		parts = append(parts, "Link: "+link)
	}

	return strings.Join(parts, "\n")
}

// BestLink prefers the publisher's original URL over the aggregator one.
func (a Article) BestLink() string {
	if a.OriginalLink != "" {
		return a.OriginalLink
	}
	return a.Link
}
