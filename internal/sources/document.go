// Package sources loads the raw documents produced by the collectors,
// KRX daily trading CSVs and Naver news JSON files, and normalizes each
// into deterministic text for chunking.
package sources

// SourceType tags a store record with the kind of document it came from.
type SourceType string

const (
	TypeTabular SourceType = "csv"
	TypeNews    SourceType = "news"
)

// StockRecord is one row of a KRX daily trading CSV.
type StockRecord struct {
	Name         string
	Code         string
	Open         float64
	High         float64
	Low          float64
	Close        float64
	TradingValue float64
	ChangeRate   float64
}

// TabularDocument is one reporting date's trading records.
type TabularDocument struct {
	Filename string
	Records  []StockRecord
}

// Article is one news item as delivered by the news search collector.
type Article struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Link         string `json:"link"`
	OriginalLink string `json:"originallink"`
	PubDate      string `json:"pubDate"`
}

// NewsDocument is a collection of short articles from one collector run.
type NewsDocument struct {
	Filename string
	Articles []Article
}
