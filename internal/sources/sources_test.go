package sources

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const krxCSV = `ISU_ABBRV,ISU_CD,TDD_OPNPRC,TDD_HGPRC,TDD_LWPRC,TDD_CLSPRC,ACC_TRDVAL,FLUC_RT
삼성전자,005930,"70,000","71,500","69,800","71,000","1,500,000,000,000",2.50
한산틈새,000001,1000,1010,990,1000,1000000,0.10
조용중형,000002,2000,2010,1990,2000,2000000,0.20
활발소형,000003,500,620,480,600,3000000,20.00
대형횡보,000004,50000,50100,49900,50000,900000000000,0.05
`

func TestLoadTabular(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "krx_20250829.csv", krxCSV)

	doc, err := LoadTabular(path)
	if err != nil {
		t.Fatalf("LoadTabular: %v", err)
	}
	if doc.Filename != "krx_20250829.csv" {
		t.Errorf("filename = %q", doc.Filename)
	}
	if len(doc.Records) != 5 {
		t.Fatalf("got %d records, want 5", len(doc.Records))
	}

	first := doc.Records[0]
	if first.Name != "삼성전자" || first.Code != "005930" {
		t.Errorf("first record = %+v", first)
	}
	if first.Open != 70000 || first.TradingValue != 1.5e12 {
		t.Errorf("comma-separated numbers not parsed: %+v", first)
	}
	if first.ChangeRate != 2.5 {
		t.Errorf("change rate = %v, want 2.5", first.ChangeRate)
	}
}

func TestLoadTabularBOMHeader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bom.csv", "\uFEFF"+krxCSV)

	doc, err := LoadTabular(path)
	if err != nil {
		t.Fatalf("LoadTabular with BOM: %v", err)
	}
	if len(doc.Records) != 5 {
		t.Errorf("got %d records, want 5", len(doc.Records))
	}
}

func TestLoadTabularNotKRX(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "other.csv", "a,b\n1,2\n")

	if _, err := LoadTabular(path); err == nil {
		t.Fatal("expected error for non-KRX csv")
	}
}

func TestFilterNoiseBothBottomExcluded(t *testing.T) {
	// 5 records: bottom 70% means the 3 lowest in each ranking.
	records := []StockRecord{
		{Name: "big-mover", TradingValue: 100, ChangeRate: 30},   // top in both
		{Name: "quiet-1", TradingValue: 1, ChangeRate: 0.1},      // bottom in both
		{Name: "quiet-2", TradingValue: 2, ChangeRate: -0.2},     // bottom in both
		{Name: "heavy-flat", TradingValue: 90, ChangeRate: 0.05}, // top value, bottom change
		{Name: "light-mover", TradingValue: 3, ChangeRate: -25},  // bottom value, top change
	}

	kept := FilterNoise(records)

	names := make(map[string]bool)
	for _, r := range kept {
		names[r.Name] = true
	}
	for _, want := range []string{"big-mover", "heavy-flat", "light-mover"} {
		if !names[want] {
			t.Errorf("%s should survive the filter", want)
		}
	}
	for _, gone := range []string{"quiet-1", "quiet-2"} {
		if names[gone] {
			t.Errorf("%s should be filtered out", gone)
		}
	}
}

func TestFilterNoisePreservesOrder(t *testing.T) {
	records := []StockRecord{
		{Name: "c", TradingValue: 30, ChangeRate: 3},
		{Name: "a", TradingValue: 10, ChangeRate: 1},
		{Name: "b", TradingValue: 20, ChangeRate: 2},
	}
	kept := FilterNoise(records)
	for i := 1; i < len(kept); i++ {
		// Survivors must appear in input order, not rank order.
		if kept[i-1].Name == "a" && kept[i].Name == "c" {
			t.Error("input order not preserved")
		}
	}
}

func TestFormatTabularDeterministic(t *testing.T) {
	doc := &TabularDocument{
		Filename: "krx.csv",
		Records: []StockRecord{
			{Name: "삼성전자", Code: "005930", Open: 70000, High: 71500, Low: 69800, Close: 71000, TradingValue: 1.5e12, ChangeRate: 2.5},
		},
	}

	a := FormatTabular(doc)
	b := FormatTabular(doc)
	if a != b {
		t.Error("FormatTabular is not deterministic")
	}
	if !strings.Contains(a, "Stock: 삼성전자 (005930)") {
		t.Errorf("missing stock line:\n%s", a)
	}
	if !strings.Contains(a, "ChangeRate: 2.50") {
		t.Errorf("change rate not rendered with 2 decimals:\n%s", a)
	}
	if !strings.Contains(a, "Open: 70000") {
		t.Errorf("whole-won price rendered with decimals:\n%s", a)
	}
}

func TestFormatTabularExcludesFiltered(t *testing.T) {
	doc := &TabularDocument{
		Filename: "krx.csv",
		Records: []StockRecord{
			{Name: "winner", Code: "1", TradingValue: 100, ChangeRate: 10},
			{Name: "noise-a", Code: "2", TradingValue: 1, ChangeRate: 0.1},
			{Name: "noise-b", Code: "3", TradingValue: 2, ChangeRate: 0.2},
		},
	}

	text := FormatTabular(doc)
	if !strings.Contains(text, "winner") {
		t.Error("surviving record missing from rendered text")
	}
	// With n=3 the bottom 70% cutoff is 2; both noise records rank in
	// the bottom two by value and by |change|, so neither is rendered.
	if strings.Contains(text, "noise-a") || strings.Contains(text, "noise-b") {
		t.Errorf("filtered record leaked into rendered text:\n%s", text)
	}
}

const flatNewsJSON = `{
  "items": [
    {"title": "<b>삼성전자</b> 신고가", "description": "반도체 업황 개선<br>외국인 순매수", "link": "https://n.news.naver.com/a/1", "originallink": "https://press.example.com/a/1", "pubDate": "Fri, 29 Aug 2025 09:00:00 +0900"}
  ]
}`

const nestedNewsJSON = `{
  "stocks": {
    "삼성전자": {"items": [{"title": "기사1", "description": "요약1"}]},
    "하이브": {"items": [{"title": "기사2", "description": "요약2"}]}
  }
}`

func TestLoadNewsFlat(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "naver_news_recent_3.json", flatNewsJSON)

	doc, err := LoadNews(path)
	if err != nil {
		t.Fatalf("LoadNews: %v", err)
	}
	if len(doc.Articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(doc.Articles))
	}
	if doc.Articles[0].OriginalLink != "https://press.example.com/a/1" {
		t.Errorf("originallink = %q", doc.Articles[0].OriginalLink)
	}
}

func TestLoadNewsNested(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "stock_news.json", nestedNewsJSON)

	doc, err := LoadNews(path)
	if err != nil {
		t.Fatalf("LoadNews: %v", err)
	}
	if len(doc.Articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(doc.Articles))
	}
}

func TestStripHTML(t *testing.T) {
	cases := map[string]string{
		"<b>삼성전자</b> 신고가":    "삼성전자 신고가",
		"plain text":          "plain text",
		"a &amp; b &quot;c&quot;": `a & b "c"`,
		"line<br>break":       "line break",
		"  spaced   out  ":    "spaced out",
	}
	for in, want := range cases {
		if got := StripHTML(in); got != want {
			t.Errorf("StripHTML(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatArticlePrefersFullContent(t *testing.T) {
	a := Article{
		Title:       "<b>하이브</b> 세무조사",
		Description: "짧은 요약",
		Link:        "https://n.news.naver.com/a/2",
		PubDate:     "Fri, 29 Aug 2025 10:00:00 +0900",
	}

	withBody := FormatArticle(a, "전체 본문 텍스트")
	if !strings.Contains(withBody, "Body: 전체 본문 텍스트") {
		t.Errorf("full content not used:\n%s", withBody)
	}
	if strings.Contains(withBody, "짧은 요약") {
		t.Error("summary should be dropped when full content exists")
	}

	withoutBody := FormatArticle(a, "")
	if !strings.Contains(withoutBody, "Summary: 짧은 요약") {
		t.Errorf("summary fallback missing:\n%s", withoutBody)
	}
	if !strings.Contains(withoutBody, "Title: 하이브 세무조사") {
		t.Errorf("title not stripped of markup:\n%s", withoutBody)
	}
}

func TestBestLink(t *testing.T) {
	a := Article{Link: "naver", OriginalLink: "press"}
	if a.BestLink() != "press" {
		t.Error("originallink should win")
	}
	a.OriginalLink = ""
	if a.BestLink() != "naver" {
		t.Error("link fallback broken")
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "krx_daily.csv", "x")
	writeFile(t, dir, "naver_news_recent_3.json", "{}")
	writeFile(t, dir, "report.txt", "x")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	csvs, err := Discover(dir, []string{"*.csv"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(csvs) != 1 || filepath.Base(csvs[0]) != "krx_daily.csv" {
		t.Errorf("csv discovery = %v", csvs)
	}

	news, err := Discover(dir, []string{"*news*.json"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(news) != 1 {
		t.Errorf("news discovery = %v", news)
	}
}
