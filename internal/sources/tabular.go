package sources

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// KRX daily trade report column headers.
const (
	colName         = "ISU_ABBRV"
	colCode         = "ISU_CD"
	colOpen         = "TDD_OPNPRC"
	colHigh         = "TDD_HGPRC"
	colLow          = "TDD_LWPRC"
	colClose        = "TDD_CLSPRC"
	colTradingValue = "ACC_TRDVAL"
	colChangeRate   = "FLUC_RT"
)

// LoadTabular reads a KRX daily trading CSV. Rows missing a stock name
// or code are skipped; a malformed numeric field zeroes that field
// rather than dropping the row.
func LoadTabular(path string) (*TabularDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(rows) == 0 {
		return &TabularDocument{Filename: filepath.Base(path)}, nil
	}

	// Header row may carry a UTF-8 BOM from the collector.
	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	if _, ok := col[colName]; !ok {
		return nil, fmt.Errorf("%s: missing %s column, not a KRX daily report", path, colName)
	}

	doc := &TabularDocument{Filename: filepath.Base(path)}
	for _, row := range rows[1:] {
		name := field(row, col, colName)
		code := field(row, col, colCode)
		if name == "" || code == "" {
			continue
		}
		doc.Records = append(doc.Records, StockRecord{
			Name:         name,
			Code:         code,
			Open:         numField(row, col, colOpen),
			High:         numField(row, col, colHigh),
			Low:          numField(row, col, colLow),
			Close:        numField(row, col, colClose),
			TradingValue: numField(row, col, colTradingValue),
			ChangeRate:   numField(row, col, colChangeRate),
		})
	}
	return doc, nil
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func numField(row []string, col map[string]int, name string) float64 {
	s := field(row, col, name)
	if s == "" {
		return 0
	}
	// KRX exports thousands separators.
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("unparseable %s value %q, using 0", name, s)
		return 0
	}
	return v
}

// FilterNoise drops records that fall in the bottom 70% by trading value
// AND in the bottom 70% by absolute change rate. A record survives when
// either ranking puts it in the top 30%: heavily traded but flat stocks
// and thinly traded movers both stay. Input order is preserved.
func FilterNoise(records []StockRecord) []StockRecord {
	n := len(records)
	if n == 0 {
		return nil
	}

	byValue := make([]int, n)
	byChange := make([]int, n)
	for i := range records {
		byValue[i], byChange[i] = i, i
	}
	sort.SliceStable(byValue, func(a, b int) bool {
		return records[byValue[a]].TradingValue < records[byValue[b]].TradingValue
	})
	sort.SliceStable(byChange, func(a, b int) bool {
		return math.Abs(records[byChange[a]].ChangeRate) < math.Abs(records[byChange[b]].ChangeRate)
	})

	cutoff := int(float64(n) * 0.7)
	lowValue := make(map[int]bool, cutoff)
	for _, idx := range byValue[:cutoff] {
		lowValue[idx] = true
	}
	lowChange := make(map[int]bool, cutoff)
	for _, idx := range byChange[:cutoff] {
		lowChange[idx] = true
	}

	var kept []StockRecord
	for i, rec := range records {
		if lowValue[i] && lowChange[i] {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

// FormatTabular renders a trading document as normalized text: a header,
// one line per surviving record, and a trailing count. The output is
// deterministic for identical input, which keeps re-ingestion idempotent
// at the text level.
func FormatTabular(doc *TabularDocument) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "File: %s\n", doc.Filename)
	fmt.Fprintf(&sb, "Total %d records\n\n", len(doc.Records))
	sb.WriteString("=== KRX daily trading report (70% noise filter) ===\n\n")

	kept := FilterNoise(doc.Records)
	for _, r := range kept {
		fmt.Fprintf(&sb, "Stock: %s (%s), Open: %s, High: %s, Low: %s, Close: %s, TradingValue: %s, ChangeRate: %.2f\n",
			r.Name, r.Code,
			formatPrice(r.Open), formatPrice(r.High), formatPrice(r.Low), formatPrice(r.Close),
			formatPrice(r.TradingValue), r.ChangeRate)
	}

	fmt.Fprintf(&sb, "\n%d stocks after filtering\n", len(kept))
	return sb.String()
}

// formatPrice prints whole-won prices without a decimal point.
func formatPrice(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
