// Package report renders reconciled inventory as CSV and prints the run
// summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/kickcheck/reconciler/internal/domain"
	"github.com/kickcheck/reconciler/internal/infrastructure/executor"
	"github.com/kickcheck/reconciler/internal/usecase"
)

// columns is the output column order. Downstream spreadsheets key on
// these names, so the order and spelling are fixed.
var columns = []string{
	"original_shoe_name", "original_size", "original_price", "condition",
	"stockx_bid", "stockx_ask", "bid_profit", "ask_profit",
	"last5_avg_price", "last5_avg_days", "last5_price_range", "last5_time_range",
	"lowest_consigned", "last_consigned_price", "last_consigned_date",
	"lowest_with_you", "last_with_you_price", "last_with_you_date",
	"stockx_sku", "stockx_url", "stockx_size", "stockx_shoe_name",
}

// Writer renders output records as CSV
type Writer struct {
	out io.Writer
}

// NewWriter creates a CSV report writer targeting out
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Write renders the header and one row per record. Missing values render
// as empty cells.
func (w *Writer) Write(records []domain.OutputRecord) error {
	cw := csv.NewWriter(w.out)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, record := range records {
		if err := cw.Write(row(record)); err != nil {
			return fmt.Errorf("failed to write record for %q: %w", record.OriginalShoeName, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func row(r domain.OutputRecord) []string {
	return []string{
		r.OriginalShoeName,
		r.OriginalSize,
		money(r.OriginalPrice),
		r.Condition,
		money(r.StockXBid),
		money(r.StockXAsk),
		money(r.BidProfit),
		money(r.AskProfit),
		money(r.Last5AvgPrice),
		dayCount(r.Last5AvgDays),
		r.Last5PriceRange,
		r.Last5TimeRange,
		money(r.LowestConsigned),
		money(r.LastConsignedPrice),
		r.LastConsignedDate,
		money(r.LowestWithYou),
		money(r.LastWithYouPrice),
		r.LastWithYouDate,
		r.StockXSKU,
		r.StockXURL,
		r.StockXSize,
		r.StockXShoeName,
	}
}

func money(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func dayCount(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *v)
}

// PrintSummary prints the end-of-run counts. It targets stderr in the CLI
// so a report piped through stdout stays clean.
func PrintSummary(w io.Writer, stats *usecase.BatchStats, exec executor.Stats) {
	fmt.Fprintf(w, "Processed %d items: %d matched, %d unmatched, %d failed\n",
		stats.Processed, stats.Matched, stats.Unmatched, stats.Failed)
	if stats.SkippedLines > 0 {
		fmt.Fprintf(w, "Skipped %d unparseable input lines\n", stats.SkippedLines)
	}
	fmt.Fprintf(w, "Requests: %d sent, %d cache hits, %d rate-limit hits, %d retries, %d failures\n",
		exec.Requests, exec.CacheHits, exec.RateLimitHits, exec.Retries, exec.Failures)
}
