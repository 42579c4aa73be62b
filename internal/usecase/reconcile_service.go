package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/kickcheck/reconciler/internal/domain"
)

const (
	defaultProgressEvery = 5
	defaultMaxWorkers    = 3
)

// ReconcileConfig holds configuration for the reconciliation engine
type ReconcileConfig struct {
	CategoryFallback   []domain.SizeCategory
	ProgressEvery      int
	Parallel           bool
	MaxWorkers         int
	EnableDebugLogging bool
}

// BatchStats summarizes one reconciliation run. SkippedLines is filled in
// by the caller from the parse report.
type BatchStats struct {
	Processed    int `json:"processed"`
	Matched      int `json:"matched"`
	Unmatched    int `json:"unmatched"`
	Failed       int `json:"failed"`
	SkippedLines int `json:"skippedLines"`
}

type itemOutcome int

const (
	outcomeMatched itemOutcome = iota
	outcomeUnmatched
	outcomeFailed
)

func (b *BatchStats) count(outcome itemOutcome) {
	b.Processed++
	switch outcome {
	case outcomeMatched:
		b.Matched++
	case outcomeUnmatched:
		b.Unmatched++
	case outcomeFailed:
		b.Failed++
	}
}

// sourceResult is what one marketplace produced for one item. match, variant
// and snapshot fill in progressively; err is set only for hard failures,
// never for not-found outcomes.
type sourceResult struct {
	match    domain.MatchResult
	variant  *domain.VariantMatch
	snapshot *domain.MarketSnapshot
	err      error
}

// ReconcileService runs inventory items through both marketplaces and
// merges the results into output records
type ReconcileService struct {
	primary       domain.MarketplaceSource
	secondary     domain.MarketplaceSource
	matcher       *MatchingService
	fallbackOrder []domain.SizeCategory
	progressEvery int
	parallel      bool
	maxWorkers    int
	debug         bool
}

// NewReconcileService creates a reconciliation engine over a primary and a
// secondary marketplace source
func NewReconcileService(
	primary domain.MarketplaceSource,
	secondary domain.MarketplaceSource,
	matcher *MatchingService,
	config ReconcileConfig,
) *ReconcileService {
	fallback := config.CategoryFallback
	if len(fallback) == 0 {
		fallback = domain.AllCategories
	}
	progressEvery := config.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = defaultProgressEvery
	}
	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers
	}

	return &ReconcileService{
		primary:       primary,
		secondary:     secondary,
		matcher:       matcher,
		fallbackOrder: fallback,
		progressEvery: progressEvery,
		parallel:      config.Parallel,
		maxWorkers:    maxWorkers,
		debug:         config.EnableDebugLogging,
	}
}

// ProcessBatch reconciles every inventory item against both marketplaces.
// Each item always yields a record; a failed or unmatched item keeps its
// original fields and leaves the market fields empty. Context cancellation
// stops before the next item and keeps the records already produced.
func (s *ReconcileService) ProcessBatch(ctx context.Context, items []domain.InventoryItem) ([]domain.OutputRecord, *BatchStats) {
	if s.parallel {
		return s.processBatchParallel(ctx, items)
	}

	records := make([]domain.OutputRecord, 0, len(items))
	stats := &BatchStats{}

	for i, item := range items {
		if ctx.Err() != nil {
			log.Printf("[RECON] Cancelled after %d of %d items", len(records), len(items))
			break
		}

		record, outcome := s.processItem(ctx, item)
		records = append(records, record)
		stats.count(outcome)

		if (i+1)%s.progressEvery == 0 {
			log.Printf("[RECON] Processed %d/%d items", i+1, len(items))
		}
	}

	s.logBatchSummary(stats, len(items))
	return records, stats
}

// processBatchParallel runs the two source lookups of every item
// concurrently. A semaphore shared across the batch bounds in-flight
// lookups; the executor's limiter still paces the actual requests. Output
// order matches input order.
func (s *ReconcileService) processBatchParallel(ctx context.Context, items []domain.InventoryItem) ([]domain.OutputRecord, *BatchStats) {
	records := make([]domain.OutputRecord, len(items))
	outcomes := make([]itemOutcome, len(items))
	sem := make(chan struct{}, s.maxWorkers)

	var completed int64
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			records[i], outcomes[i] = s.processItemParallel(ctx, items[i], sem)

			done := atomic.AddInt64(&completed, 1)
			if done%int64(s.progressEvery) == 0 {
				log.Printf("[RECON] Processed %d/%d items", done, len(items))
			}
		}(i)
	}
	wg.Wait()

	stats := &BatchStats{}
	for _, outcome := range outcomes {
		stats.count(outcome)
	}

	s.logBatchSummary(stats, len(items))
	return records, stats
}

func (s *ReconcileService) processItem(ctx context.Context, item domain.InventoryItem) (domain.OutputRecord, itemOutcome) {
	query := CleanShoeName(item.RawName)
	if s.debug {
		log.Printf("[RECON] Processing %q size %s", item.RawName, item.RawSize)
	}

	pri := s.processSource(ctx, s.primary, query, item)
	sec := s.processSource(ctx, s.secondary, query, item)
	return s.assembleRecord(item, pri, sec)
}

func (s *ReconcileService) processItemParallel(ctx context.Context, item domain.InventoryItem, sem chan struct{}) (domain.OutputRecord, itemOutcome) {
	query := CleanShoeName(item.RawName)

	lookup := func(source domain.MarketplaceSource, out *sourceResult, wg *sync.WaitGroup) {
		defer wg.Done()
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
			*out = s.processSource(ctx, source, query, item)
		case <-ctx.Done():
			*out = sourceResult{err: ctx.Err()}
		}
	}

	var pri, sec sourceResult
	var wg sync.WaitGroup
	wg.Add(2)
	go lookup(s.primary, &pri, &wg)
	go lookup(s.secondary, &sec, &wg)
	wg.Wait()

	return s.assembleRecord(item, pri, sec)
}

// processSource walks one marketplace through search, matching, size
// resolution and market data for a single item. Not-found and unmatched
// outcomes return partial results without an error; hard failures set err
// on whatever was resolved up to that point.
func (s *ReconcileService) processSource(ctx context.Context, source domain.MarketplaceSource, query string, item domain.InventoryItem) sourceResult {
	candidates, err := source.Search(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			if s.debug {
				log.Printf("[RECON] No %s results for %q", source.Name(), query)
			}
			return sourceResult{}
		}
		log.Printf("[RECON] %s search failed for %q: %v", source.Name(), query, err)
		return sourceResult{err: err}
	}

	match, err := s.matcher.FindBestMatch(ctx, query, candidates)
	if err != nil {
		return sourceResult{err: err}
	}
	if !match.Matched {
		log.Printf("[RECON] No confident %s match for %q (best score %.2f)", source.Name(), query, match.Confidence)
		return sourceResult{match: match}
	}
	if s.debug {
		log.Printf("[RECON] %s matched %q -> %q (%.2f)", source.Name(), query, match.Product.Title, match.Confidence)
	}

	result := sourceResult{match: match}

	variants, err := source.GetVariants(ctx, match.Product.ID)
	if err != nil {
		if isNotFound(err) {
			log.Printf("[RECON] No %s size data for %q", source.Name(), match.Product.Title)
			return result
		}
		log.Printf("[RECON] %s variants failed for %q: %v", source.Name(), match.Product.Title, err)
		result.err = err
		return result
	}

	wanted := describeSize(item.Size)
	resolved, err := ResolveVariant(variants, item.Size, s.fallbackOrder)
	if err != nil {
		log.Printf("[RECON] Size %s not listed on %s for %q", wanted, source.Name(), match.Product.Title)
		return result
	}
	if !resolved.Exact {
		log.Printf("[RECON] Size %s not stocked on %s for %q, using %s sizing",
			wanted, source.Name(), match.Product.Title, resolved.CategoryUsed)
	}
	result.variant = &resolved

	snapshot, err := source.GetMarketData(ctx, match.Product.ID, resolved.Variant)
	if err != nil {
		if isNotFound(err) {
			if s.debug {
				log.Printf("[RECON] No %s market data for %q size %s", source.Name(), match.Product.Title, resolved.Variant.ID)
			}
			return result
		}
		log.Printf("[RECON] %s market data failed for %q size %s: %v",
			source.Name(), match.Product.Title, resolved.Variant.ID, err)
		result.err = err
		return result
	}

	result.snapshot = snapshot
	return result
}

// assembleRecord merges both sources into one output record. Bid and ask
// prefer the primary source, sales and consignment data prefer the
// secondary, and the stockx identity columns come only from the primary
// match.
func (s *ReconcileService) assembleRecord(item domain.InventoryItem, pri, sec sourceResult) (domain.OutputRecord, itemOutcome) {
	record := domain.OutputRecord{
		OriginalShoeName: item.RawName,
		OriginalSize:     item.RawSize,
		OriginalPrice:    item.Price,
		Condition:        item.Condition,
	}

	if pri.match.Matched {
		record.StockXShoeName = pri.match.Product.Title
		record.StockXSKU = pri.match.Product.StyleID
		record.StockXURL = pri.match.Product.URL
		if pri.variant != nil {
			record.StockXSize = domain.FormatSizeValue(pri.variant.Variant.Value)
		}
	}

	priSnap := snapshotOrEmpty(pri.snapshot)
	secSnap := snapshotOrEmpty(sec.snapshot)

	record.StockXBid = coalesce(priSnap.Bid, secSnap.Bid)
	record.StockXAsk = coalesce(priSnap.Ask, secSnap.Ask)

	sales := secSnap.Last5Sales
	if len(sales) == 0 {
		sales = priSnap.Last5Sales
	}
	applySalesAggregates(&record, sales)

	record.LowestConsigned = coalesce(secSnap.LowestConsigned, priSnap.LowestConsigned)
	record.LastConsignedPrice = coalesce(secSnap.LastConsignedPrice, priSnap.LastConsignedPrice)
	record.LastConsignedDate = relativeDay(coalesceDays(secSnap.LastConsignedDaysAgo, priSnap.LastConsignedDaysAgo))
	record.LowestWithYou = coalesce(secSnap.LowestWithYou, priSnap.LowestWithYou)
	record.LastWithYouPrice = coalesce(secSnap.LastWithYouPrice, priSnap.LastWithYouPrice)
	record.LastWithYouDate = relativeDay(coalesceDays(secSnap.LastWithYouDaysAgo, priSnap.LastWithYouDaysAgo))

	if item.Price != nil {
		if record.StockXBid != nil {
			profit := *record.StockXBid - *item.Price
			record.BidProfit = &profit
		}
		if record.StockXAsk != nil {
			profit := *record.StockXAsk - *item.Price
			record.AskProfit = &profit
		}
	}

	if pri.match.Matched && sec.match.Matched {
		priSKU := pri.match.Product.StyleID
		secSKU := sec.match.Product.StyleID
		if priSKU != "" && secSKU != "" && !SKUsEquivalent(priSKU, secSKU) {
			record.SKUMismatch = true
			log.Printf("[RECON] SKU mismatch for %q: %s reports %s, %s reports %s",
				item.RawName, pri.match.Product.Source, priSKU, sec.match.Product.Source, secSKU)
		}
	}

	outcome := classifyOutcome(pri, sec)
	if outcome == outcomeUnmatched {
		log.Printf("[RECON] No match found for %q size %s", item.RawName, item.RawSize)
	}
	return record, outcome
}

// classifyOutcome buckets an item: matched when either source matched,
// failed when neither matched and a hard error occurred, unmatched
// otherwise
func classifyOutcome(pri, sec sourceResult) itemOutcome {
	if pri.match.Matched || sec.match.Matched {
		return outcomeMatched
	}
	if pri.err != nil || sec.err != nil {
		return outcomeFailed
	}
	return outcomeUnmatched
}

// applySalesAggregates fills the last-5 sale columns: average price,
// average gap between consecutive sales, and the price and time ranges.
// Sales arrive most recent first; the mean of consecutive gaps telescopes
// to (oldest-newest)/(n-1), so no per-gap walk is needed.
func applySalesAggregates(record *domain.OutputRecord, sales []domain.Sale) {
	if len(sales) == 0 {
		return
	}
	if len(sales) > 5 {
		sales = sales[:5]
	}

	total := 0.0
	minPrice, maxPrice := sales[0].Price, sales[0].Price
	newest, oldest := sales[0].DaysAgo, sales[0].DaysAgo
	for _, sale := range sales {
		total += sale.Price
		if sale.Price < minPrice {
			minPrice = sale.Price
		}
		if sale.Price > maxPrice {
			maxPrice = sale.Price
		}
		if sale.DaysAgo < newest {
			newest = sale.DaysAgo
		}
		if sale.DaysAgo > oldest {
			oldest = sale.DaysAgo
		}
	}

	avgPrice := total / float64(len(sales))
	record.Last5AvgPrice = &avgPrice
	record.Last5PriceRange = fmt.Sprintf("%.2f-%.2f", minPrice, maxPrice)
	record.Last5TimeRange = fmt.Sprintf("%d-%d", oldest, newest)

	if len(sales) >= 2 {
		avgDays := float64(oldest-newest) / float64(len(sales)-1)
		record.Last5AvgDays = &avgDays
	}
}

func (s *ReconcileService) logBatchSummary(stats *BatchStats, total int) {
	log.Printf("[RECON] Batch complete: %d/%d processed, %d matched, %d unmatched, %d failed",
		stats.Processed, total, stats.Matched, stats.Unmatched, stats.Failed)
}

func snapshotOrEmpty(snap *domain.MarketSnapshot) *domain.MarketSnapshot {
	if snap == nil {
		return &domain.MarketSnapshot{}
	}
	return snap
}

func coalesce(primary, fallback *float64) *float64 {
	if primary != nil {
		return primary
	}
	return fallback
}

func coalesceDays(primary, fallback *int) *int {
	if primary != nil {
		return primary
	}
	return fallback
}

// relativeDay renders a days-ago count the way the report shows dates
func relativeDay(days *int) string {
	if days == nil {
		return ""
	}
	switch {
	case *days <= 0:
		return "today"
	case *days == 1:
		return "1 day ago"
	default:
		return fmt.Sprintf("%d days ago", *days)
	}
}

// describeSize renders a normalized size with its category for log lines
func describeSize(size domain.NormalizedSize) string {
	return fmt.Sprintf("%s %s", size.Category, domain.FormatSizeValue(size.Value))
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrProductNotFound) || errors.Is(err, domain.ErrVariantNotFound)
}
