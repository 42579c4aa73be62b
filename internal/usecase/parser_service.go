package usecase

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/kickcheck/reconciler/internal/domain"
)

// Format selects the inventory input grammar
type Format string

const (
	FormatAuto   Format = "auto"
	FormatCSV    Format = "csv"
	FormatPasted Format = "pasted"
)

var (
	// pastedPriceRegex captures the price inside the first parenthesized
	// group of a pasted line: "($210)" or "( $210.50 )"
	pastedPriceRegex = regexp.MustCompile(`\(\s*\$?\s*(\d+(?:\.\d{1,2})?)\s*\)`)

	// pastedSizeRegex captures the size list between the "size" keyword and
	// the price parenthesis, tolerating a missing space before the dash
	pastedSizeRegex = regexp.MustCompile(`(?i)-?\s*\bsize\b\s+([^($]*)`)

	// quantitySuffixRegex strips a trailing x<N> marker off a size token for
	// the per-unit raw size kept on each item
	quantitySuffixRegex = regexp.MustCompile(`(?i)^(.+?)x\d+$`)
)

// groupHeaderBrands mark a CSV row as a shoe-name row in the grouped
// layout. Best-effort: a name-only row is recognized by carrying one of
// these tokens, not by guaranteed structure.
var groupHeaderBrands = []string{
	"jordan", "nike", "adidas", "yeezy", "dunk", "air", "sb",
	"new balance", "reebok", "puma", "asics", "vans", "converse", "ugg",
}

// conditionCells are cell values recognized as a condition column entry
var conditionCells = map[string]bool{
	"new": true, "brand new": true, "used": true, "worn": true,
	"ds": true, "nds": true, "vnds": true, "deadstock": true, "like new": true,
}

// headerKeywords map recognizable column header names to logical columns.
// headerColumnOrder fixes the match priority for cells that could name
// more than one column.
var (
	headerColumnOrder = []string{"name", "size", "price", "condition"}
	headerKeywords    = map[string][]string{
		"name":      {"shoe", "product", "item", "name", "title", "model"},
		"size":      {"size", "sz", "us size"},
		"price":     {"price", "cost", "paid", "purchase price"},
		"condition": {"condition", "cond", "status"},
	}
)

// ParseReport accumulates per-line outcomes; a bad line never aborts the
// batch, it lands here
type ParseReport struct {
	Lines   int     `json:"lines"`
	Parsed  int     `json:"parsed"`
	Skipped int     `json:"skipped"`
	Errors  []error `json:"-"`
}

// ParserService converts raw CSV or pasted free-text inventory into
// per-unit inventory items
type ParserService struct {
	debug bool
}

// NewParserService creates a new inventory parser
func NewParserService(debug bool) *ParserService {
	return &ParserService{debug: debug}
}

// Parse converts raw input into inventory items. FormatAuto applies the
// structural heuristics from DetectFormat; the returned report carries
// every skipped line. Zero usable items is a fatal ErrEmptyInventory.
func (s *ParserService) Parse(input string, format Format) ([]domain.InventoryItem, *ParseReport, error) {
	if format == "" || format == FormatAuto {
		format = DetectFormat(input)
		if s.debug {
			log.Printf("[PARSE] Auto-detected input format: %s", format)
		}
	}

	var items []domain.InventoryItem
	var report *ParseReport

	switch format {
	case FormatPasted:
		items, report = s.parsePasted(input)
	default:
		items, report = s.parseCSV(input)
	}

	for _, err := range report.Errors {
		log.Printf("[PARSE] %v", err)
	}

	if len(items) == 0 {
		return nil, report, domain.ErrEmptyInventory
	}
	return items, report, nil
}

// DetectFormat guesses the input grammar: a currency-in-parentheses
// pattern together with a "size" keyword implies the pasted-list format,
// anything else is treated as CSV
func DetectFormat(input string) Format {
	if pastedPriceRegex.MatchString(input) && pastedSizeRegex.MatchString(input) {
		return FormatPasted
	}
	return FormatCSV
}

// parsePasted handles the freeform "<name> - size <sizes> ($<price>)"
// line format
func (s *ParserService) parsePasted(input string) ([]domain.InventoryItem, *ParseReport) {
	var items []domain.InventoryItem
	report := &ParseReport{}

	for lineNo, rawLine := range strings.Split(input, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		report.Lines++

		lineItems, sizeErrs, err := s.parsePastedLine(line)
		for _, serr := range sizeErrs {
			report.Errors = append(report.Errors, fmt.Errorf("line %d: %w", lineNo+1, serr))
		}
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Errorf("line %d %q: %w", lineNo+1, line, err))
			continue
		}

		report.Parsed++
		items = append(items, lineItems...)
	}

	return items, report
}

// parsePastedLine extracts name, sizes and price from one pasted line.
// Trailing free text after the price ("TAKE ALL ONLY") is discarded.
func (s *ParserService) parsePastedLine(line string) ([]domain.InventoryItem, []error, error) {
	sizeLoc := pastedSizeRegex.FindStringSubmatchIndex(line)
	if sizeLoc == nil {
		return nil, nil, fmt.Errorf("%w: no size segment", domain.ErrLineParse)
	}

	name := strings.TrimSpace(line[:sizeLoc[0]])
	name = strings.TrimSpace(strings.TrimSuffix(name, "-"))
	if name == "" {
		return nil, nil, fmt.Errorf("%w: no shoe name before size segment", domain.ErrLineParse)
	}

	sizeField := strings.TrimSpace(line[sizeLoc[2]:sizeLoc[3]])
	if sizeField == "" {
		return nil, nil, fmt.Errorf("%w: empty size list", domain.ErrLineParse)
	}

	var price *float64
	if m := pastedPriceRegex.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			price = &v
		}
	}

	items, sizeErrs := expandSizes(name, sizeField, price, inferCondition(line))
	if len(items) == 0 {
		return nil, sizeErrs, fmt.Errorf("%w: no parseable sizes in %q", domain.ErrLineParse, sizeField)
	}
	return items, sizeErrs, nil
}

// inferCondition reads the sale condition off a pasted line. Sellers write
// it anywhere in the line, so the whole line is scanned.
func inferCondition(line string) string {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "used"):
		return "Used"
	case strings.Contains(lower, "vnds"):
		return "Very Near Deadstock"
	default:
		return "Brand New"
	}
}

// parseCSV handles CSV input in three row shapes: a header row with
// recognizable column names, complete name+size rows without a header, and
// the grouped layout where a name-only row owns the size rows below it
func (s *ParserService) parseCSV(input string) ([]domain.InventoryItem, *ParseReport) {
	var items []domain.InventoryItem
	report := &ParseReport{}

	reader := csv.NewReader(strings.NewReader(input))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var columns map[string]int
	currentGroup := ""
	lineNo := 0

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		lineNo++
		if err != nil {
			report.Lines++
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Errorf("row %d: %w: %v", lineNo, domain.ErrLineParse, err))
			continue
		}
		if rowIsEmpty(row) {
			continue
		}

		if columns == nil && isHeaderRow(row) {
			columns = buildColumnMap(row)
			if s.debug {
				log.Printf("[PARSE] Header row detected: %v", row)
			}
			continue
		}
		report.Lines++

		var rowItems []domain.InventoryItem
		var sizeErrs []error
		var rowErr error

		if columns != nil {
			rowItems, sizeErrs, rowErr, currentGroup = s.parseMappedRow(row, columns, currentGroup)
		} else {
			rowItems, sizeErrs, rowErr, currentGroup = s.parseHeuristicRow(row, currentGroup)
		}

		for _, serr := range sizeErrs {
			report.Errors = append(report.Errors, fmt.Errorf("row %d: %w", lineNo, serr))
		}
		if rowErr != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Errorf("row %d %q: %w", lineNo, strings.Join(row, ","), rowErr))
			continue
		}
		if len(rowItems) == 0 {
			// Group header rows produce nothing by themselves
			continue
		}

		report.Parsed++
		items = append(items, rowItems...)
	}

	return items, report
}

// parseMappedRow extracts a row through the fuzzy-matched header columns.
// The grouped layout still applies: a name without a size opens a group,
// a size without a name belongs to the current group.
func (s *ParserService) parseMappedRow(
	row []string,
	columns map[string]int,
	currentGroup string,
) ([]domain.InventoryItem, []error, error, string) {
	name := cellAt(row, columns, "name")
	sizeField := cellAt(row, columns, "size")
	priceCell := cellAt(row, columns, "price")
	condition := cellAt(row, columns, "condition")

	if name != "" && sizeField == "" {
		return nil, nil, nil, name
	}
	if name == "" {
		if sizeField == "" || currentGroup == "" {
			return nil, nil, fmt.Errorf("%w: no name or size", domain.ErrLineParse), currentGroup
		}
		name = currentGroup
	}

	items, sizeErrs := expandSizes(name, sizeField, parsePriceCell(priceCell), condition)
	if len(items) == 0 {
		return nil, sizeErrs, fmt.Errorf("%w: no parseable sizes in %q", domain.ErrLineParse, sizeField), currentGroup
	}
	return items, sizeErrs, nil, currentGroup
}

// parseHeuristicRow classifies a headerless row: group header, size row
// under the current group, or a complete name+size row
func (s *ParserService) parseHeuristicRow(
	row []string,
	currentGroup string,
) ([]domain.InventoryItem, []error, error, string) {
	first := strings.TrimSpace(row[0])

	// A name-only row opens a group for the size rows below it
	if first != "" && !looksLikeSize(first) && looksLikeShoeName(first) && restEmpty(row[1:]) {
		return nil, nil, nil, first
	}

	if looksLikeSize(first) {
		if currentGroup == "" {
			return nil, nil, fmt.Errorf("%w: size row without a preceding shoe name", domain.ErrLineParse), currentGroup
		}
		price, condition := scanPriceAndCondition(row[1:])
		items, sizeErrs := expandSizes(currentGroup, first, price, condition)
		if len(items) == 0 {
			return nil, sizeErrs, fmt.Errorf("%w: no parseable sizes in %q", domain.ErrLineParse, first), currentGroup
		}
		return items, sizeErrs, nil, currentGroup
	}

	// Complete row: name followed by a size cell somewhere to its right
	if len(row) >= 2 && first != "" && hasLetter(first) {
		sizeIdx := -1
		for i := 1; i < len(row); i++ {
			if looksLikeSize(strings.TrimSpace(row[i])) {
				sizeIdx = i
				break
			}
		}
		if sizeIdx > 0 {
			rest := make([]string, 0, len(row)-2)
			for i := 1; i < len(row); i++ {
				if i != sizeIdx {
					rest = append(rest, row[i])
				}
			}
			price, condition := scanPriceAndCondition(rest)
			items, sizeErrs := expandSizes(first, strings.TrimSpace(row[sizeIdx]), price, condition)
			if len(items) == 0 {
				return nil, sizeErrs, fmt.Errorf("%w: no parseable sizes", domain.ErrLineParse), currentGroup
			}
			return items, sizeErrs, nil, currentGroup
		}
	}

	return nil, nil, fmt.Errorf("%w: unrecognized row shape", domain.ErrLineParse), currentGroup
}

// expandSizes turns one raw size field into per-unit inventory items: the
// field may hold a comma-separated list and x<N> quantities, and every
// resulting size yields its own item with quantity 1
func expandSizes(name, sizeField string, price *float64, condition string) ([]domain.InventoryItem, []error) {
	var items []domain.InventoryItem
	var errs []error

	for _, token := range strings.Split(sizeField, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		sizes, err := domain.NormalizeSizeToken(token)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		rawSize := stripQuantitySuffix(token)
		for _, size := range sizes {
			items = append(items, domain.InventoryItem{
				RawName:   name,
				RawSize:   rawSize,
				Size:      size,
				Quantity:  1,
				Price:     price,
				Condition: condition,
			})
		}
	}

	return items, errs
}

func stripQuantitySuffix(token string) string {
	if m := quantitySuffixRegex.FindStringSubmatch(token); m != nil {
		return strings.TrimSpace(m[1])
	}
	return token
}

// rowIsEmpty reports whether every cell is blank
func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func restEmpty(cells []string) bool {
	return rowIsEmpty(cells)
}

// isHeaderRow checks whether at least two cells carry recognizable column
// names
func isHeaderRow(row []string) bool {
	hits := 0
	for _, cell := range row {
		if headerColumn(cell) != "" {
			hits++
		}
	}
	return hits >= 2
}

// headerColumn matches one header cell against the known column name
// variants
func headerColumn(cell string) string {
	normalized := strings.ToLower(strings.TrimSpace(cell))
	if normalized == "" {
		return ""
	}
	for _, column := range headerColumnOrder {
		for _, v := range headerKeywords[column] {
			if normalized == v || strings.Contains(normalized, v) {
				return column
			}
		}
	}
	return ""
}

// buildColumnMap assigns each logical column its index from the header row
func buildColumnMap(row []string) map[string]int {
	columns := make(map[string]int)
	for i, cell := range row {
		column := headerColumn(cell)
		if column != "" {
			if _, taken := columns[column]; !taken {
				columns[column] = i
			}
		}
	}
	return columns
}

func cellAt(row []string, columns map[string]int, column string) string {
	idx, ok := columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// scanPriceAndCondition finds the first price-like and condition-like
// cells among the leftovers of a heuristic row
func scanPriceAndCondition(cells []string) (*float64, string) {
	var price *float64
	condition := ""
	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if price == nil {
			if p := parsePriceCell(cell); p != nil && *p >= 10 && *p <= 10000 {
				price = p
				continue
			}
		}
		if condition == "" && looksLikeCondition(cell) {
			condition = cell
		}
	}
	return price, condition
}

// parsePriceCell parses a money cell, tolerating "$" and thousands commas
func parsePriceCell(cell string) *float64 {
	cleaned := strings.TrimSpace(cell)
	if cleaned == "" {
		return nil
	}
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// looksLikeSize reports whether a cell parses entirely as US shoe sizes.
// The 25 bound keeps prices in a sizeless column from masquerading as
// sizes.
func looksLikeSize(cell string) bool {
	if cell == "" {
		return false
	}
	sizes, errs := domain.ExpandSizeList(cell)
	if len(sizes) == 0 || len(errs) > 0 {
		return false
	}
	for _, s := range sizes {
		if s.Value > 25 {
			return false
		}
	}
	return true
}

// looksLikeShoeName is the group-header heuristic: a row opens a group
// only when it reads like a sneaker model
func looksLikeShoeName(cell string) bool {
	lower := strings.ToLower(cell)
	if len(lower) <= 3 {
		return false
	}
	for _, brand := range groupHeaderBrands {
		if strings.Contains(lower, brand) {
			return true
		}
	}
	return false
}

func looksLikeCondition(cell string) bool {
	return conditionCells[strings.ToLower(strings.TrimSpace(cell))]
}

func hasLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
