package supplier

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// CSVSource parses delimiter-separated supplier feeds with encoding and
// delimiter detection.
type CSVSource struct {
	options ParserOptions
}

// NewCSVSource creates a CSV feed source with the given options
func NewCSVSource(options ParserOptions) *CSVSource {
	return &CSVSource{options: options}
}

// Parse parses CSV content into normalized records
func (s *CSVSource) Parse(content []byte) (*ParseResult, error) {
	opts := s.options

	if opts.Encoding == "" {
		opts.Encoding = DetectEncoding(content)
	}
	decoded, err := Decode(content, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	if opts.Delimiter == "" {
		opts.Delimiter = DetectDelimiter(decoded)
	}

	rawRows := parseLines(decoded, rune(opts.Delimiter[0]))
	if len(rawRows) == 0 {
		return &ParseResult{}, nil
	}

	headers := []string{}
	dataStartRow := 0
	if opts.HasHeader {
		headers = rawRows[0]
		dataStartRow = 1
	}

	indices, err := buildColumnIndices(headers, opts.ColumnMapping)
	if err != nil {
		return &ParseResult{
			Errors:    []ParseError{{Message: err.Error()}},
			TotalRows: len(rawRows) - dataStartRow,
		}, nil
	}

	result := &ParseResult{
		Records: make([]Record, 0, len(rawRows)),
		Errors:  make([]ParseError, 0),
	}

	for i := dataStartRow; i < len(rawRows); i++ {
		rawRow := rawRows[i]
		rowNumber := i + 1

		if opts.SkipEmptyRows && isEmptyRow(rawRow) {
			continue
		}
		result.TotalRows++

		rec, errs := mapRowToRecord(rawRow, rowNumber, indices)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}
		result.Records = append(result.Records, *rec)
		result.ValidRows++
	}

	return result, nil
}

func parseLines(content string, delimiter rune) [][]string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	lines := strings.Split(content, "\n")

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			rows = append(rows, []string{})
			continue
		}
		fields := splitLine(line, delimiter, '"')
		for i, f := range fields {
			fields[i] = strings.TrimSpace(f)
		}
		rows = append(rows, fields)
	}
	return rows
}

// splitLine splits a CSV line handling quoted fields and escaped quotes
func splitLine(line string, delimiter, quoteChar rune) []string {
	fields := make([]string, 0, 8)
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); {
		r, width := utf8.DecodeRuneInString(line[i:])
		i += width

		if inQuotes {
			if r == quoteChar {
				if i < len(line) {
					next, nw := utf8.DecodeRuneInString(line[i:])
					if next == quoteChar {
						current.WriteRune(quoteChar)
						i += nw
						continue
					}
				}
				inQuotes = false
				continue
			}
			current.WriteRune(r)
			continue
		}

		switch r {
		case quoteChar:
			inQuotes = true
		case delimiter:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())
	return fields
}

// DetectDelimiter picks the delimiter whose per-line counts are the most
// consistent across the first few non-empty lines.
func DetectDelimiter(content string) Delimiter {
	sample := make([]string, 0, 5)
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			sample = append(sample, trimmed)
			if len(sample) >= 5 {
				break
			}
		}
	}
	if len(sample) == 0 {
		return DelimiterComma
	}

	best := DelimiterComma
	maxConsistency := 0.0
	for _, delim := range []Delimiter{DelimiterComma, DelimiterSemicolon, DelimiterTab} {
		sum := 0
		counts := make([]int, 0, len(sample))
		for _, line := range sample {
			c := strings.Count(line, string(delim))
			counts = append(counts, c)
			sum += c
		}
		avg := float64(sum) / float64(len(counts))
		if avg == 0 {
			continue
		}
		variance := 0.0
		for _, c := range counts {
			diff := float64(c) - avg
			variance += diff * diff
		}
		variance /= float64(len(counts))

		consistency := avg / (1.0 + variance)
		if consistency > maxConsistency {
			maxConsistency = consistency
			best = delim
		}
	}
	return best
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// buildColumnIndices resolves mapping values (header names or numeric
// positions) to column indices.
func buildColumnIndices(headers []string, mapping *ColumnMapping) (map[string]int, error) {
	if mapping == nil {
		return nil, fmt.Errorf("no column mapping provided")
	}

	indices := make(map[string]int)

	resolve := func(field string, value *string, required bool) error {
		if value == nil || *value == "" {
			if required {
				return fmt.Errorf("required field %s not in mapping", field)
			}
			return nil
		}

		if idx, err := strconv.Atoi(strings.TrimSpace(*value)); err == nil {
			if idx < 0 {
				return fmt.Errorf("invalid column index for %s: %s", field, *value)
			}
			indices[field] = idx
			return nil
		}

		for i, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(*value)) {
				indices[field] = i
				return nil
			}
		}
		if required {
			return fmt.Errorf("column %q for field %q not found in headers", *value, field)
		}
		return nil
	}

	if err := resolve("sku", &mapping.SKU, true); err != nil {
		return nil, err
	}
	if err := resolve("price", &mapping.Price, true); err != nil {
		return nil, err
	}
	resolve("productRef", mapping.ProductRef, false)
	resolve("upc", mapping.UPC, false)
	resolve("name", mapping.Name, false)
	resolve("stock", mapping.Stock, false)
	resolve("weightKg", mapping.WeightKg, false)

	return indices, nil
}

func mapRowToRecord(rawRow []string, rowNumber int, indices map[string]int) (*Record, []ParseError) {
	var errs []ParseError

	getValue := func(field string) string {
		idx, ok := indices[field]
		if !ok || idx >= len(rawRow) {
			return ""
		}
		return strings.TrimSpace(rawRow[idx])
	}

	sku := getValue("sku")
	if sku == "" {
		errs = append(errs, ParseError{
			RowNumber: &rowNumber,
			Field:     stringPtr("sku"),
			Message:   "SKU is required",
		})
	}

	price := 0.0
	if priceStr := getValue("price"); priceStr != "" {
		parsed, err := ParsePrice(priceStr)
		if err != nil {
			errs = append(errs, ParseError{
				RowNumber:     &rowNumber,
				Field:         stringPtr("price"),
				Message:       "Invalid price value",
				OriginalValue: stringPtr(priceStr),
			})
		} else {
			price = parsed
		}
	} else {
		errs = append(errs, ParseError{
			RowNumber: &rowNumber,
			Field:     stringPtr("price"),
			Message:   "Price is required",
		})
	}

	stock := 0
	if stockStr := getValue("stock"); stockStr != "" {
		parsed, err := ParseStock(stockStr)
		if err != nil {
			errs = append(errs, ParseError{
				RowNumber:     &rowNumber,
				Field:         stringPtr("stock"),
				Message:       "Invalid stock value",
				OriginalValue: stringPtr(stockStr),
			})
		} else {
			stock = parsed
		}
	}

	var weight *float64
	if weightStr := getValue("weightKg"); weightStr != "" {
		parsed, err := ParseWeight(weightStr)
		if err == nil {
			weight = parsed
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	productRef := getValue("productRef")
	if productRef == "" {
		productRef = sku
	}

	return &Record{
		SupplierProductRef: productRef,
		SKU:                sku,
		UPC:                getValue("upc"),
		Name:               getValue("name"),
		BasePrice:          price,
		Stock:              stock,
		WeightKg:           weight,
		RowNumber:          rowNumber,
	}, nil
}
