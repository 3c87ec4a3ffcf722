package supplier

// Record is a single normalized product row from a supplier feed.
type Record struct {
	SupplierProductRef string   `json:"supplierProductRef"`
	SKU                string   `json:"sku"`
	UPC                string   `json:"upc,omitempty"`
	Name               string   `json:"name,omitempty"`
	BasePrice          float64  `json:"basePrice"`
	Stock              int      `json:"stock"`
	WeightKg           *float64 `json:"weightKg,omitempty"`
	RowNumber          int      `json:"rowNumber"`
}

// ParseError describes a row that could not be normalized.
type ParseError struct {
	RowNumber     *int    `json:"rowNumber,omitempty"`
	Field         *string `json:"field,omitempty"`
	Message       string  `json:"message"`
	OriginalValue *string `json:"originalValue,omitempty"`
}

// ParseResult holds the outcome of parsing a supplier feed.
type ParseResult struct {
	Records   []Record     `json:"records"`
	Errors    []ParseError `json:"errors,omitempty"`
	TotalRows int          `json:"totalRows"`
	ValidRows int          `json:"validRows"`
}

// FeedSource parses raw supplier feed content into normalized records.
// Implementations exist for CSV and XLSX feeds.
type FeedSource interface {
	Parse(content []byte) (*ParseResult, error)
}

// ColumnMapping maps Record fields to column header names or numeric
// positions. SKU and Price are required, the rest are optional.
type ColumnMapping struct {
	ProductRef *string `json:"productRef,omitempty"`
	SKU        string  `json:"sku"`
	UPC        *string `json:"upc,omitempty"`
	Name       *string `json:"name,omitempty"`
	Price      string  `json:"price"`
	Stock      *string `json:"stock,omitempty"`
	WeightKg   *string `json:"weightKg,omitempty"`
}

// ParserOptions configures a feed parser.
type ParserOptions struct {
	Delimiter     Delimiter      `json:"delimiter,omitempty"`
	Encoding      Encoding       `json:"encoding,omitempty"`
	HasHeader     bool           `json:"hasHeader"`
	ColumnMapping *ColumnMapping `json:"columnMapping,omitempty"`
	SkipEmptyRows bool           `json:"skipEmptyRows"`
	SheetName     string         `json:"sheetName,omitempty"`
}

// Delimiter represents supported CSV delimiters
type Delimiter string

const (
	DelimiterComma     Delimiter = ","
	DelimiterSemicolon Delimiter = ";"
	DelimiterTab       Delimiter = "\t"
)

// DefaultOptions returns default parser options
func DefaultOptions() ParserOptions {
	return ParserOptions{
		HasHeader:     true,
		SkipEmptyRows: true,
	}
}

func stringPtr(s string) *string { return &s }
