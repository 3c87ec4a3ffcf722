package supplier

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXSource parses Excel supplier feeds.
type XLSXSource struct {
	options ParserOptions
}

// NewXLSXSource creates an XLSX feed source with the given options
func NewXLSXSource(options ParserOptions) *XLSXSource {
	return &XLSXSource{options: options}
}

// Parse parses XLSX content into normalized records
func (s *XLSXSource) Parse(content []byte) (*ParseResult, error) {
	result := &ParseResult{
		Records: make([]Record, 0),
		Errors:  make([]ParseError, 0),
	}

	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		result.Errors = append(result.Errors, ParseError{
			Message: fmt.Sprintf("Failed to parse Excel file: %v", err),
		})
		return result, nil
	}
	defer f.Close()

	sheetName, err := s.selectSheet(f)
	if err != nil {
		result.Errors = append(result.Errors, ParseError{Message: err.Error()})
		return result, nil
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		result.Errors = append(result.Errors, ParseError{
			Message: fmt.Sprintf("Failed to read worksheet: %v", err),
		})
		return result, nil
	}
	if len(rows) == 0 {
		return result, nil
	}

	headers := []string{}
	dataStartRow := 0
	if s.options.HasHeader {
		headers = rows[0]
		dataStartRow = 1
	}

	indices, err := buildColumnIndices(headers, s.options.ColumnMapping)
	if err != nil {
		result.Errors = append(result.Errors, ParseError{Message: err.Error()})
		result.TotalRows = len(rows) - dataStartRow
		return result, nil
	}

	for i := dataStartRow; i < len(rows); i++ {
		rowNumber := i + 1
		if s.options.SkipEmptyRows && isEmptyRow(rows[i]) {
			continue
		}
		result.TotalRows++

		rec, errs := mapRowToRecord(rows[i], rowNumber, indices)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}
		result.Records = append(result.Records, *rec)
		result.ValidRows++
	}

	return result, nil
}

func (s *XLSXSource) selectSheet(f *excelize.File) (string, error) {
	if s.options.SheetName != "" {
		for _, name := range f.GetSheetList() {
			if name == s.options.SheetName {
				return name, nil
			}
		}
		return "", fmt.Errorf("worksheet %q not found", s.options.SheetName)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no worksheets")
	}
	return sheets[0], nil
}
