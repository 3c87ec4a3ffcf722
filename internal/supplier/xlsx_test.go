package supplier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestXLSXSourceParse(t *testing.T) {
	content := buildWorkbook(t, [][]interface{}{
		{"item_id", "sku", "upc", "title", "price", "qty", "weight"},
		{"P-1", "ABC-1", "036000291452", "Widget", 12.99, 5, 0.4},
		{"P-2", "ABC-2", "", "Gadget", "19,95", 2, ""},
	})

	opts := DefaultOptions()
	opts.ColumnMapping = testMapping()

	result, err := NewXLSXSource(opts).Parse(content)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 2, result.ValidRows)
	require.Len(t, result.Records, 2)

	assert.Equal(t, "ABC-1", result.Records[0].SKU)
	assert.InDelta(t, 12.99, result.Records[0].BasePrice, 0.001)
	assert.Equal(t, 5, result.Records[0].Stock)
	assert.InDelta(t, 19.95, result.Records[1].BasePrice, 0.001)
}

func TestXLSXSourceMissingSheet(t *testing.T) {
	content := buildWorkbook(t, [][]interface{}{
		{"sku", "price"},
	})

	opts := DefaultOptions()
	opts.ColumnMapping = testMapping()
	opts.SheetName = "Prices"

	result, err := NewXLSXSource(opts).Parse(content)
	require.NoError(t, err)
	assert.Zero(t, result.ValidRows)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0].Message, "Prices")
}

func TestXLSXSourceGarbageContent(t *testing.T) {
	opts := DefaultOptions()
	opts.ColumnMapping = testMapping()

	result, err := NewXLSXSource(opts).Parse([]byte("not a zip archive"))
	require.NoError(t, err)
	assert.Zero(t, result.ValidRows)
	assert.NotEmpty(t, result.Errors)
}
