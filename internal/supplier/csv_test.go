package supplier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMapping() *ColumnMapping {
	return &ColumnMapping{
		ProductRef: stringPtr("item_id"),
		SKU:        "sku",
		UPC:        stringPtr("upc"),
		Name:       stringPtr("title"),
		Price:      "price",
		Stock:      stringPtr("qty"),
		WeightKg:   stringPtr("weight"),
	}
}

func TestCSVSourceParse(t *testing.T) {
	content := []byte("item_id;sku;upc;title;price;qty;weight\n" +
		"P-1;ABC-1;036000291452;Widget;12,99;5;0,4\n" +
		"P-2;ABC-2;;Gadget;1.299,00;0;\n" +
		";;;;;;\n")

	opts := DefaultOptions()
	opts.ColumnMapping = testMapping()

	src := NewCSVSource(opts)
	result, err := src.Parse(content)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 2, result.ValidRows)
	require.Len(t, result.Records, 2)

	first := result.Records[0]
	assert.Equal(t, "P-1", first.SupplierProductRef)
	assert.Equal(t, "ABC-1", first.SKU)
	assert.Equal(t, "036000291452", first.UPC)
	assert.Equal(t, "Widget", first.Name)
	assert.InDelta(t, 12.99, first.BasePrice, 0.001)
	assert.Equal(t, 5, first.Stock)
	require.NotNil(t, first.WeightKg)
	assert.InDelta(t, 0.4, *first.WeightKg, 0.001)

	second := result.Records[1]
	assert.InDelta(t, 1299.00, second.BasePrice, 0.001)
	assert.Equal(t, 0, second.Stock)
	assert.Nil(t, second.WeightKg)
}

func TestCSVSourceMissingRequiredColumn(t *testing.T) {
	content := []byte("sku;qty\nABC-1;5\n")

	opts := DefaultOptions()
	opts.ColumnMapping = testMapping()

	result, err := NewCSVSource(opts).Parse(content)
	require.NoError(t, err)
	assert.Zero(t, result.ValidRows)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0].Message, "price")
}

func TestCSVSourceBadRowsReported(t *testing.T) {
	content := []byte("item_id,sku,upc,title,price,qty,weight\n" +
		"P-1,ABC-1,,Widget,not-a-price,1,\n" +
		"P-2,,,NoSKU,10.00,1,\n" +
		"P-3,ABC-3,,OK,10.00,1,\n")

	opts := DefaultOptions()
	opts.ColumnMapping = testMapping()

	result, err := NewCSVSource(opts).Parse(content)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.ValidRows)
	assert.Len(t, result.Errors, 2)
}

func TestCSVSourceQuotedFields(t *testing.T) {
	content := []byte("sku,price,title\n" +
		`ABC-1,"1,299.00","Widget, ""Deluxe"""` + "\n")

	opts := DefaultOptions()
	opts.Delimiter = DelimiterComma
	opts.ColumnMapping = &ColumnMapping{
		SKU:   "sku",
		Price: "price",
		Name:  stringPtr("title"),
	}

	result, err := NewCSVSource(opts).Parse(content)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.InDelta(t, 1299.00, result.Records[0].BasePrice, 0.001)
	assert.Equal(t, `Widget, "Deluxe"`, result.Records[0].Name)
}

func TestCSVSourcePositionalMapping(t *testing.T) {
	content := []byte("ABC-1\t10.50\t3\nABC-2\t20.00\t7\n")

	opts := ParserOptions{
		HasHeader:     false,
		SkipEmptyRows: true,
		ColumnMapping: &ColumnMapping{
			SKU:   "0",
			Price: "1",
			Stock: stringPtr("2"),
		},
	}

	result, err := NewCSVSource(opts).Parse(content)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "ABC-2", result.Records[1].SKU)
	assert.Equal(t, 7, result.Records[1].Stock)
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, DelimiterSemicolon, DetectDelimiter("a;b;c\nd;e;f\n"))
	assert.Equal(t, DelimiterComma, DetectDelimiter("a,b,c\nd,e,f\n"))
	assert.Equal(t, DelimiterTab, DetectDelimiter("a\tb\tc\nd\te\tf\n"))
}

func TestDetectEncoding(t *testing.T) {
	assert.Equal(t, EncodingUTF8, DetectEncoding([]byte("plain ascii")))
	assert.Equal(t, EncodingUTF8, DetectEncoding([]byte{0xEF, 0xBB, 0xBF, 'a'}))
	// 0xE9 alone is invalid UTF-8 (Latin "e" acute in Windows-1252)
	assert.Equal(t, EncodingWindows1252, DetectEncoding([]byte{'c', 'a', 'f', 0xE9}))
}

func TestDecodeWindows1252(t *testing.T) {
	decoded, err := Decode([]byte{'c', 'a', 'f', 0xE9}, EncodingWindows1252)
	require.NoError(t, err)
	assert.Equal(t, "café", decoded)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"12.99", 12.99, false},
		{"12,99", 12.99, false},
		{"1.299,00", 1299.00, false},
		{"1,299.00", 1299.00, false},
		{"€ 45,50", 45.50, false},
		{"45.50 EUR", 45.50, false},
		{"0", 0, false},
		{"", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		got, err := ParsePrice(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.InDelta(t, tt.want, got, 0.001, "input %q", tt.input)
	}
}
