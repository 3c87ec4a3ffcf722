package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/supplier"
)

var (
	importConnection string
	importSheet      string
	importDelimiter  string
	importSKUCol     string
	importPriceCol   string
	importRefCol     string
	importUPCCol     string
	importStockCol   string
	importNameCol    string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a supplier feed file into a connection",
	Long: `Parse a supplier CSV or XLSX feed and apply it to one connection:
upsert items, recompute final prices with the active rule chain, and
soft-delete items missing from the feed.

Column flags take a header name or a zero-based numeric position. SKU and
price columns are required; the rest are optional.`,
	Example: `  sync-service import pricelist.csv --connection conn-amz-1 --sku-col SKU --price-col Price
  sync-service import feed.xlsx --connection conn-amz-1 --sheet Products --sku-col 0 --price-col 3`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importConnection, "connection", "", "Target connection ref (required)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (defaults to the first sheet)")
	importCmd.Flags().StringVar(&importDelimiter, "delimiter", "", "CSV delimiter (defaults to auto-detection)")
	importCmd.Flags().StringVar(&importSKUCol, "sku-col", "", "SKU column (required)")
	importCmd.Flags().StringVar(&importPriceCol, "price-col", "", "Price column (required)")
	importCmd.Flags().StringVar(&importRefCol, "ref-col", "", "Supplier product ref column")
	importCmd.Flags().StringVar(&importUPCCol, "upc-col", "", "UPC/EAN column")
	importCmd.Flags().StringVar(&importStockCol, "stock-col", "", "Stock column")
	importCmd.Flags().StringVar(&importNameCol, "name-col", "", "Product name column")
	importCmd.MarkFlagRequired("connection")
	importCmd.MarkFlagRequired("sku-col")
	importCmd.MarkFlagRequired("price-col")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	conn, err := database.GetConnection(ctx, importConnection)
	if err != nil {
		return err
	}
	if conn == nil {
		return fmt.Errorf("unknown connection: %s", importConnection)
	}

	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read feed file: %w", err)
	}

	mapping := &supplier.ColumnMapping{
		SKU:   importSKUCol,
		Price: importPriceCol,
	}
	if importRefCol != "" {
		mapping.ProductRef = &importRefCol
	}
	if importUPCCol != "" {
		mapping.UPC = &importUPCCol
	}
	if importStockCol != "" {
		mapping.Stock = &importStockCol
	}
	if importNameCol != "" {
		mapping.Name = &importNameCol
	}

	options := supplier.DefaultOptions()
	options.ColumnMapping = mapping
	options.SheetName = importSheet
	options.Delimiter = supplier.Delimiter(importDelimiter)

	var source supplier.FeedSource
	switch strings.ToLower(filepath.Ext(args[0])) {
	case ".xlsx", ".xlsm":
		source = supplier.NewXLSXSource(options)
	default:
		source = supplier.NewCSVSource(options)
	}

	parsed, err := source.Parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}
	logger.Info().
		Int("total_rows", parsed.TotalRows).
		Int("valid_rows", parsed.ValidRows).
		Int("parse_errors", len(parsed.Errors)).
		Msg("Feed parsed")

	result, err := supplier.Apply(ctx, supplier.DBStore{}, supplier.ApplyInput{
		SupplierRef:   conn.SupplierRef,
		ConnectionRef: conn.Ref,
		SKUPrefix:     conn.SKUPrefix,
		Records:       parsed.Records,
		ParseErrors:   len(parsed.Errors),
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if len(result.Errors) > 0 || len(parsed.Errors) > 0 {
		os.Exit(2)
	}
	return nil
}
