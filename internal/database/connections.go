package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Connection is one configured supplier/destination pairing: which supplier
// feed populates it, which marketplace it pushes to, and the destination-side
// SKU prefix.
type Connection struct {
	Ref             string `db:"ref"`
	SupplierRef     string `db:"supplier_ref"`
	MarketplaceKind string `db:"marketplace_kind"`
	SKUPrefix       string `db:"sku_prefix"`
	Endpoint        string `db:"endpoint"`
	Active          bool   `db:"active"`
}

// GetConnection loads one connection by ref.
func GetConnection(ctx context.Context, ref string) (*Connection, error) {
	var c Connection
	err := Pool().QueryRow(ctx, `
		SELECT ref, supplier_ref, marketplace_kind, sku_prefix, endpoint, active
		FROM connections
		WHERE ref = $1
	`, ref).Scan(&c.Ref, &c.SupplierRef, &c.MarketplaceKind, &c.SKUPrefix, &c.Endpoint, &c.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get connection %s: %w", ref, err)
	}
	return &c, nil
}

// ActiveConnections lists all active connections.
func ActiveConnections(ctx context.Context) ([]Connection, error) {
	rows, err := Pool().Query(ctx, `
		SELECT ref, supplier_ref, marketplace_kind, sku_prefix, endpoint, active
		FROM connections
		WHERE active
		ORDER BY ref
	`)
	if err != nil {
		return nil, fmt.Errorf("select active connections: %w", err)
	}
	defer rows.Close()

	var conns []Connection
	for rows.Next() {
		var c Connection
		if err := rows.Scan(&c.Ref, &c.SupplierRef, &c.MarketplaceKind, &c.SKUPrefix, &c.Endpoint, &c.Active); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}
