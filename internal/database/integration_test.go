package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/channelsync/sync-service/internal/lifecycle"
	"github.com/channelsync/sync-service/internal/pricing"
)

// setupIntegrationTestDB starts a throwaway Postgres container and points the
// package-level pool at it. The cleanup closure tears both down.
func setupIntegrationTestDB(ctx context.Context, t testing.TB) (func(), error) {
	if testing.Short() {
		return func() {}, fmt.Errorf("skipping integration test in short mode")
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("get host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("get port: %w", err)
	}

	connString := fmt.Sprintf("postgres://test:test@%s:%s/test?sslmode=disable", host, port.Port())

	if err := Connect(ctx, connString, 5, 1, 30*time.Minute, 5*time.Minute); err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := runTestMigrations(ctx); err != nil {
		Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	cleanup := func() {
		Close()
		container.Terminate(ctx)
	}
	return cleanup, nil
}

// runTestMigrations applies the real migration files in order.
func runTestMigrations(ctx context.Context) error {
	dir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		ddl, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := Pool().Exec(ctx, string(ddl)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}

func seedConnection(ctx context.Context, t *testing.T, ref string) {
	t.Helper()
	_, err := Pool().Exec(ctx, `
		INSERT INTO connections (ref, supplier_ref, marketplace_kind, sku_prefix, active)
		VALUES ($1, 'sup-1', 'mock', 'TST-', TRUE)
	`, ref)
	if err != nil {
		t.Fatalf("seed connection: %v", err)
	}
}

func TestUpsertSupplierItemIdempotent(t *testing.T) {
	ctx := context.Background()

	cleanup, err := setupIntegrationTestDB(ctx, t)
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
		return
	}
	defer cleanup()

	seedConnection(ctx, t, "conn-upsert")

	item := &SyncItem{
		SupplierRef:        "sup-1",
		ConnectionRef:      "conn-upsert",
		SupplierProductRef: "prod-1",
		SKU:                "TST-prod-1",
		BasePrice:          10,
		FinalPrice:         12,
		Stock:              3,
	}

	id1, err := UpsertSupplierItem(ctx, item)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Same supplier product again with a new price must update in place.
	item.BasePrice = 11
	item.FinalPrice = 13.2
	id2, err := UpsertSupplierItem(ctx, item)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected stable id across upserts, got %d then %d", id1, id2)
	}

	got, err := GetItem(ctx, id1)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.BasePrice != 11 || got.FinalPrice != 13.2 {
		t.Errorf("expected refreshed prices, got base=%v final=%v", got.BasePrice, got.FinalPrice)
	}
	if got.CatalogStatus != lifecycle.StatusDefault {
		t.Errorf("expected catalog status to survive re-upsert, got %s", got.CatalogStatus)
	}
}

func TestTransitionOptimisticGuard(t *testing.T) {
	ctx := context.Background()

	cleanup, err := setupIntegrationTestDB(ctx, t)
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
		return
	}
	defer cleanup()

	seedConnection(ctx, t, "conn-trans")

	id, err := UpsertSupplierItem(ctx, &SyncItem{
		SupplierRef:        "sup-1",
		ConnectionRef:      "conn-trans",
		SupplierProductRef: "prod-2",
		SKU:                "TST-prod-2",
		BasePrice:          5,
		FinalPrice:         6,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	fresh, err := GetItem(ctx, id)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	stale := *fresh

	moved, err := Transition(ctx, fresh, lifecycle.EventQueue, "")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if !moved {
		t.Fatal("expected first transition to win")
	}
	if fresh.CatalogStatus != lifecycle.StatusQueued {
		t.Errorf("expected in-memory status to advance, got %s", fresh.CatalogStatus)
	}

	// A writer holding the old status must lose the race silently.
	moved, err = Transition(ctx, &stale, lifecycle.EventQueue, "")
	if err != nil {
		t.Fatalf("stale transition: %v", err)
	}
	if moved {
		t.Error("expected stale transition to be rejected")
	}

	entries, err := ListAudit(ctx, id, 10)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one audit row, got %d", len(entries))
	}
	if entries[0].FromStatus != string(lifecycle.StatusDefault) || entries[0].ToStatus != string(lifecycle.StatusQueued) {
		t.Errorf("unexpected audit row %s -> %s", entries[0].FromStatus, entries[0].ToStatus)
	}
}

func TestFinishFeedJobOnce(t *testing.T) {
	ctx := context.Background()

	cleanup, err := setupIntegrationTestDB(ctx, t)
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
		return
	}
	defer cleanup()

	seedConnection(ctx, t, "conn-feed")

	job, err := CreateFeedJob(ctx, "conn-feed", "ext-feed-1", "create", nil)
	if err != nil {
		t.Fatalf("create feed job: %v", err)
	}
	if job.ProcessingStatus != FeedStatusSubmitted {
		t.Fatalf("expected submitted status, got %s", job.ProcessingStatus)
	}

	counts := FeedJobCounts{Processed: 10, Successful: 8, Errored: 1, Warned: 1}
	finished, err := FinishFeedJob(ctx, job.ID, FeedStatusDone, counts, nil)
	if err != nil {
		t.Fatalf("finish feed job: %v", err)
	}
	if !finished {
		t.Fatal("expected first finish to apply")
	}

	// A second reconciler racing on the same job must be a no-op.
	finished, err = FinishFeedJob(ctx, job.ID, FeedStatusError, FeedJobCounts{}, nil)
	if err != nil {
		t.Fatalf("second finish: %v", err)
	}
	if finished {
		t.Error("expected second finish to be rejected")
	}

	got, err := GetFeedJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get feed job: %v", err)
	}
	if got.ProcessingStatus != FeedStatusDone {
		t.Errorf("expected terminal status done, got %s", got.ProcessingStatus)
	}
	if got.Processed != 10 || got.Successful != 8 {
		t.Errorf("unexpected counts: %+v", got)
	}
}

func TestRulesForPairFiltersAndOrders(t *testing.T) {
	ctx := context.Background()

	cleanup, err := setupIntegrationTestDB(ctx, t)
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
		return
	}
	defer cleanup()

	_, err = Pool().Exec(ctx, `
		INSERT INTO pricing_rules (scope, supplier_ref, destination_ref, product_ref, rule_kind, value, priority, active)
		VALUES
			('global_connection', 'sup-1', 'dst-1', NULL, 'percentage_markup', 10, 1, TRUE),
			('product_specific',  'sup-1', 'dst-1', 'prod-9', 'flat_markup', 2, 5, TRUE),
			('global_connection', 'sup-1', 'dst-1', NULL, 'flat_markup', 1, 9, FALSE),
			('global_connection', 'sup-2', 'dst-1', NULL, 'flat_markup', 1, 9, TRUE)
	`)
	if err != nil {
		t.Fatalf("seed rules: %v", err)
	}

	rules, err := RulesForPair(ctx, "sup-1", "dst-1")
	if err != nil {
		t.Fatalf("rules for pair: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 active rules for the pair, got %d", len(rules))
	}
	if rules[0].Kind != pricing.KindFlatMarkup || rules[0].Priority != 5 {
		t.Errorf("expected highest-priority rule first, got %+v", rules[0])
	}
}
