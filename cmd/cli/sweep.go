package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/feed"
	"github.com/channelsync/sync-service/internal/marketplace"
	"github.com/channelsync/sync-service/internal/marketplace/ratelimit"
	"github.com/channelsync/sync-service/internal/storage"
	"github.com/channelsync/sync-service/internal/syncer"
)

var sweepConnection string

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep <check|push|deletion|retry|reprice|full>",
	Short: "Run one catalog sweep",
	Long: `Run one sweep across every active connection, or a single connection
with --connection. The summary is printed as JSON.

Exit code 0 means a clean run, 2 means the sweep finished with item-level
failures, 1 means the sweep itself failed.`,
	Example: `  sync-service sweep check
  sync-service sweep reprice --connection conn-amz-1
  sync-service sweep full`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepConnection, "connection", "", "Run against a single connection ref")
}

func buildOrchestrator() (*syncer.Orchestrator, error) {
	docs, err := storage.NewLocalStorage(cfg.Storage.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize feed document storage: %w", err)
	}

	syncCfg := syncer.DefaultConfig()
	syncCfg.ChunkSize = cfg.Sync.ChunkSize
	syncCfg.BatchThreshold = cfg.Sync.BatchThreshold
	syncCfg.RetryOlderThan = cfg.Sync.RetryOlderThan
	syncCfg.RateLimit = ratelimit.Config{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.BurstSize,
	}

	return syncer.New(syncer.DBStore{}, nil, syncCfg).WithDocStore(docs), nil
}

func buildReconciler() (*feed.Reconciler, error) {
	docs, err := storage.NewLocalStorage(cfg.Storage.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize feed document storage: %w", err)
	}

	return feed.New(feed.DBStore{}, feed.RegistryResolver(marketplace.DefaultRegistry), feed.Config{
		PollInterval: cfg.Feed.PollInterval,
		MaxAttempts:  cfg.Feed.MaxAttempts,
	}).WithDocStore(docs), nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	orc, err := buildOrchestrator()
	if err != nil {
		return err
	}

	var sweep syncer.SweepFunc
	switch args[0] {
	case "check":
		sweep = orc.CheckSweep
	case "push":
		sweep = orc.PushSweep
	case "deletion":
		sweep = orc.DeletionSweep
	case "retry":
		sweep = orc.RetrySweep
	case "reprice":
		sweep = orc.RepriceSweep
	case "full":
		sweep = orc.FullSweep
	default:
		return fmt.Errorf("unknown sweep: %s (expected check, push, deletion, retry, reprice or full)", args[0])
	}

	var summary *syncer.Summary
	if sweepConnection != "" {
		conn, err := database.GetConnection(ctx, sweepConnection)
		if err != nil {
			return err
		}
		if conn == nil {
			return fmt.Errorf("unknown connection: %s", sweepConnection)
		}
		summary, err = sweep(ctx, conn)
		if err != nil {
			return err
		}
	} else {
		summary, err = orc.RunAll(ctx, sweep, cfg.Sync.Parallelism)
		if err != nil {
			return err
		}
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if summary.Partial() {
		os.Exit(2)
	}
	return nil
}
