package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/channelsync/sync-service/internal/database"
)

var reconcileConnection string

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile [feedJobID]",
	Short: "Reconcile submitted bulk feeds",
	Long: `Poll the marketplace for feed results and fan them out to the affected
items. With a feed job id, reconciles that one job; with --connection,
reconciles every unfinished job of the connection.`,
	Example: `  sync-service reconcile feed_x1y2z3
  sync-service reconcile --connection conn-amz-1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVar(&reconcileConnection, "connection", "", "Reconcile all pending feed jobs of a connection")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rec, err := buildReconciler()
	if err != nil {
		return err
	}

	var jobs []database.FeedJob
	if len(args) == 1 {
		job, err := rec.Reconcile(ctx, args[0])
		if err != nil {
			return err
		}
		jobs = []database.FeedJob{*job}
	} else {
		if reconcileConnection == "" {
			return fmt.Errorf("either specify a feed job id or use --connection")
		}
		jobs, err = rec.ReconcilePending(ctx, reconcileConnection, 100)
		if err != nil {
			return err
		}
	}

	displayFeedJobs(jobs)

	for _, j := range jobs {
		if j.ProcessingStatus != database.FeedStatusDone {
			os.Exit(2)
		}
	}
	return nil
}

func displayFeedJobs(jobs []database.FeedJob) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FEED JOB\tKIND\tSTATUS\tPROCESSED\tOK\tERRORS\tWARNINGS")
	fmt.Fprintln(w, "--------\t----\t------\t---------\t--\t------\t--------")

	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			j.ID, j.FeedKind, j.ProcessingStatus, j.Processed, j.Successful, j.Errored, j.Warned)
	}

	w.Flush()
}
