package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/channelsync/sync-service/internal/database"
)

var (
	feedsConnection string
	feedsStatus     string
	feedsLimit      int
)

// feedsCmd represents the feeds command
var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "List recent bulk feed jobs",
	Example: `  sync-service feeds
  sync-service feeds --connection conn-amz-1 --status submitted`,
	RunE: runFeeds,
}

func init() {
	rootCmd.AddCommand(feedsCmd)

	feedsCmd.Flags().StringVar(&feedsConnection, "connection", "", "Filter by connection ref")
	feedsCmd.Flags().StringVar(&feedsStatus, "status", "", "Filter by processing status")
	feedsCmd.Flags().IntVar(&feedsLimit, "limit", 20, "Number of jobs to list")
}

func runFeeds(cmd *cobra.Command, args []string) error {
	jobs, err := database.ListFeedJobs(context.Background(), feedsConnection, feedsStatus, feedsLimit, 0)
	if err != nil {
		return err
	}

	displayFeedJobs(jobs)
	return nil
}
