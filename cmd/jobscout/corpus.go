package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/hyperjump/jobscout/internal/app"
	"github.com/hyperjump/jobscout/internal/corpus"
	"github.com/hyperjump/jobscout/internal/pipeline"
	"github.com/hyperjump/jobscout/internal/scraper"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one scrape session into the corpus",
	RunE:  runScrape,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or refresh the semantic and keyword indexes",
	RunE:  runIndex,
}

var exportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export the corpus to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var (
	scrapeTitle     string
	scrapeLocations string
	scrapeLimit     int
)

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeTitle, "title", "t", "", "job title to search for (required)")
	scrapeCmd.Flags().StringVarP(&scrapeLocations, "locations", "l", "", "comma-separated locations")
	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 0, "postings per location (default from config)")
	_ = scrapeCmd.MarkFlagRequired("title")
	rootCmd.AddCommand(scrapeCmd, indexCmd, exportCmd)
}

func runScrape(cmd *cobra.Command, _ []string) error {
	return withComponents(func(ctx context.Context, c *app.Components) error {
		filters := scraper.FiltersFromConfig(c.Config.Scrape)
		if scrapeLimit > 0 {
			filters.Limit = scrapeLimit
		}
		report, err := c.Ingest.Ingest(ctx, scrapeTitle, pipeline.ParseLocations(scrapeLocations), filters)
		if report != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "accepted %d, rejected %d, errors %d, pages %d in %s\n",
				report.Accepted, report.Rejected, report.Errors, report.Pages, report.Duration.Round(time.Millisecond))
		}
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), pipeline.ErrorMessage(&pipeline.StageError{Stage: pipeline.StageScrape, Cause: err}))
			return errReported
		}
		return nil
	})
}

func runIndex(cmd *cobra.Command, _ []string) error {
	return withComponents(func(ctx context.Context, c *app.Components) error {
		status, err := c.Session.RefreshIndex(ctx)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), pipeline.ErrorMessage(&pipeline.StageError{Stage: pipeline.StageIndex, Cause: err}))
			return errReported
		}
		postings, err := c.Store.ReadAll(ctx)
		if err != nil {
			return err
		}
		n, err := c.Keyword.Sync(ctx, postings)
		if err != nil {
			return errors.Wrap(err, "keyword index sync failed")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "semantic index %s; keyword index synced %d postings\n", status, n)
		return nil
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	return withComponents(func(ctx context.Context, c *app.Components) error {
		n, err := corpus.ExportXLSX(ctx, c.Store, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d postings to %s\n", n, args[0])
		return nil
	})
}
