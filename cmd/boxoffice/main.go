// Command boxoffice recovers the weekly and monthly box-office tables published
// as PDF bulletins into one reconciled record set.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/catalog"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
	"github.com/FACorreiaa/box-office-tracker/pkg/config"
	"github.com/FACorreiaa/box-office-tracker/pkg/cron"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "boxoffice",
		Short: "Box-office bulletin recovery",
		Long: `boxoffice downloads the box-office bulletins of the national film
institute, parses every era of their table layout and reconciles the
movies across bulletins into one record set with derived weekly figures.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(migrateCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// setup loads configuration, applies flag overrides and builds the
// dependencies for a command.
func setup(ctx context.Context, overrides ...func(*config.Config)) (*Dependencies, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	for _, o := range overrides {
		o(cfg)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	return InitDependencies(ctx, cfg, logger)
}

func runCmd() *cobra.Command {
	var lenient bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Parse and reconcile every bulletin in the source directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := setup(cmd.Context(), func(cfg *config.Config) {
				if cmd.Flags().Changed("lenient") {
					cfg.Batch.Lenient = lenient
				}
			})
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			report, err := deps.runBatch(cmd.Context())
			if report != nil {
				counts := record.CountByKind(report.Issues)
				deps.Logger.Info("Run summary",
					slog.String("run_id", report.RunID.String()),
					slog.Int("records", len(report.Records)),
					slog.Int("groups", report.Groups),
					slog.Int("max_document", report.MaxDocument),
					slog.Int("boundary_not_found", counts[record.BoundaryNotFound]),
					slog.Int("patch_key_mismatch", counts[record.PatchKeyMismatch]))
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&lenient, "lenient", false, "record index gaps as warnings instead of aborting the document")
	return cmd
}

func fetchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download new bulletins from the publication listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := setup(cmd.Context(), func(cfg *config.Config) {
				if limit > 0 {
					cfg.Fetch.Limit = limit
				}
			})
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			result, err := deps.Crawler.Crawl(cmd.Context())
			if err != nil {
				return err
			}
			for _, info := range result.Downloaded {
				fmt.Fprintln(cmd.OutOrStdout(), deps.Sources.Location(info))
			}
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d downloads failed: %w", len(result.Failed), errors.Join(result.Failed...))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "follow at most this many listing links (0 follows all)")
	return cmd
}

func watchCmd() *cobra.Command {
	var now bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Fetch and re-run on the WATCH_SCHEDULE cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			// force re-runs the batch even when the crawl found nothing new.
			job := func(force bool) cron.Job {
				return func(ctx context.Context) error {
					result, err := deps.Crawler.Crawl(ctx)
					if err != nil {
						return fmt.Errorf("failed to crawl: %w", err)
					}
					if len(result.Downloaded) == 0 && !force {
						deps.Logger.Info("No new bulletins")
						return nil
					}
					_, err = deps.runBatch(ctx)
					if errors.Is(err, errFatalIssues) {
						deps.Logger.Warn("Run finished with fatal issues, see issues.tsv")
						return nil
					}
					return err
				}
			}

			scheduler := cron.NewScheduler(deps.Logger, time.Hour)
			if err := scheduler.Add("bulletins", deps.Config.Watch.Schedule, job(false)); err != nil {
				return err
			}

			if now {
				scheduler.RunNow("bulletins", job(true))
			}
			scheduler.Start()

			<-cmd.Context().Done()
			<-scheduler.Stop().Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&now, "now", false, "run once immediately before waiting for the schedule")
	return cmd
}

func searchCmd() *cobra.Command {
	var (
		limit   int
		country string
		history bool
	)

	cmd := &cobra.Command{
		Use:   "search [title]",
		Short: "Search the title catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			if deps.Config.Catalog.Path == "" {
				return errors.New("CATALOG_PATH is required to search a previous run")
			}

			var hits []catalog.Hit
			switch {
			case country != "":
				hits, err = deps.Catalog.ByCountry(country, limit)
			case len(args) == 1:
				hits, err = deps.Catalog.Search(args[0], limit)
			default:
				return errors.New("a title or --country is required")
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, h := range hits {
				e := h.Entry
				fmt.Fprintf(out, "%s\t%s\t%s\t%.0f\t%.0f\n",
					e.Title, e.ReleaseDate, e.Country, e.CumulativeTickets, e.CumulativeSales)
			}

			if !history || len(hits) == 0 {
				return nil
			}
			if deps.Store == nil {
				return errors.New("--history needs POSTGRES_ENABLED")
			}
			best := hits[0].Entry
			released, err := time.Parse(record.DateLayout, best.ReleaseDate)
			if err != nil {
				return fmt.Errorf("invalid release date %q: %w", best.ReleaseDate, err)
			}
			series, err := deps.Store.ListGroup(cmd.Context(), best.Title, released)
			if err != nil {
				return err
			}
			for _, r := range series {
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%s\n",
					r.Document, r.PeriodEnd.Format(record.DateLayout),
					r.PeriodTicketsDerived, r.PeriodSalesDerived, r.CumulativeTickets)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of hits")
	cmd.Flags().StringVar(&country, "country", "", "list the movies of one country instead of matching a title")
	cmd.Flags().BoolVar(&history, "history", false, "print the stored series of the best hit")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			if deps.Pool == nil {
				return errors.New("POSTGRES_ENABLED is false")
			}
			deps.Logger.Info("Schema is up to date")
			return nil
		},
	}
}
