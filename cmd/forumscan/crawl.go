package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/forumscan/internal/config"
	"github.com/nao1215/forumscan/internal/database"
	"github.com/nao1215/forumscan/internal/dedup"
	"github.com/nao1215/forumscan/internal/model"
	"github.com/nao1215/forumscan/internal/pipeline"
	"github.com/nao1215/forumscan/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the category once and write post records",
		Long: `Crawl performs one complete run against the forum.

It makes sure a valid session exists (opening a browser for login when
needed), lists every topic of the category, keeps the topics created
inside the date window, fetches their posts and writes one record per
post to a JSON file and a CSV file.

Each run is also stored in the run database so 'forumscan history' can
compare runs.

Examples:
  # Crawl the default category and window
  forumscan crawl

  # Crawl a custom window, eight topics at a time
  forumscan crawl --from 2025-02-01 --to 2025-02-28 -n 8

  # Emit only posts never seen in an earlier run, with a Markdown summary
  forumscan crawl --only-new --summary summary.md

  # Route everything through a local Tor proxy
  forumscan crawl --proxy 127.0.0.1:9050`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	addForumFlags(cmd)

	// Window and pacing flags
	cmd.Flags().String("from", config.DefaultDateFrom.Format("2006-01-02"),
		"First topic creation date to include (YYYY-MM-DD)")
	cmd.Flags().String("to", config.DefaultDateTo.Format("2006-01-02"),
		"Last topic creation date to include (YYYY-MM-DD, inclusive)")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of topics fetched concurrently")
	cmd.Flags().Float64("rate", config.DefaultRateLimit,
		"Maximum API requests per second (0 disables limiting)")
	cmd.Flags().Int("retries", config.DefaultMaxRetries,
		"Retries for transient request failures")
	cmd.Flags().Int("max-pages", 0,
		"Stop listing after this many pages (0 means all)")
	cmd.Flags().Bool("continue-on-error", false,
		"Skip topics that fail instead of aborting the run")

	// Output flags
	cmd.Flags().StringP("output-dir", "o", ".",
		"Directory for the record files")
	cmd.Flags().String("json-file", config.DefaultJSONFile,
		"JSON record file name (empty disables)")
	cmd.Flags().String("csv-file", config.DefaultCSVFile,
		"CSV record file name (empty disables)")
	cmd.Flags().StringP("summary", "s", "",
		"Write a Markdown run summary to this path")
	cmd.Flags().String("fingerprint", config.DefaultFingerprint,
		"Content fingerprint algorithm (sha256 or sha3-256)")

	// History and dedup flags
	cmd.Flags().String("db-dir", "",
		"Run database directory (default: XDG data directory)")
	cmd.Flags().Bool("no-db", false,
		"Do not store the run in the run database")
	cmd.Flags().Bool("only-new", false,
		"Write only posts whose content was not seen in an earlier run")
	cmd.Flags().String("redis-addr", "",
		"Keep the --only-new fingerprint index in Redis at this address")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runCrawl(ctx, cmd, cfg, logger)
}

// runCrawl executes one run and writes its outputs.
func runCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	out := cmd.OutOrStdout()

	logger.Info("starting crawl",
		"baseURL", cfg.BaseURL,
		"category", cfg.CategoryPath,
		"from", cfg.DateFrom,
		"to", cfg.DateTo,
		"concurrency", cfg.Concurrency,
	)

	e, err := setupEgress(ctx, cfg, cmd.ErrOrStderr(), logger)
	if err != nil {
		return err
	}
	defer e.Close(logger)

	manager, err := newSessionManager(cmd, cfg, e, logger)
	if err != nil {
		return fmt.Errorf("failed to set up session: %w", err)
	}

	assembler, err := newAssembler(cfg)
	if err != nil {
		return err
	}

	// Open the database before crawling so a broken database fails fast.
	var db *database.CrawlDB
	if cfg.SaveToDB || (cfg.OnlyNew && cfg.RedisAddr == "") {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	harvester := pipeline.NewHarvester(
		manager,
		sourceFactory(cfg, e.client, manager.Host(), logger),
		assembler,
		pipeline.WithWindow(cfg.Window()),
		pipeline.WithHarvesterLogger(logger),
		pipeline.WithBatchOptions(
			pipeline.WithConcurrency(cfg.Concurrency),
			pipeline.WithContinueOnError(cfg.ContinueOnError),
			pipeline.WithProgress(progressPrinter(cmd.ErrOrStderr())),
		),
	)

	fmt.Fprintf(out, "Crawling %s (category %s/%d)...\n", cfg.BaseURL, cfg.CategoryPath, cfg.CategoryID)
	startTime := time.Now()

	result, runErr := harvester.Run(ctx)
	if result == nil {
		return runErr
	}
	if runErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Run stopped early: %v\nWriting the %d topics completed so far.\n",
			runErr, result.Run.ProcessedTopics)
	}

	emitted := result.Records
	var idx dedup.Index
	if cfg.OnlyNew {
		idx, err = openFingerprintIndex(ctx, cfg, db)
		if err != nil {
			return err
		}
		defer idx.Close()

		emitted, err = dedup.FilterNew(ctx, idx, result.Records)
		if err != nil {
			return err
		}
		logger.Info("filtered known posts", "total", len(result.Records), "new", len(emitted))
	}

	if err := writeOutputs(cfg, emitted); err != nil {
		return err
	}

	if idx != nil {
		if err := dedup.Remember(ctx, idx, emitted); err != nil {
			return err
		}
	}

	if db != nil && cfg.SaveToDB {
		if _, err := db.SaveRun(ctx, result); err != nil {
			logger.Error("failed to save run", "error", err)
		}
		// Every stored run feeds the index so a later --only-new run
		// skips what earlier runs already wrote.
		if err := dedup.Remember(ctx, db.Fingerprints(), result.Records); err != nil {
			logger.Error("failed to index fingerprints", "error", err)
		}
	}

	summary := report.NewSummary(result.Run, result.Records, report.DefaultTopN)
	summary.NewRecords = len(emitted)

	if cfg.SummaryFile != "" {
		if err := writeFile(cfg.SummaryFile, func(w io.Writer) error {
			_, err := report.NewMarkdownWriter(w).WriteSummary(summary)
			return err
		}); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	fmt.Fprintf(out, "Crawl completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))
	if _, err := report.NewSimpleWriter(out).WriteSummary(summary); err != nil {
		return err
	}

	if runErr != nil {
		return fmt.Errorf("crawl incomplete: %w", runErr)
	}
	return nil
}

// progressPrinter reports finished topics on one overwritten line.
func progressPrinter(w io.Writer) func(done, total int) {
	var mu sync.Mutex
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "\r[%d/%d] topics processed", done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}

// openFingerprintIndex returns the Redis index when configured, else the
// SQLite index of the run database.
func openFingerprintIndex(ctx context.Context, cfg *config.Config, db *database.CrawlDB) (dedup.Index, error) {
	if cfg.RedisAddr != "" {
		idx, err := dedup.NewRedisIndex(ctx, dedup.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return idx, nil
	}
	if db == nil {
		return nil, errors.New("fingerprint index requires the run database")
	}
	return db.Fingerprints(), nil
}

// writeOutputs writes the JSON and CSV record files that are enabled.
func writeOutputs(cfg *config.Config, records []model.Record) error {
	outputs := []struct {
		name   string
		writer func(io.Writer) report.Writer
	}{
		{cfg.JSONFile, func(w io.Writer) report.Writer { return report.NewJSONWriter(w, report.WithPrettyPrint()) }},
		{cfg.CSVFile, func(w io.Writer) report.Writer { return report.NewCSVWriter(w) }},
	}

	for _, o := range outputs {
		if o.name == "" {
			continue
		}
		path := filepath.Join(cfg.OutputDir, o.name)
		err := writeFile(path, func(w io.Writer) error {
			_, err := o.writer(w).WriteRecords(records)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}

// writeFile creates path, including missing directories, and fills it.
func writeFile(path string, fill func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-chosen output path
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
