package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/forumscan/internal/database"
	"github.com/nao1215/forumscan/internal/model"
	"github.com/nao1215/forumscan/internal/report"
)

// errNoPreviousRun is returned when a run has nothing earlier to compare with.
var errNoPreviousRun = errors.New("no earlier run to compare with")

// NewHistoryCmd creates the history command.
// This command lists stored runs and compares two of them by fingerprint.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id] [run-id]",
		Short: "List stored runs or compare two runs",
		Long: `History reads the run database written by 'forumscan crawl'.

Without arguments it lists the stored runs, newest first. With one run id
it compares that run with the run before it; with two ids it compares the
first (baseline) with the second. Posts are matched by id and a post
counts as edited when its content fingerprint changed.

Examples:
  # List the last 20 runs
  forumscan history

  # Compare the two most recent runs
  forumscan history --latest

  # Compare run 3 with run 7 as Markdown
  forumscan history 3 7 --markdown

  # Machine-readable run listing
  forumscan history --json`,
		Args: cobra.MaximumNArgs(2),
		RunE: runHistoryCmd,
	}

	addConfigFlag(cmd)
	cmd.Flags().String("db-dir", "",
		"Run database directory (default: XDG data directory)")
	cmd.Flags().IntP("limit", "n", 20,
		"Number of runs to list (0 lists all)")
	cmd.Flags().BoolP("latest", "l", false,
		"Compare the two most recent runs")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison in Markdown format")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	limit    int
	latest   bool
	json     bool
	markdown bool
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	var opts historyOptions
	var err error
	if opts.limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return err
	}
	if opts.latest, err = cmd.Flags().GetBool("latest"); err != nil {
		return err
	}
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if opts.latest && len(args) > 0 {
		return errors.New("--latest cannot be combined with run ids")
	}

	// Validate arguments before opening the database.
	ids := make([]int64, len(args))
	for i, a := range args {
		ids[i], err = strconv.ParseInt(a, 10, 64)
		if err != nil || ids[i] <= 0 {
			return fmt.Errorf("invalid run id %q", a)
		}
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if len(ids) == 0 && !opts.latest {
		return listRuns(ctx, db, out, opts)
	}

	baseline, current, err := resolveRunPair(ctx, db, ids, opts.latest)
	if err != nil {
		return err
	}
	return compareRuns(ctx, db, out, baseline, current, opts)
}

// listRuns prints the stored runs, newest first.
func listRuns(ctx context.Context, db *database.CrawlDB, out io.Writer, opts historyOptions) error {
	runs, err := db.ListRuns(ctx, opts.limit)
	if err != nil {
		return err
	}
	if opts.json {
		_, err = report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(runs)
		return err
	}
	_, err = report.NewSimpleWriter(out).WriteRuns(runs)
	return err
}

// resolveRunPair returns the baseline and current run ids to compare.
func resolveRunPair(ctx context.Context, db *database.CrawlDB, ids []int64, latest bool) (int64, int64, error) {
	switch {
	case len(ids) == 2:
		return ids[0], ids[1], nil
	case len(ids) == 1:
		prev, err := previousRun(ctx, db, ids[0])
		return prev, ids[0], err
	default:
		runs, err := db.ListRuns(ctx, 2)
		if err != nil {
			return 0, 0, err
		}
		if len(runs) < 2 {
			return 0, 0, fmt.Errorf("%w: %d run(s) stored", errNoPreviousRun, len(runs))
		}
		return runs[1].ID, runs[0].ID, nil
	}
}

// previousRun returns the id of the newest run stored before id.
func previousRun(ctx context.Context, db *database.CrawlDB, id int64) (int64, error) {
	if _, err := db.GetRun(ctx, id); err != nil {
		return 0, err
	}
	runs, err := db.ListRuns(ctx, 0)
	if err != nil {
		return 0, err
	}
	for _, r := range runs {
		if r.ID < id {
			return r.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: run %d is the oldest", errNoPreviousRun, id)
}

// compareRuns loads two runs and prints their differences.
func compareRuns(ctx context.Context, db *database.CrawlDB, out io.Writer, baselineID, currentID int64, opts historyOptions) error {
	load := func(id int64) (*model.CrawlRun, []model.Record, error) {
		run, err := db.GetRun(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		records, err := db.GetRunRecords(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		return run, records, nil
	}

	baseRun, baseRecords, err := load(baselineID)
	if err != nil {
		return err
	}
	curRun, curRecords, err := load(currentID)
	if err != nil {
		return err
	}

	diff := report.NewDiffReport(*baseRun, *curRun, baseRecords, curRecords)

	switch {
	case opts.json:
		_, err = report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(diff)
	case opts.markdown:
		_, err = report.NewMarkdownWriter(out).WriteDiff(diff)
	default:
		_, err = report.NewSimpleWriter(out).WriteDiff(diff)
	}
	return err
}
