package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/forumscan/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "forumscan.db"

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("crawl run not found")

// CrawlDB provides SQLite-based storage for crawl runs and fingerprints.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		base_url TEXT NOT NULL,
		category_id INTEGER NOT NULL,
		window_from TEXT,
		window_to TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		listed_topics INTEGER NOT NULL DEFAULT 0,
		processed_topics INTEGER NOT NULL DEFAULT 0,
		record_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);

	-- Records keep their position so a run can be replayed in listing order
	CREATE TABLE IF NOT EXISTS run_records (
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		post_id INTEGER NOT NULL,
		topic_id INTEGER NOT NULL,
		hash TEXT NOT NULL,
		record_json TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_records_post ON run_records(post_id);

	CREATE TABLE IF NOT EXISTS fingerprints (
		hash TEXT PRIMARY KEY,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a run and its records in one transaction and sets
// result.Run.ID to the new run id.
func (cdb *CrawlDB) SaveRun(ctx context.Context, result *model.CrawlResult) (int64, error) {
	if result == nil {
		return 0, errors.New("cannot save nil crawl result")
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	run := result.Run
	res, err := tx.ExecContext(ctx, `
	INSERT INTO crawl_runs (base_url, category_id, window_from, window_to, started_at, finished_at,
		listed_topics, processed_topics, record_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.BaseURL,
		run.CategoryID,
		formatTimestamp(run.Window.From),
		formatTimestamp(run.Window.To),
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		run.ListedTopics,
		run.ProcessedTopics,
		len(result.Records),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert crawl run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO run_records (run_id, position, post_id, topic_id, hash, record_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range result.Records {
		data, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize record %d: %w", rec.PostID, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, i, rec.PostID, rec.TopicID, rec.Hash, string(data)); err != nil {
			return 0, fmt.Errorf("failed to insert record %d: %w", rec.PostID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit crawl run: %w", err)
	}

	result.Run.ID = runID
	result.Run.RecordCount = len(result.Records)
	return runID, nil
}

const runColumns = `id, base_url, category_id, window_from, window_to, started_at, finished_at,
	listed_topics, processed_topics, record_count`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (model.CrawlRun, error) {
	var run model.CrawlRun
	var from, to, started, finished sql.NullString

	err := row.Scan(
		&run.ID,
		&run.BaseURL,
		&run.CategoryID,
		&from,
		&to,
		&started,
		&finished,
		&run.ListedTopics,
		&run.ProcessedTopics,
		&run.RecordCount,
	)
	if err != nil {
		return model.CrawlRun{}, err
	}

	run.Window.From = parseTimestamp(from.String)
	run.Window.To = parseTimestamp(to.String)
	run.StartedAt = parseTimestamp(started.String)
	run.FinishedAt = parseTimestamp(finished.String)
	return run, nil
}

// ListRuns returns the most recent runs, newest first. A non-positive
// limit returns every run.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]model.CrawlRun, error) {
	query := `SELECT ` + runColumns + ` FROM crawl_runs ORDER BY id DESC`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]model.CrawlRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetRun returns one run by id.
func (cdb *CrawlDB) GetRun(ctx context.Context, id int64) (*model.CrawlRun, error) {
	row := cdb.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM crawl_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// GetRunRecords returns the records of a run in their original order.
func (cdb *CrawlDB) GetRunRecords(ctx context.Context, runID int64) ([]model.Record, error) {
	if _, err := cdb.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := cdb.db.QueryContext(ctx, `
	SELECT record_json FROM run_records
	WHERE run_id = ?
	ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run records: %w", err)
	}
	defer rows.Close()

	records := make([]model.Record, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		var rec model.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("failed to parse record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Fingerprints returns the SQLite-backed fingerprint index.
func (cdb *CrawlDB) Fingerprints() *FingerprintIndex {
	return &FingerprintIndex{db: cdb.db}
}

// FingerprintIndex remembers every content fingerprint ever emitted.
type FingerprintIndex struct {
	db *sql.DB
}

// Seen reports whether hash was added before.
func (f *FingerprintIndex) Seen(ctx context.Context, hash string) (bool, error) {
	var count int
	err := f.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fingerprints WHERE hash = ?`, hash).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check fingerprint: %w", err)
	}
	return count > 0, nil
}

// Add records hashes as seen. Known hashes keep their first-seen time.
func (f *FingerprintIndex) Add(ctx context.Context, hashes ...string) error {
	if len(hashes) == 0 {
		return nil
	}

	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, hash := range hashes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO fingerprints (hash) VALUES (?) ON CONFLICT(hash) DO NOTHING`, hash); err != nil {
			return fmt.Errorf("failed to add fingerprint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fingerprints: %w", err)
	}
	return nil
}

// Close is a no-op; the index shares the CrawlDB connection.
func (f *FingerprintIndex) Close() error {
	return nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // formatTimestamp output
	time.RFC3339,              // Full RFC3339 format
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// Empty or unparseable input yields the zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
