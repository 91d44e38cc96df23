package pairsource

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"waybackfill/internal/logging"
	"waybackfill/internal/slugpair"
)

// Dataset column names.
const (
	ColumnTestID   = "clickability_test_id"
	ColumnHeadline = "headline"
	ColumnSlug     = "slug"
)

// Blank test ids and headlines are stored as NULL so they neither join a
// test group nor count as a distinct headline.
const schema = `CREATE TABLE headlines (
	row_num  INTEGER PRIMARY KEY,
	test_id  TEXT,
	headline TEXT,
	slug     TEXT NOT NULL
)`

// multiHeadlineQuery keeps rows of tests that compared more than one distinct
// headline, in file order.
const multiHeadlineQuery = `
WITH unique_heds_per_test AS (
	SELECT test_id, COUNT(DISTINCT headline) AS num_headlines
	FROM headlines
	GROUP BY test_id
),
multi AS (
	SELECT test_id FROM unique_heds_per_test WHERE num_headlines > 1
)
SELECT slug
FROM headlines
WHERE test_id IN (SELECT test_id FROM multi)
ORDER BY row_num`

// Dataset reads slug pairs from the headline CSV by loading it into an
// in-memory SQLite database and running the multi-headline query.
type Dataset struct {
	path     string
	distinct bool
	logger   *slog.Logger
}

var _ Source = (*Dataset)(nil)

// DatasetOption configures a Dataset.
type DatasetOption func(*Dataset)

// WithDistinctPairs collapses repeated pairs, keeping the first occurrence.
func WithDistinctPairs(enabled bool) DatasetOption {
	return func(d *Dataset) {
		d.distinct = enabled
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) DatasetOption {
	return func(d *Dataset) {
		d.logger = logging.NewComponentLogger(logger, "pairsource")
	}
}

// NewDataset creates a Dataset source for the CSV at path.
func NewDataset(path string, opts ...DatasetOption) (*Dataset, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("dataset path required")
	}
	d := &Dataset{path: path, logger: logging.NewComponentLogger(nil, "pairsource")}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Pairs loads the CSV and returns one pair per qualifying row.
func (d *Dataset) Pairs(ctx context.Context) ([]slugpair.Pair, error) {
	file, err := os.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	defer db.Close()
	// Every pooled connection to ":memory:" would get its own empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create headlines table: %w", err)
	}
	rowCount, err := loadCSV(ctx, db, file)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", d.path, err)
	}

	rows, err := db.QueryContext(ctx, multiHeadlineQuery)
	if err != nil {
		return nil, fmt.Errorf("query multi-headline tests: %w", err)
	}
	defer rows.Close()

	var pairs []slugpair.Pair
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan slug: %w", err)
		}
		pairs = append(pairs, slugpair.FromSlug(slug))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slugs: %w", err)
	}

	selected := len(pairs)
	if d.distinct {
		pairs = Distinct(pairs)
	}
	d.logger.Info("loaded slug pairs",
		logging.String("path", d.path),
		logging.Int("rows", rowCount),
		logging.Int("selected", selected),
		logging.Int("pairs", len(pairs)),
		logging.Bool("distinct", d.distinct))
	return pairs, nil
}

func loadCSV(ctx context.Context, db *sql.DB, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, errors.New("dataset is empty")
		}
		return 0, fmt.Errorf("read header: %w", err)
	}
	columns, err := indexColumns(header)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin load: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO headlines (row_num, test_id, headline, slug) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read row %d: %w", count+2, err)
		}
		count++
		if _, err := stmt.ExecContext(ctx,
			count,
			nullIfBlank(field(record, columns[ColumnTestID])),
			nullIfBlank(field(record, columns[ColumnHeadline])),
			field(record, columns[ColumnSlug]),
		); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", count+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit load: %w", err)
	}
	return count, nil
}

// indexColumns maps required column names to their positions. Other columns
// are ignored.
func indexColumns(header []string) (map[string]int, error) {
	columns := map[string]int{
		ColumnTestID:   -1,
		ColumnHeadline: -1,
		ColumnSlug:     -1,
	}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := columns[name]; ok && columns[name] < 0 {
			columns[name] = i
		}
	}
	var missing []string
	for _, name := range []string{ColumnTestID, ColumnHeadline, ColumnSlug} {
		if columns[name] < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("dataset missing required columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func nullIfBlank(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
