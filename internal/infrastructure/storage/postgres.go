package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"NormasScanner/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// ReportSink appends accepted norms to the norm_reports table.
type ReportSink struct {
	db *sql.DB
}

var _ ports.ReportSink = (*ReportSink)(nil)

// NewReportSink wires a sql.DB implementation.
func NewReportSink(db *sql.DB) *ReportSink {
	return &ReportSink{db: db}
}

// AppendRows inserts one row per accepted norm. Row shape:
// [run_date, title, publication_date, summary, reference_url, edition].
func (s *ReportSink) AppendRows(ctx context.Context, rows [][]string) error {
	if s.db == nil || len(rows) == 0 {
		return nil
	}

	builder := psql.Insert("norm_reports").
		Columns("run_date", "title", "publication_date", "summary", "reference_url", "edition")
	for _, row := range rows {
		if len(row) != 6 {
			return fmt.Errorf("report row has %d columns, want 6", len(row))
		}
		builder = builder.Values(row[0], row[1], row[2], row[3], row[4], row[5])
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert report rows: %w", err)
	}
	return nil
}

// CorpusStore keeps the accumulated corpus text as a single keyed row in the
// corpora table.
type CorpusStore struct {
	db  *sql.DB
	key string
}

var _ ports.CorpusStore = (*CorpusStore)(nil)

// NewCorpusStore wires a sql.DB with the corpus row key.
func NewCorpusStore(db *sql.DB, key string) *CorpusStore {
	if key == "" {
		key = "hidrocarburos"
	}
	return &CorpusStore{db: db, key: key}
}

// Load returns the persisted corpus text; an absent row reads as empty,
// which the model builder treats as "bootstrap from keywords".
func (c *CorpusStore) Load(ctx context.Context) (string, error) {
	if c.db == nil {
		return "", fmt.Errorf("corpus store has no database")
	}

	query, args, err := psql.Select("content").
		From("corpora").
		Where(sq.Eq{"name": c.key}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build select: %w", err)
	}

	var content string
	err = c.db.QueryRowContext(ctx, query, args...).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load corpus %s: %w", c.key, err)
	}
	return content, nil
}

// Save upserts the corpus row.
func (c *CorpusStore) Save(ctx context.Context, text string) error {
	if c.db == nil {
		return fmt.Errorf("corpus store has no database")
	}

	query, args, err := psql.Insert("corpora").
		Columns("name", "content").
		Values(c.key, text).
		Suffix("ON CONFLICT (name) DO UPDATE SET content = EXCLUDED.content, updated_at = NOW()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save corpus %s: %w", c.key, err)
	}
	return nil
}
