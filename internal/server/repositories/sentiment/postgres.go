// Package sentiment stores sentiment records in PostgreSQL or in memory.
package sentiment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/dmitrijs2005/sentivault/internal/dbx"
	"github.com/dmitrijs2005/sentivault/internal/server/models"
)

const selectColumns = `id, uploaded_by, source_file, original_name, size_bytes, created_at,
	title, url, time_published, authors, summary, banner_image, source,
	category_within_source, source_domain, topics, overall_sentiment_score,
	overall_sentiment_label, ticker_sentiment`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// InsertMany inserts records one by one. Run it inside dbx.WithTx to make
// the batch atomic.
func (r *PostgresRepository) InsertMany(ctx context.Context, records []*models.SentimentRecord) error {
	query := `
		INSERT INTO sentiment_records (id, uploaded_by, source_file, original_name, size_bytes, created_at,
			title, url, time_published, authors, summary, banner_image, source,
			category_within_source, source_domain, topics, overall_sentiment_score,
			overall_sentiment_label, ticker_sentiment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11, $12, $13, $14, $15, $16::jsonb, $17, $18, $19::jsonb)
	`
	for _, rec := range records {
		authors, topics, tickers, err := encodeJSONColumns(rec)
		if err != nil {
			return err
		}
		_, err = r.db.ExecContext(ctx, query,
			rec.ID, rec.UploadedBy, rec.SourceFile, rec.OriginalName, rec.SizeBytes, rec.CreatedAt,
			rec.Title, rec.URL, rec.TimePublished, authors, rec.Summary, rec.BannerImage, rec.Source,
			rec.CategoryWithinSource, rec.SourceDomain, topics, nullFloat(rec.OverallSentimentScore),
			rec.OverallSentimentLabel, tickers)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.SentimentRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM sentiment_records WHERE id = $1`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// Find lists records newest first. The ticker filter matches any element of
// ticker_sentiment with an equal ticker.
func (r *PostgresRepository) Find(ctx context.Context, filter models.SentimentFilter) ([]*models.SentimentRecord, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.UploadedBy != "" {
		where = append(where, "uploaded_by = "+arg(filter.UploadedBy))
	}
	if filter.Label != "" {
		where = append(where, "overall_sentiment_label = "+arg(filter.Label))
	}
	if filter.Ticker != "" {
		b, err := json.Marshal([]map[string]string{{"ticker": filter.Ticker}})
		if err != nil {
			return nil, err
		}
		where = append(where, "ticker_sentiment @> "+arg(string(b))+"::jsonb")
	}

	query := `SELECT ` + selectColumns + ` FROM sentiment_records`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select sentiment records: %w", err)
	}
	defer rows.Close()

	var result []*models.SentimentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, rec *models.SentimentRecord) error {
	query := `
		UPDATE sentiment_records SET
			title = $2, url = $3, time_published = $4, authors = $5::jsonb, summary = $6,
			banner_image = $7, source = $8, category_within_source = $9, source_domain = $10,
			topics = $11::jsonb, overall_sentiment_score = $12, overall_sentiment_label = $13,
			ticker_sentiment = $14::jsonb
		WHERE id = $1
	`
	authors, topics, tickers, err := encodeJSONColumns(rec)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Title, rec.URL, rec.TimePublished, authors, rec.Summary,
		rec.BannerImage, rec.Source, rec.CategoryWithinSource, rec.SourceDomain,
		topics, nullFloat(rec.OverallSentimentScore), rec.OverallSentimentLabel, tickers)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sentiment_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sentiment record: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

func (r *PostgresRepository) CountBySourceFile(ctx context.Context, sourceFile string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM sentiment_records WHERE source_file = $1`, sourceFile).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListSourceFiles(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT source_file FROM sentiment_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to select source files: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		result = append(result, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.SentimentRecord, error) {
	var (
		rec                     models.SentimentRecord
		authors, topics, ticker []byte
		score                   sql.NullFloat64
	)
	err := row.Scan(&rec.ID, &rec.UploadedBy, &rec.SourceFile, &rec.OriginalName, &rec.SizeBytes, &rec.CreatedAt,
		&rec.Title, &rec.URL, &rec.TimePublished, &authors, &rec.Summary, &rec.BannerImage, &rec.Source,
		&rec.CategoryWithinSource, &rec.SourceDomain, &topics, &score,
		&rec.OverallSentimentLabel, &ticker)
	if err != nil {
		return nil, err
	}

	if err := decodeJSON(authors, &rec.Authors); err != nil {
		return nil, fmt.Errorf("authors: %w", err)
	}
	if err := decodeJSON(topics, &rec.Topics); err != nil {
		return nil, fmt.Errorf("topics: %w", err)
	}
	if err := decodeJSON(ticker, &rec.TickerSentiment); err != nil {
		return nil, fmt.Errorf("ticker_sentiment: %w", err)
	}
	if score.Valid {
		v := score.Float64
		rec.OverallSentimentScore = &v
	}
	return &rec, nil
}

func decodeJSON(b []byte, dst any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}

func encodeJSONColumns(rec *models.SentimentRecord) (authors, topics, tickers string, err error) {
	enc := func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	}
	if authors, err = enc(nonNil(rec.Authors)); err != nil {
		return
	}
	if topics, err = enc(nonNil(rec.Topics)); err != nil {
		return
	}
	tickers, err = enc(nonNil(rec.TickerSentiment))
	return
}

// nonNil keeps empty lists as [] rather than null in JSONB.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
