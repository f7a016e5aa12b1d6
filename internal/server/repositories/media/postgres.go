package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/dmitrijs2005/sentivault/internal/dbx"
	"github.com/dmitrijs2005/sentivault/internal/server/models"
)

const selectColumns = `id, kind, uploaded_by, filepath, original_name, size_bytes, content_type, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.MediaAsset) error {
	query := `
		INSERT INTO media_assets (id, kind, uploaded_by, filepath, original_name, size_bytes, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, string(a.MediaKind), a.UploadedBy, a.Filepath, a.OriginalName, a.SizeBytes, a.ContentType, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.MediaAsset, error) {
	query := `SELECT ` + selectColumns + ` FROM media_assets WHERE id = $1`

	a, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, owner string) ([]*models.MediaAsset, error) {
	query := `SELECT ` + selectColumns + ` FROM media_assets`
	var args []any
	if owner != "" {
		query += ` WHERE uploaded_by = $1`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select media assets: %w", err)
	}
	defer rows.Close()

	var result []*models.MediaAsset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media_assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media asset: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

func (r *PostgresRepository) ListPaths(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT filepath FROM media_assets`)
	if err != nil {
		return nil, fmt.Errorf("failed to select media paths: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*models.MediaAsset, error) {
	var (
		a    models.MediaAsset
		kind string
	)
	if err := row.Scan(&a.ID, &kind, &a.UploadedBy, &a.Filepath, &a.OriginalName, &a.SizeBytes, &a.ContentType, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.MediaKind = models.FileKind(kind)
	return &a, nil
}
