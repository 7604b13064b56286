package persistent

import (
	"context"
	"fmt"

	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
	"github.com/thumbgen/thumbnail-pipeline/pkg/postgres"

	"github.com/Masterminds/squirrel"
)

const (
	// Table
	thumbnailsTable = "thumbnails"

	// Columns
	identityColumn         = "identity"
	sizeColumn             = "size"
	originalURLColumn      = "original_url"
	thumbnailURLColumn     = "thumbnail_url"
	originalFileSizeColumn = "original_file_size"
	contentTypeColumn      = "content_type"
	filenameColumn         = "filename"
	callbackURLColumn      = "callback_url"
	createdAtColumn        = "created_at"
)

type ThumbnailRowRepo struct {
	*postgres.Postgres
}

func NewThumbnailRowRepo(pg *postgres.Postgres) *ThumbnailRowRepo {
	return &ThumbnailRowRepo{pg}
}

// Upsert inserts one row or overwrites the row sharing the
// (identity, size) natural key. Replays are therefore safe.
func (r *ThumbnailRowRepo) Upsert(ctx context.Context, row *entity.ThumbnailRow) error {
	sql, args, err := r.Builder.
		Insert(thumbnailsTable).
		Columns(
			identityColumn,
			sizeColumn,
			originalURLColumn,
			thumbnailURLColumn,
			originalFileSizeColumn,
			contentTypeColumn,
			filenameColumn,
			callbackURLColumn,
			createdAtColumn,
		).
		Values(
			row.Identity,
			row.SizeKey,
			row.OriginalURL,
			row.ThumbnailURL,
			row.OriginalFileSize,
			row.ContentType,
			row.Filename,
			row.CallbackURL,
			row.CreatedAt,
		).
		Suffix(fmt.Sprintf(
			"ON CONFLICT (%s, %s) DO UPDATE SET %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s",
			identityColumn, sizeColumn,
			originalURLColumn, originalURLColumn,
			thumbnailURLColumn, thumbnailURLColumn,
			originalFileSizeColumn, originalFileSizeColumn,
			contentTypeColumn, contentTypeColumn,
			filenameColumn, filenameColumn,
			callbackURLColumn, callbackURLColumn,
		)).
		ToSql()
	if err != nil {
		return fmt.Errorf("ThumbnailRowRepo - Upsert - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ThumbnailRowRepo - Upsert - executor.Exec: %w", err)
	}

	return nil
}

func (r *ThumbnailRowRepo) ListByIdentity(ctx context.Context, identity string) ([]*entity.ThumbnailRow, error) {
	sql, args, err := r.Builder.
		Select(
			identityColumn,
			sizeColumn,
			originalURLColumn,
			thumbnailURLColumn,
			originalFileSizeColumn,
			contentTypeColumn,
			filenameColumn,
			callbackURLColumn,
			createdAtColumn,
		).
		From(thumbnailsTable).
		Where(squirrel.Eq{identityColumn: identity}).
		OrderBy(sizeColumn + " ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ThumbnailRowRepo - ListByIdentity - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ThumbnailRowRepo - ListByIdentity - executor.Query: %w", err)
	}
	defer rows.Close()

	var result []*entity.ThumbnailRow
	for rows.Next() {
		var row entity.ThumbnailRow
		err = rows.Scan(
			&row.Identity,
			&row.SizeKey,
			&row.OriginalURL,
			&row.ThumbnailURL,
			&row.OriginalFileSize,
			&row.ContentType,
			&row.Filename,
			&row.CallbackURL,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ThumbnailRowRepo - ListByIdentity - rows.Scan: %w", err)
		}
		result = append(result, &row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ThumbnailRowRepo - ListByIdentity - rows.Err: %w", err)
	}

	return result, nil
}
