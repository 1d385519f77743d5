package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/slate/internal/core"
)

const uploadColumns = `id, filename, file_type, content, processed, row_count, error, created_at, processed_at`

func (s *Store) InsertUpload(ctx context.Context, u core.FileUpload) error {
	content := pgtype.Text{String: u.Content, Valid: u.Content != ""}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO file_uploads (id, filename, file_type, content, processed, created_at)
		VALUES ($1, $2, $3, $4, false, $5)`,
		u.ID, u.Filename, string(u.FileType), content, u.CreatedAt,
	)
	if err != nil {
		return wrapPgError("insert upload", err)
	}
	return nil
}

func (s *Store) MarkUploadProcessed(ctx context.Context, id string, rows int, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE file_uploads
		SET processed = true, row_count = $2, error = '', processed_at = $3
		WHERE id = $1`,
		id, rows, at,
	)
	if err != nil {
		return wrapPgError("mark upload processed", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrUploadNotFound
	}
	return nil
}

func (s *Store) MarkUploadFailed(ctx context.Context, id string, reason string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE file_uploads SET processed = false, error = $2 WHERE id = $1`,
		id, reason,
	)
	if err != nil {
		return wrapPgError("mark upload failed", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrUploadNotFound
	}
	return nil
}

func (s *Store) GetUpload(ctx context.Context, id string) (*core.FileUpload, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+uploadColumns+" FROM file_uploads WHERE id = $1", id)
	if err != nil {
		return nil, wrapPgError("get upload", err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUpload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrUploadNotFound
	}
	if err != nil {
		return nil, wrapPgError("get upload", err)
	}
	return &u, nil
}

func (s *Store) ListUploads(ctx context.Context, limit int) ([]core.FileUpload, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+uploadColumns+" FROM file_uploads ORDER BY created_at DESC, id DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, wrapPgError("list uploads", err)
	}
	out, err := pgx.CollectRows(rows, scanUpload)
	if err != nil {
		return nil, wrapPgError("list uploads", err)
	}
	return out, nil
}

func (s *Store) DeleteUpload(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM file_uploads WHERE id = $1", id)
	if err != nil {
		return false, wrapPgError("delete upload", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) PruneProcessedUploads(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM file_uploads WHERE processed AND created_at < $1",
		before,
	)
	if err != nil {
		return 0, wrapPgError("prune uploads", err)
	}
	return tag.RowsAffected(), nil
}

func scanUpload(row pgx.CollectableRow) (core.FileUpload, error) {
	var (
		u           core.FileUpload
		fileType    string
		content     pgtype.Text
		processedAt pgtype.Timestamptz
	)
	if err := row.Scan(&u.ID, &u.Filename, &fileType, &content, &u.Processed, &u.RowCount, &u.Error, &u.CreatedAt, &processedAt); err != nil {
		return u, fmt.Errorf("scan upload: %w", err)
	}
	u.FileType = core.FileType(fileType)
	u.Content = content.String
	if processedAt.Valid {
		t := processedAt.Time
		u.ProcessedAt = &t
	}
	return u, nil
}
