package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clipstudio/internal/domain"
)

// VideoRepositoryPG implements domain.VideoRepository. Rows are written by
// the external generation pipeline; this repository only reads them.
type VideoRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new video repository backed by PostgreSQL.
func NewVideoRepository(pool *pgxpool.Pool) *VideoRepositoryPG {
	return &VideoRepositoryPG{pool: pool}
}

// GetByRequestID fetches the artifact correlated with one generation request.
func (r *VideoRepositoryPG) GetByRequestID(ctx context.Context, userID, requestID string) (*domain.GeneratedVideo, error) {
	query := `
SELECT id, user_id, request_id, title, video_url, created_at
FROM generated_videos
WHERE user_id = $1 AND request_id = $2;
`
	row := r.pool.QueryRow(ctx, query, userID, requestID)
	var video domain.GeneratedVideo
	if err := row.Scan(
		&video.ID,
		&video.UserID,
		&video.RequestID,
		&video.Title,
		&video.VideoURL,
		&video.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &video, nil
}

// ListSince returns the user's videos created after the cutoff, newest first.
func (r *VideoRepositoryPG) ListSince(ctx context.Context, userID string, since time.Time) ([]domain.GeneratedVideo, error) {
	query := `
SELECT id, user_id, request_id, title, video_url, created_at
FROM generated_videos
WHERE user_id = $1 AND created_at >= $2
ORDER BY created_at DESC;
`
	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVideos(rows)
}

// ListByUser returns the user's most recent videos.
func (r *VideoRepositoryPG) ListByUser(ctx context.Context, userID string, limit int) ([]domain.GeneratedVideo, error) {
	query := `
SELECT id, user_id, request_id, title, video_url, created_at
FROM generated_videos
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;
`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVideos(rows)
}

func collectVideos(rows pgx.Rows) ([]domain.GeneratedVideo, error) {
	var videos []domain.GeneratedVideo
	for rows.Next() {
		var video domain.GeneratedVideo
		if err := rows.Scan(
			&video.ID,
			&video.UserID,
			&video.RequestID,
			&video.Title,
			&video.VideoURL,
			&video.CreatedAt,
		); err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}
