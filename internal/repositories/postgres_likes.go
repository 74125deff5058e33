package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

func scanLike(row pgx.Row) (models.Like, error) {
	var like models.Like
	err := row.Scan(&like.ID, &like.UserID, &like.VideoID, &like.CommentID, &like.CreatedAt)
	return like, err
}

const likeColumns = `id, user_id, COALESCE(video_id::text, ''), COALESCE(comment_id::text, ''), created_at`

// FindByVideo returns the user's like on a video, if any.
func (r *PostgresLikeRepository) FindByVideo(ctx context.Context, userID, videoID string) (models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Like{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	like, err := scanLike(conn.QueryRow(ctx, `
        SELECT `+likeColumns+` FROM likes WHERE user_id = $1 AND video_id = $2
    `, userID, videoID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Like{}, ErrNotFound
		}
		return models.Like{}, fmt.Errorf("select like by video: %w", err)
	}

	return like, nil
}

// FindByComment returns the user's like on a comment, if any.
func (r *PostgresLikeRepository) FindByComment(ctx context.Context, userID, commentID string) (models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Like{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	like, err := scanLike(conn.QueryRow(ctx, `
        SELECT `+likeColumns+` FROM likes WHERE user_id = $1 AND comment_id = $2
    `, userID, commentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Like{}, ErrNotFound
		}
		return models.Like{}, fmt.Errorf("select like by comment: %w", err)
	}

	return like, nil
}

// Create persists a like. Exactly one of VideoID or CommentID must be set;
// the schema enforces it with a CHECK constraint.
func (r *PostgresLikeRepository) Create(ctx context.Context, like models.Like) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, user_id, video_id, comment_id, created_at)
        VALUES ($1, $2, NULLIF($3, '')::uuid, NULLIF($4, '')::uuid, $5)
    `, like.ID, like.UserID, like.VideoID, like.CommentID, like.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert like: %w", err)
	}

	return nil
}

// Delete removes a like record by primary key.
func (r *PostgresLikeRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM likes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
