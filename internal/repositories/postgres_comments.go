package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

const commentColumns = `id, video_id, author_id, content, created_at, updated_at`

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create persists a new comment record.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return mapError("acquire connection", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, author_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.VideoID, comment.AuthorID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	return mapError("insert comment", err)
}

// FindByID fetches a comment by id.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, mapError("acquire connection", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if err != nil {
		return models.Comment{}, mapError("select comment", err)
	}
	return comment, nil
}

// UpdateContent replaces the comment text.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, content string) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return mapError("acquire connection", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE comments
        SET content = $2, updated_at = now()
        WHERE id = $1
    `, id, content)
	if err != nil {
		return mapError("update comment", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the comment and its dependent likes in one transaction.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return mapError("acquire connection", err)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapError("begin delete comment", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
        DELETE FROM likes WHERE target_kind = 'comment' AND target_id = $1
    `, id); err != nil {
		return mapError("delete comment likes", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return mapError("delete comment", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return mapError("commit delete comment", tx.Commit(ctx))
}

// ListByVideo returns one page of a video's comments, newest first, plus the
// total count. Equal timestamps are ordered by id ascending.
func (r *PostgresCommentRepository) ListByVideo(ctx context.Context, videoID string, page, pageSize int) ([]models.Comment, int64, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, mapError("acquire connection", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE video_id = $1`, videoID).Scan(&total); err != nil {
		return nil, 0, mapError("count comments", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT `+commentColumns+`
        FROM comments
        WHERE video_id = $1
        ORDER BY created_at DESC, id ASC
        LIMIT $2 OFFSET $3
    `, videoID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, mapError("query comments", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError("iterate comments", err)
	}

	return comments, total, nil
}

// Exists reports whether a comment with the given id exists.
func (r *PostgresCommentRepository) Exists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, mapError("acquire connection", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM comments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, mapError("select comment exists", err)
	}
	return exists, nil
}

func scanComment(row pgx.Row) (models.Comment, error) {
	var comment models.Comment
	err := row.Scan(&comment.ID, &comment.VideoID, &comment.AuthorID, &comment.Content,
		&comment.CreatedAt, &comment.UpdatedAt)
	return comment, err
}

var _ CommentRepository = (*PostgresCommentRepository)(nil)
