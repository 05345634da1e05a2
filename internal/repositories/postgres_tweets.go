package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

const tweetColumns = `id, author_id, content, created_at, updated_at`

// PostgresTweetRepository provides PostgreSQL-backed persistence for tweets.
type PostgresTweetRepository struct {
	pool db.Pool
}

// NewPostgresTweetRepository constructs a tweet repository backed by PostgreSQL.
func NewPostgresTweetRepository(pool db.Pool) *PostgresTweetRepository {
	return &PostgresTweetRepository{pool: pool}
}

// Create persists a new tweet record.
func (r *PostgresTweetRepository) Create(ctx context.Context, tweet models.Tweet) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return mapError("acquire connection", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO tweets (id, author_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, tweet.ID, tweet.AuthorID, tweet.Content, tweet.CreatedAt, tweet.UpdatedAt)
	return mapError("insert tweet", err)
}

// FindByID fetches a tweet by id.
func (r *PostgresTweetRepository) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Tweet{}, mapError("acquire connection", err)
	}
	defer conn.Release()

	tweet, err := scanTweet(conn.QueryRow(ctx, `SELECT `+tweetColumns+` FROM tweets WHERE id = $1`, id))
	if err != nil {
		return models.Tweet{}, mapError("select tweet", err)
	}
	return tweet, nil
}

// UpdateContent replaces the tweet text.
func (r *PostgresTweetRepository) UpdateContent(ctx context.Context, id, content string) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return mapError("acquire connection", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE tweets
        SET content = $2, updated_at = now()
        WHERE id = $1
    `, id, content)
	if err != nil {
		return mapError("update tweet", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the tweet and its dependent likes in one transaction.
func (r *PostgresTweetRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return mapError("acquire connection", err)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapError("begin delete tweet", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
        DELETE FROM likes WHERE target_kind = 'tweet' AND target_id = $1
    `, id); err != nil {
		return mapError("delete tweet likes", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM tweets WHERE id = $1`, id)
	if err != nil {
		return mapError("delete tweet", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return mapError("commit delete tweet", tx.Commit(ctx))
}

// ListByAuthor returns a user's tweets, newest first.
func (r *PostgresTweetRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.Tweet, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, mapError("acquire connection", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+tweetColumns+`
        FROM tweets
        WHERE author_id = $1
        ORDER BY created_at DESC, id ASC
    `, authorID)
	if err != nil {
		return nil, mapError("query tweets", err)
	}
	defer rows.Close()

	var tweets []models.Tweet
	for rows.Next() {
		tweet, err := scanTweet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tweet: %w", err)
		}
		tweets = append(tweets, tweet)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate tweets", err)
	}

	return tweets, nil
}

// Exists reports whether a tweet with the given id exists.
func (r *PostgresTweetRepository) Exists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, mapError("acquire connection", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tweets WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, mapError("select tweet exists", err)
	}
	return exists, nil
}

func scanTweet(row pgx.Row) (models.Tweet, error) {
	var tweet models.Tweet
	err := row.Scan(&tweet.ID, &tweet.AuthorID, &tweet.Content, &tweet.CreatedAt, &tweet.UpdatedAt)
	return tweet, err
}

var _ TweetRepository = (*PostgresTweetRepository)(nil)
