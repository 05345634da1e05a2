package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// PostgresEngagementRepository persists like and subscription edges. The
// composite uniqueness constraints make the insert half of a toggle atomic:
// a lost race shows up as zero affected rows, never as a duplicate edge.
type PostgresEngagementRepository struct {
	pool db.Pool
}

// NewPostgresEngagementRepository constructs an engagement repository backed by PostgreSQL.
func NewPostgresEngagementRepository(pool db.Pool) *PostgresEngagementRepository {
	return &PostgresEngagementRepository{pool: pool}
}

// InsertLike creates the like edge unless it already exists.
func (r *PostgresEngagementRepository) InsertLike(ctx context.Context, like models.Like) (bool, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, mapError("acquire connection", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO likes (liker_id, target_kind, target_id, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (liker_id, target_kind, target_id) DO NOTHING
    `, like.LikerID, like.Kind, like.TargetID, like.CreatedAt)
	if err != nil {
		return false, mapError("insert like", err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteLike removes the like edge if present.
func (r *PostgresEngagementRepository) DeleteLike(ctx context.Context, likerID string, kind models.LikeKind, targetID string) (bool, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, mapError("acquire connection", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM likes WHERE liker_id = $1 AND target_kind = $2 AND target_id = $3
    `, likerID, kind, targetID)
	if err != nil {
		return false, mapError("delete like", err)
	}
	return tag.RowsAffected() == 1, nil
}

// InsertSubscription creates the subscription edge unless it already exists.
func (r *PostgresEngagementRepository) InsertSubscription(ctx context.Context, sub models.Subscription) (bool, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, mapError("acquire connection", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO subscriptions (subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (subscriber_id, channel_id) DO NOTHING
    `, sub.SubscriberID, sub.ChannelID, sub.CreatedAt)
	if err != nil {
		return false, mapError("insert subscription", err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteSubscription removes the subscription edge if present.
func (r *PostgresEngagementRepository) DeleteSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, mapError("acquire connection", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID)
	if err != nil {
		return false, mapError("delete subscription", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountLikes counts like edges targeting a single entity.
func (r *PostgresEngagementRepository) CountLikes(ctx context.Context, kind models.LikeKind, targetID string) (int64, error) {
	return r.countOne(ctx, `SELECT COUNT(*) FROM likes WHERE target_kind = $1 AND target_id = $2`, kind, targetID)
}

// IsLiked reports whether the user has liked the target.
func (r *PostgresEngagementRepository) IsLiked(ctx context.Context, likerID string, kind models.LikeKind, targetID string) (bool, error) {
	return r.existsOne(ctx, `
        SELECT EXISTS (SELECT 1 FROM likes WHERE liker_id = $1 AND target_kind = $2 AND target_id = $3)
    `, likerID, kind, targetID)
}

// LikeCounts returns like counts for a batch of targets; absent keys mean zero.
func (r *PostgresEngagementRepository) LikeCounts(ctx context.Context, kind models.LikeKind, targetIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(targetIDs))
	if len(targetIDs) == 0 {
		return counts, nil
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, mapError("acquire connection", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT target_id, COUNT(*)
        FROM likes
        WHERE target_kind = $1 AND target_id = ANY($2)
        GROUP BY target_id
    `, kind, targetIDs)
	if err != nil {
		return nil, mapError("query like counts", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var count int64
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan like count: %w", err)
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate like counts", err)
	}

	return counts, nil
}

// LikedSet reports which of the targets the user has liked.
func (r *PostgresEngagementRepository) LikedSet(ctx context.Context, likerID string, kind models.LikeKind, targetIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(targetIDs))
	if likerID == "" || len(targetIDs) == 0 {
		return liked, nil
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, mapError("acquire connection", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT target_id
        FROM likes
        WHERE liker_id = $1 AND target_kind = $2 AND target_id = ANY($3)
    `, likerID, kind, targetIDs)
	if err != nil {
		return nil, mapError("query liked set", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan liked target: %w", err)
		}
		liked[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate liked set", err)
	}

	return liked, nil
}

// ListLikedVideoIDs returns ids of published videos the user has liked,
// newest like first.
func (r *PostgresEngagementRepository) ListLikedVideoIDs(ctx context.Context, likerID string) ([]string, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, mapError("acquire connection", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT l.target_id
        FROM likes l
        JOIN videos v ON v.id = l.target_id
        WHERE l.liker_id = $1 AND l.target_kind = 'video' AND v.published
        ORDER BY l.created_at DESC, l.target_id ASC
    `, likerID)
	if err != nil {
		return nil, mapError("query liked videos", err)
	}
	defer rows.Close()

	return collectIDs(rows, "liked video id")
}

// CountSubscribers counts users subscribed to the channel.
func (r *PostgresEngagementRepository) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	return r.countOne(ctx, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID)
}

// CountSubscriptions counts channels the user subscribes to.
func (r *PostgresEngagementRepository) CountSubscriptions(ctx context.Context, subscriberID string) (int64, error) {
	return r.countOne(ctx, `SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID)
}

// IsSubscribed reports whether the subscription edge exists.
func (r *PostgresEngagementRepository) IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error) {
	return r.existsOne(ctx, `
        SELECT EXISTS (SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2)
    `, subscriberID, channelID)
}

// ListSubscriberIDs returns ids of the channel's subscribers, newest first.
func (r *PostgresEngagementRepository) ListSubscriberIDs(ctx context.Context, channelID string) ([]string, error) {
	return r.listIDs(ctx, `
        SELECT subscriber_id FROM subscriptions
        WHERE channel_id = $1
        ORDER BY created_at DESC, subscriber_id ASC
    `, channelID)
}

// ListSubscribedChannelIDs returns ids of channels the user subscribes to, newest first.
func (r *PostgresEngagementRepository) ListSubscribedChannelIDs(ctx context.Context, subscriberID string) ([]string, error) {
	return r.listIDs(ctx, `
        SELECT channel_id FROM subscriptions
        WHERE subscriber_id = $1
        ORDER BY created_at DESC, channel_id ASC
    `, subscriberID)
}

func (r *PostgresEngagementRepository) countOne(ctx context.Context, query string, args ...any) (int64, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, mapError("acquire connection", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, mapError("count edges", err)
	}
	return count, nil
}

func (r *PostgresEngagementRepository) existsOne(ctx context.Context, query string, args ...any) (bool, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, mapError("acquire connection", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, mapError("select edge exists", err)
	}
	return exists, nil
}

func (r *PostgresEngagementRepository) listIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, mapError("acquire connection", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("query subscription ids", err)
	}
	defer rows.Close()

	return collectIDs(rows, "subscription id")
}

// PostgresHistoryRepository records watch history rows.
type PostgresHistoryRepository struct {
	pool db.Pool
}

// NewPostgresHistoryRepository constructs a history repository backed by PostgreSQL.
func NewPostgresHistoryRepository(pool db.Pool) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{pool: pool}
}

// RecordVisit upserts the visit, keeping one row per (user, video) carrying
// the most recent timestamp.
func (r *PostgresHistoryRepository) RecordVisit(ctx context.Context, userID, videoID string, at time.Time) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return mapError("acquire connection", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, visited_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id)
        DO UPDATE SET visited_at = EXCLUDED.visited_at
    `, userID, videoID, at.UTC())
	return mapError("upsert watch history", err)
}

// VideoIDs returns the user's watched video ids, most recent visit first.
func (r *PostgresHistoryRepository) VideoIDs(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, mapError("acquire connection", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT video_id
        FROM watch_history
        WHERE user_id = $1
        ORDER BY visited_at DESC, video_id ASC
    `, userID)
	if err != nil {
		return nil, mapError("query watch history", err)
	}
	defer rows.Close()

	return collectIDs(rows, "watch history id")
}

var _ EngagementRepository = (*PostgresEngagementRepository)(nil)
var _ HistoryRepository = (*PostgresHistoryRepository)(nil)
