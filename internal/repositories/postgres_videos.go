package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

const videoColumns = `id, owner_id, title, description, media_url, media_store_id,
        thumb_url, thumb_store_id, duration, views, published, created_at, updated_at`

// Sort field whitelist for the published listing. Anything else falls back to
// the creation timestamp.
var videoSortColumns = map[string]string{
	"createdAt": "created_at",
	"views":     "views",
	"duration":  "duration",
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create persists a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return mapError("acquire connection", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, media_url, media_store_id,
                thumb_url, thumb_store_id, duration, views, published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, video.ID, video.OwnerID, video.Title, video.Description,
		video.Media.URL, video.Media.StoreID, video.Thumbnail.URL, video.Thumbnail.StoreID,
		video.Duration, video.Views, video.Published, video.CreatedAt, video.UpdatedAt)
	return mapError("insert video", err)
}

// FindByID fetches a video by id.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, mapError("acquire connection", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		return models.Video{}, mapError("select video", err)
	}
	return video, nil
}

// Update modifies the mutable fields of an existing video.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return mapError("acquire connection", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = $2, description = $3, thumb_url = $4, thumb_store_id = $5, updated_at = now()
        WHERE id = $1
    `, video.ID, video.Title, video.Description, video.Thumbnail.URL, video.Thumbnail.StoreID)
	if err != nil {
		return mapError("update video", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPublished flips the publication flag.
func (r *PostgresVideoRepository) SetPublished(ctx context.Context, id string, published bool) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return mapError("acquire connection", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET published = $2, updated_at = now()
        WHERE id = $1
    `, id, published)
	if err != nil {
		return mapError("update video published", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the video, its comments, and every dependent like in one
// transaction, returning the deleted record so media can be released.
// Playlist memberships and watch history rows go away through FK cascades.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) (models.Video, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, mapError("acquire connection", err)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Video{}, mapError("begin delete video", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
        DELETE FROM likes
        WHERE target_kind = 'comment'
          AND target_id IN (SELECT id FROM comments WHERE video_id = $1)
    `, id); err != nil {
		return models.Video{}, mapError("delete comment likes", err)
	}

	if _, err := tx.Exec(ctx, `
        DELETE FROM likes WHERE target_kind = 'video' AND target_id = $1
    `, id); err != nil {
		return models.Video{}, mapError("delete video likes", err)
	}

	video, err := scanVideo(tx.QueryRow(ctx, `
        DELETE FROM videos WHERE id = $1
        RETURNING `+videoColumns+`
    `, id))
	if err != nil {
		return models.Video{}, mapError("delete video", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Video{}, mapError("commit delete video", err)
	}
	return video, nil
}

// IncrementViews bumps the view counter by one.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return mapError("acquire connection", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return mapError("increment views", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPublished returns one page of published videos plus the total match
// count. Records sharing the sort key are ordered by id ascending so pages
// are stable.
func (r *PostgresVideoRepository) ListPublished(ctx context.Context, filters VideoFilters) ([]models.Video, int64, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, mapError("acquire connection", err)
	}
	defer conn.Release()

	where := "published"
	args := []any{}
	if filters.Query != "" {
		args = append(args, "%"+filters.Query+"%")
		where += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	if filters.OwnerID != "" {
		args = append(args, filters.OwnerID)
		where += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError("count videos", err)
	}

	sortCol, ok := videoSortColumns[filters.Sort]
	if !ok {
		sortCol = "created_at"
	}
	dir := "DESC"
	if filters.Dir == "asc" {
		dir = "ASC"
	}

	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)
	query := fmt.Sprintf(`
        SELECT %s FROM videos
        WHERE %s
        ORDER BY %s %s, id ASC
        LIMIT $%d OFFSET $%d
    `, videoColumns, where, sortCol, dir, len(args)-1, len(args))

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError("query videos", err)
	}
	defer rows.Close()

	videos, err := collectVideos(rows)
	if err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

// ListByIDs fetches videos preserving the order of the supplied ids.
func (r *PostgresVideoRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, mapError("acquire connection", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM videos
        JOIN unnest($1::text[]) WITH ORDINALITY AS wanted(id, ord) USING (id)
        ORDER BY wanted.ord
    `, ids)
	if err != nil {
		return nil, mapError("query videos by ids", err)
	}
	defer rows.Close()

	return collectVideos(rows)
}

// Exists reports whether a video with the given id exists.
func (r *PostgresVideoRepository) Exists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, mapError("acquire connection", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, mapError("select video exists", err)
	}
	return exists, nil
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var video models.Video
	err := row.Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description,
		&video.Media.URL, &video.Media.StoreID, &video.Thumbnail.URL, &video.Thumbnail.StoreID,
		&video.Duration, &video.Views, &video.Published, &video.CreatedAt, &video.UpdatedAt)
	return video, err
}

func collectVideos(rows pgx.Rows) ([]models.Video, error) {
	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate videos", err)
	}
	return videos, nil
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
