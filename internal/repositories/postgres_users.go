package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

const userColumns = `id, username, email, password_hash, full_name,
        avatar_url, avatar_store_id, cover_url, cover_store_id, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return mapError("acquire connection", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, password_hash, full_name,
                avatar_url, avatar_store_id, cover_url, cover_store_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, user.ID, user.Username, user.Email, user.Password, user.FullName,
		user.Avatar.URL, user.Avatar.StoreID, user.CoverImage.URL, user.CoverImage.StoreID,
		user.CreatedAt, user.UpdatedAt)
	return mapError("insert user", err)
}

// FindByID fetches a user by id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByUsername fetches a user by case-folded username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username)
}

// FindByLogin resolves the identifier against usernames and emails, both
// case-folded.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, identifier string) (models.User, error) {
	identifier = strings.TrimSpace(identifier)
	return r.findOne(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE lower(username) = lower($1) OR lower(email) = lower($1)
    `, identifier)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, args ...any) (models.User, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, mapError("acquire connection", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, query, args...))
	if err != nil {
		return models.User{}, mapError("select user", err)
	}
	return user, nil
}

// ListByIDs fetches the users for the provided ids; missing ids are skipped.
func (r *PostgresUserRepository) ListByIDs(ctx context.Context, ids []string) ([]models.User, error) {
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

	rows, err := conn.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, mapError("query users", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate users", err)
	}

	return users, nil
}

// UpdateAccount modifies the mutable account fields.
func (r *PostgresUserRepository) UpdateAccount(ctx context.Context, id, fullName, email string) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return mapError("acquire connection", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET full_name = $2, email = $3, updated_at = now()
        WHERE id = $1
    `, id, fullName, email)
	if err != nil {
		return mapError("update account", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return mapError("acquire connection", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET password_hash = $2, updated_at = now()
        WHERE id = $1
    `, id, passwordHash)
	if err != nil {
		return mapError("update password", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAvatar swaps the avatar reference and returns the replaced one.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id string, ref models.MediaRef) (models.MediaRef, error) {
	return r.swapMedia(ctx, id, ref, "avatar_url", "avatar_store_id")
}

// UpdateCoverImage swaps the cover image reference and returns the replaced one.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, id string, ref models.MediaRef) (models.MediaRef, error) {
	return r.swapMedia(ctx, id, ref, "cover_url", "cover_store_id")
}

func (r *PostgresUserRepository) swapMedia(ctx context.Context, id string, ref models.MediaRef, urlCol, storeCol string) (models.MediaRef, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.MediaRef{}, mapError("acquire connection", err)
	}
	defer conn.Release()

	// The self-join exposes the pre-update column values through RETURNING.
	query := fmt.Sprintf(`
        UPDATE users u
        SET %[1]s = $2, %[2]s = $3, updated_at = now()
        FROM (SELECT id, %[1]s, %[2]s FROM users WHERE id = $1 FOR UPDATE) prev
        WHERE u.id = prev.id
        RETURNING prev.%[1]s, prev.%[2]s
    `, urlCol, storeCol)

	var previous models.MediaRef
	if err := conn.QueryRow(ctx, query, id, ref.URL, ref.StoreID).Scan(&previous.URL, &previous.StoreID); err != nil {
		return models.MediaRef{}, mapError("update user media", err)
	}
	return previous, nil
}

// Exists reports whether a user with the given id exists.
func (r *PostgresUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, mapError("acquire connection", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, mapError("select user exists", err)
	}
	return exists, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.FullName,
		&user.Avatar.URL, &user.Avatar.StoreID, &user.CoverImage.URL, &user.CoverImage.StoreID,
		&user.CreatedAt, &user.UpdatedAt)
	return user, err
}

var _ UserRepository = (*PostgresUserRepository)(nil)
