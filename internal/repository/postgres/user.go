package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JSayWhat/go-auth-api/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const userColumns = `id, email_lookup, password_hash, role, access_token, refresh_token,
			  first_name, last_name, phone, address, created_at, updated_at`

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, email_lookup, password_hash, role, first_name, last_name, phone, address, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			  RETURNING ` + userColumns

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	row := r.db.QueryRow(ctx, query,
		user.ID, user.EmailLookup, user.PasswordHash, user.Role,
		user.FirstName, user.LastName, user.Phone, user.Address,
	)
	saved, err := scanUser(row)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *UserRepository) GetByEmailLookup(ctx context.Context, lookup string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email_lookup = $1`
	return r.getOne(ctx, query, lookup)
}

func (r *UserRepository) GetByAccessToken(ctx context.Context, token string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE access_token = $1`
	return r.getOne(ctx, query, token)
}

func (r *UserRepository) GetByRefreshToken(ctx context.Context, token string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE refresh_token = $1`
	return r.getOne(ctx, query, token)
}

func (r *UserRepository) UpdateTokens(ctx context.Context, userID uuid.UUID, access, refresh string) error {
	query := `UPDATE users SET access_token = $2, refresh_token = $3, updated_at = NOW() WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, userID, access, refresh); err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}
	return nil
}

// SwapTokens is the conditional write that serializes concurrent refresh
// flows: only the caller still holding the stored refresh token wins.
func (r *UserRepository) SwapTokens(ctx context.Context, userID uuid.UUID, oldRefresh, access, refresh string) error {
	query := `UPDATE users SET access_token = $3, refresh_token = $4, updated_at = NOW()
			  WHERE id = $1 AND refresh_token = $2`

	tag, err := r.db.Exec(ctx, query, userID, oldRefresh, access, refresh)
	if err != nil {
		return fmt.Errorf("failed to swap tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ClearTokens(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE users SET access_token = NULL, refresh_token = NULL, updated_at = NOW() WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user model.User) error {
	query := `UPDATE users SET first_name = $2, last_name = $3, phone = $4, address = $5, updated_at = NOW()
			  WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, user.ID, user.FirstName, user.LastName, user.Phone, user.Address)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role model.Role) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users by role: %w", err)
	}
	return count, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (model.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.EmailLookup, &user.PasswordHash, &user.Role,
		&user.AccessToken, &user.RefreshToken,
		&user.FirstName, &user.LastName, &user.Phone, &user.Address,
		&user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}
