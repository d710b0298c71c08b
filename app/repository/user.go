package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-posts/app/entity"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user and sets its ID. A taken email returns ErrDuplicateKey.
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (full_name, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		user.FullName,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return wrapDuplicate(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint64(id)
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT id, full_name, email, password_hash, refresh_token, created_at, updated_at
		FROM users WHERE email = ?
	`
	return r.findOne(ctx, query, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	query := `
		SELECT id, full_name, email, password_hash, refresh_token, created_at, updated_at
		FROM users WHERE id = ?
	`
	return r.findOne(ctx, query, id)
}

// FindProfileByID loads the user without the password hash and refresh token.
func (r *UserRepository) FindProfileByID(ctx context.Context, id uint64) (*entity.User, error) {
	query := `
		SELECT id, full_name, email, created_at, updated_at
		FROM users WHERE id = ?
	`
	user := &entity.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetRefreshToken overwrites the session slot unconditionally.
func (r *UserRepository) SetRefreshToken(ctx context.Context, userID uint64, token string) error {
	query := `UPDATE users SET refresh_token = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, token, time.Now(), userID)
	return err
}

// SwapRefreshToken replaces current with next only if current is still the stored token.
// It reports false when another rotation or a logout got there first.
func (r *UserRepository) SwapRefreshToken(ctx context.Context, userID uint64, current, next string) (bool, error) {
	query := `UPDATE users SET refresh_token = ?, updated_at = ? WHERE id = ? AND refresh_token = ?`
	result, err := r.db.ExecContext(ctx, query, next, time.Now(), userID, current)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, userID uint64) error {
	query := `UPDATE users SET refresh_token = NULL, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, time.Now(), userID)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	user := &entity.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
