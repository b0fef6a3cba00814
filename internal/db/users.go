package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"mindbloom/internal/models"
)

var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrResetInvalid   = errors.New("reset token invalid or expired")
)

// pgUniqueViolation is the Postgres SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// CreateUser inserts u and fills in its id and created_at.
func (r *UserRepo) CreateUser(ctx context.Context, u *models.User) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO users (email, email_blind_index, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		u.Email, u.EmailBlindIndex, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UserByEmailIndex returns nil, nil when no user matches.
func (r *UserRepo) UserByEmailIndex(ctx context.Context, index string) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `
		SELECT id, email, email_blind_index, password_hash, created_at
		FROM users WHERE email_blind_index = $1`, index)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("user by email: %w", err)
	}
	return &u, nil
}

// UserByID returns nil, nil when no user matches.
func (r *UserRepo) UserByID(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `
		SELECT id, email, email_blind_index, password_hash, created_at
		FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("user by id: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id int, hash string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (r *UserRepo) CreatePasswordReset(ctx context.Context, reset models.PasswordReset) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO password_resets (token_hash, user_id, expires_at)
		VALUES (:token_hash, :user_id, :expires_at)`, reset)
	if err != nil {
		return fmt.Errorf("insert password reset: %w", err)
	}
	return nil
}

// ConsumePasswordReset marks the token used and returns its user. A token
// can be consumed once, before it expires.
func (r *UserRepo) ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time) (int, error) {
	var userID int
	err := r.db.QueryRowxContext(ctx, `
		UPDATE password_resets SET used_at = $2
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > $2
		RETURNING user_id`, tokenHash, now).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrResetInvalid
		}
		return 0, fmt.Errorf("consume password reset: %w", err)
	}
	return userID, nil
}
