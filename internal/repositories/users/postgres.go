package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkrasnovs/microblog/internal/common"
	"github.com/dkrasnovs/microblog/internal/dbx"
	"github.com/dkrasnovs/microblog/internal/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// userColumns is the SELECT list shared by the lookup queries. Nullable
// digests come back as empty strings.
const userColumns = `id, name, email, password_digest, activated, activated_at,
		COALESCE(remember_digest, ''), activation_digest,
		COALESCE(reset_digest, ''), reset_sent_at, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordDigest,
		&user.Activated, &user.ActivatedAt, &user.RememberDigest,
		&user.ActivationDigest, &user.ResetDigest, &user.ResetSentAt,
		&user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// Create inserts a new user row. Email is expected to be lowercased by the
// caller; the unique index on LOWER(email) is the backstop.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (name, email, password_digest, activation_digest)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordDigest, user.ActivationDigest).
		Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + `
		 FROM users
		 WHERE LOWER(email) = LOWER($1)
		 `
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + `
		 FROM users
		 WHERE id = $1
		 `
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) UpdateRememberDigest(ctx context.Context, id string, digest string) error {
	query :=
		`UPDATE users SET remember_digest = NULLIF($2, '')
		 WHERE id = $1
		 `
	if _, err := r.db.ExecContext(ctx, query, id, digest); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Activate sets both activation columns in one statement.
func (r *PostgresRepository) Activate(ctx context.Context, id string) error {
	query :=
		`UPDATE users SET activated = true, activated_at = now()
		 WHERE id = $1
		 `
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// SetResetDigest stores the digest and stamps reset_sent_at in one statement.
func (r *PostgresRepository) SetResetDigest(ctx context.Context, id string, digest string) error {
	query :=
		`UPDATE users SET reset_digest = $2, reset_sent_at = now()
		 WHERE id = $1
		 `
	if _, err := r.db.ExecContext(ctx, query, id, digest); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdatePasswordAndClearReset(ctx context.Context, id string, passwordDigest string) error {
	query :=
		`UPDATE users SET password_digest = $2, reset_digest = NULL, reset_sent_at = NULL
		 WHERE id = $1
		 `
	if _, err := r.db.ExecContext(ctx, query, id, passwordDigest); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query :=
		`DELETE FROM users
		 WHERE id = $1
		 `
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
