package microposts

import (
	"context"
	"database/sql"
	"fmt"

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

func (r *PostgresRepository) Create(ctx context.Context, post *models.Micropost) (*models.Micropost, error) {
	query := `
		INSERT INTO microposts (user_id, content, image_key)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, post.UserID, post.Content, post.ImageKey).
		Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return post, nil
}

func (r *PostgresRepository) ByUser(ctx context.Context, userID string, limit int) ([]models.Micropost, error) {
	query := `
		SELECT id, user_id, content, image_key, created_at
		FROM microposts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return collectPosts(rows)
}

// Feed resolves the followed set with a subselect so the whole feed is one
// round-trip regardless of how many users are followed.
func (r *PostgresRepository) Feed(ctx context.Context, userID string, limit int) ([]models.Micropost, error) {
	query := `
		SELECT id, user_id, content, image_key, created_at
		FROM microposts
		WHERE user_id IN (
			SELECT followed_id FROM relationships WHERE follower_id = $1
		) OR user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return collectPosts(rows)
}

func (r *PostgresRepository) Delete(ctx context.Context, id, userID string) error {
	query := `
		DELETE FROM microposts
		WHERE id = $1 AND user_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func collectPosts(rows *sql.Rows) ([]models.Micropost, error) {
	defer rows.Close()

	posts := make([]models.Micropost, 0)
	for rows.Next() {
		var p models.Micropost
		if err := rows.Scan(&p.ID, &p.UserID, &p.Content, &p.ImageKey, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return posts, nil
}
