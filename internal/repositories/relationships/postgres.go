package relationships

import (
	"context"
	"fmt"

	"github.com/dkrasnovs/microblog/internal/dbx"
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

// Follow inserts the edge. ON CONFLICT DO NOTHING makes a duplicate insert
// silently equivalent to already-following.
func (r *PostgresRepository) Follow(ctx context.Context, followerID, followedID string) error {
	query := `
		INSERT INTO relationships (follower_id, followed_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followed_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, followerID, followedID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Unfollow removes the edge; deleting a non-existent edge is a no-op.
func (r *PostgresRepository) Unfollow(ctx context.Context, followerID, followedID string) error {
	query := `
		DELETE FROM relationships
		WHERE follower_id = $1 AND followed_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, followerID, followedID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM relationships
			WHERE follower_id = $1 AND followed_id = $2
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, followerID, followedID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) FollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	query := `
		SELECT followed_id FROM relationships
		WHERE follower_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, followerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}

func (r *PostgresRepository) FollowerCount(ctx context.Context, userID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM relationships WHERE followed_id = $1`, userID)
}

func (r *PostgresRepository) FollowingCount(ctx context.Context, userID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM relationships WHERE follower_id = $1`, userID)
}

func (r *PostgresRepository) count(ctx context.Context, query, userID string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
