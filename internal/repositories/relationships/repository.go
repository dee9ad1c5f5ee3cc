// Package relationships declares the repository contract for the directed
// follow graph.
package relationships

import "context"

// Repository defines persistence operations on follow edges. Inserting an
// existing edge and deleting a missing edge are both no-ops: concurrent
// follow/unfollow on the same pair is reconciled by the primary key on
// (follower_id, followed_id), not by locking.
type Repository interface {
	// Follow inserts the edge follower -> followed if absent.
	Follow(ctx context.Context, followerID, followedID string) error

	// Unfollow removes the edge follower -> followed if present.
	Unfollow(ctx context.Context, followerID, followedID string) error

	// IsFollowing reports whether the edge follower -> followed exists.
	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)

	// FollowingIDs returns the ids of everyone the user follows.
	FollowingIDs(ctx context.Context, followerID string) ([]string, error)

	// FollowerCount and FollowingCount size the two sides of the graph for
	// a user.
	FollowerCount(ctx context.Context, userID string) (int64, error)
	FollowingCount(ctx context.Context, userID string) (int64, error)
}
