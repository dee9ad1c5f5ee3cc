package services

import (
	"context"
	"database/sql"

	"github.com/dkrasnovs/microblog/internal/common"
	"github.com/dkrasnovs/microblog/internal/models"
	"github.com/dkrasnovs/microblog/internal/repositories/repomanager"
)

// RelationshipService maintains the directed follow graph and derives the
// activity feed from it.
type RelationshipService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewRelationshipService constructs a RelationshipService.
func NewRelationshipService(db *sql.DB, m repomanager.RepositoryManager) *RelationshipService {
	return &RelationshipService{db: db, repomanager: m}
}

// Follow makes follower follow followed. Following an already-followed user
// is a no-op; following yourself is rejected.
func (s *RelationshipService) Follow(ctx context.Context, followerID, followedID string) error {
	if followerID == followedID {
		return common.ErrSelfFollow
	}
	repo := s.repomanager.Relationships(s.db)
	return repo.Follow(ctx, followerID, followedID)
}

// Unfollow removes the edge; removing a non-existent edge is a no-op.
func (s *RelationshipService) Unfollow(ctx context.Context, followerID, followedID string) error {
	repo := s.repomanager.Relationships(s.db)
	return repo.Unfollow(ctx, followerID, followedID)
}

// IsFollowing reports whether follower currently follows followed.
func (s *RelationshipService) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	repo := s.repomanager.Relationships(s.db)
	return repo.IsFollowing(ctx, followerID, followedID)
}

// FollowingIDs returns the ids of everyone the user follows.
func (s *RelationshipService) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	repo := s.repomanager.Relationships(s.db)
	return repo.FollowingIDs(ctx, userID)
}

// Counts returns (followers, following) for the user.
func (s *RelationshipService) Counts(ctx context.Context, userID string) (int64, int64, error) {
	repo := s.repomanager.Relationships(s.db)
	followers, err := repo.FollowerCount(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	following, err := repo.FollowingCount(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}

// Feed returns the posts visible to the user: their own and those of
// everyone they follow, newest first. The followed-set membership test runs
// inside the single feed query.
func (s *RelationshipService) Feed(ctx context.Context, userID string, limit int) ([]models.Micropost, error) {
	repo := s.repomanager.Microposts(s.db)
	return repo.Feed(ctx, userID, limit)
}
