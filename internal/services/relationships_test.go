package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkrasnovs/microblog/internal/common"
	"github.com/dkrasnovs/microblog/internal/models"
)

func newTestRelationshipService(t *testing.T) (*RelationshipService, *fakeRelationshipsRepo, *fakeMicropostsRepo) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	t.Cleanup(func() { _ = db.Close() })
	relRepo := newFakeRelationshipsRepo()
	postRepo := &fakeMicropostsRepo{}
	rm := &fakeRepoManager{r: relRepo, p: postRepo}
	return NewRelationshipService(db, rm), relRepo, postRepo
}

func TestFollow_Idempotent(t *testing.T) {
	s, repo, _ := newTestRelationshipService(t)
	ctx := context.Background()

	if err := s.Follow(ctx, "a", "b"); err != nil {
		t.Fatalf("Follow error: %v", err)
	}
	if err := s.Follow(ctx, "a", "b"); err != nil {
		t.Fatalf("second Follow must be a no-op, got %v", err)
	}
	if len(repo.edges) != 1 {
		t.Fatalf("expected exactly one edge, got %d", len(repo.edges))
	}

	following, err := s.IsFollowing(ctx, "a", "b")
	if err != nil || !following {
		t.Fatalf("IsFollowing = %v, %v", following, err)
	}
}

func TestFollow_SelfIsRejected(t *testing.T) {
	s, repo, _ := newTestRelationshipService(t)

	err := s.Follow(context.Background(), "a", "a")
	if !errors.Is(err, common.ErrSelfFollow) {
		t.Fatalf("want ErrSelfFollow, got %v", err)
	}
	if len(repo.edges) != 0 {
		t.Fatalf("self-follow must not create an edge")
	}
}

func TestUnfollow_MissingEdgeIsNoOp(t *testing.T) {
	s, _, _ := newTestRelationshipService(t)
	ctx := context.Background()

	if err := s.Unfollow(ctx, "a", "b"); err != nil {
		t.Fatalf("Unfollow of missing edge must be a no-op, got %v", err)
	}
}

func TestFollowUnfollow_RoundTrip(t *testing.T) {
	s, _, _ := newTestRelationshipService(t)
	ctx := context.Background()

	if err := s.Follow(ctx, "a", "b"); err != nil {
		t.Fatalf("Follow error: %v", err)
	}
	if err := s.Unfollow(ctx, "a", "b"); err != nil {
		t.Fatalf("Unfollow error: %v", err)
	}
	following, err := s.IsFollowing(ctx, "a", "b")
	if err != nil {
		t.Fatalf("IsFollowing error: %v", err)
	}
	if following {
		t.Fatalf("expected edge removed")
	}
}

func TestCounts(t *testing.T) {
	s, _, _ := newTestRelationshipService(t)
	ctx := context.Background()

	_ = s.Follow(ctx, "a", "c")
	_ = s.Follow(ctx, "b", "c")
	_ = s.Follow(ctx, "c", "a")

	followers, following, err := s.Counts(ctx, "c")
	if err != nil {
		t.Fatalf("Counts error: %v", err)
	}
	if followers != 2 || following != 1 {
		t.Fatalf("Counts = (%d, %d), want (2, 1)", followers, following)
	}
}

func TestFeed_DelegatesToSingleQuery(t *testing.T) {
	s, _, postRepo := newTestRelationshipService(t)

	now := time.Now()
	postRepo.posts = []models.Micropost{
		{ID: "p-2", UserID: "b", Content: "their post", CreatedAt: now},
		{ID: "p-1", UserID: "a", Content: "my post", CreatedAt: now.Add(-time.Minute)},
	}

	posts, err := s.Feed(context.Background(), "a", 30)
	if err != nil {
		t.Fatalf("Feed error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("unexpected feed: %+v", posts)
	}
}

func TestFeed_Error(t *testing.T) {
	s, _, postRepo := newTestRelationshipService(t)
	postRepo.feedErr = errBoom{}

	_, err := s.Feed(context.Background(), "a", 30)
	if err == nil {
		t.Fatalf("expected error")
	}
}
