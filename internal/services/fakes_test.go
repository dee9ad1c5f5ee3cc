package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dkrasnovs/microblog/internal/common"
	"github.com/dkrasnovs/microblog/internal/dbx"
	"github.com/dkrasnovs/microblog/internal/models"
	micropostsrepo "github.com/dkrasnovs/microblog/internal/repositories/microposts"
	relationshipsrepo "github.com/dkrasnovs/microblog/internal/repositories/relationships"
	usersrepo "github.com/dkrasnovs/microblog/internal/repositories/users"
)

// --- shared test doubles ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	byEmail    map[string]*models.User
	byID       map[string]*models.User
	findErr    error
	activated  []string
	rememberBy map[string]string
	resetBy    map[string]string
	pwBy       map[string]string
	updateErr  error
	deleted    []string
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{
		byEmail:    map[string]*models.User{},
		byID:       map[string]*models.User{},
		rememberBy: map[string]string{},
		resetBy:    map[string]string{},
		pwBy:       map[string]string{},
	}
}

func (f *fakeUsersRepo) add(u *models.User) {
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = "generated-id"
	return u, nil
}

func (f *fakeUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) UpdateRememberDigest(ctx context.Context, id, digest string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.rememberBy[id] = digest
	if u, ok := f.byID[id]; ok {
		u.RememberDigest = digest
	}
	return nil
}

func (f *fakeUsersRepo) Activate(ctx context.Context, id string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.activated = append(f.activated, id)
	return nil
}

func (f *fakeUsersRepo) SetResetDigest(ctx context.Context, id, digest string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.resetBy[id] = digest
	return nil
}

func (f *fakeUsersRepo) UpdatePasswordAndClearReset(ctx context.Context, id, passwordDigest string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.pwBy[id] = passwordDigest
	return nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeRelationshipsRepo struct {
	edges map[[2]string]bool
	err   error
}

func newFakeRelationshipsRepo() *fakeRelationshipsRepo {
	return &fakeRelationshipsRepo{edges: map[[2]string]bool{}}
}

func (f *fakeRelationshipsRepo) Follow(ctx context.Context, followerID, followedID string) error {
	if f.err != nil {
		return f.err
	}
	f.edges[[2]string{followerID, followedID}] = true
	return nil
}

func (f *fakeRelationshipsRepo) Unfollow(ctx context.Context, followerID, followedID string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.edges, [2]string{followerID, followedID})
	return nil
}

func (f *fakeRelationshipsRepo) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.edges[[2]string{followerID, followedID}], nil
}

func (f *fakeRelationshipsRepo) FollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]string, 0)
	for e := range f.edges {
		if e[0] == followerID {
			ids = append(ids, e[1])
		}
	}
	return ids, nil
}

func (f *fakeRelationshipsRepo) FollowerCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	for e := range f.edges {
		if e[1] == userID {
			n++
		}
	}
	return n, f.err
}

func (f *fakeRelationshipsRepo) FollowingCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	for e := range f.edges {
		if e[0] == userID {
			n++
		}
	}
	return n, f.err
}

type fakeMicropostsRepo struct {
	posts     []models.Micropost
	createErr error
	feedErr   error
}

func (f *fakeMicropostsRepo) Create(ctx context.Context, p *models.Micropost) (*models.Micropost, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	p.ID = "post-id"
	f.posts = append(f.posts, *p)
	return p, nil
}

func (f *fakeMicropostsRepo) ByUser(ctx context.Context, userID string, limit int) ([]models.Micropost, error) {
	out := make([]models.Micropost, 0)
	for _, p := range f.posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeMicropostsRepo) Feed(ctx context.Context, userID string, limit int) ([]models.Micropost, error) {
	if f.feedErr != nil {
		return nil, f.feedErr
	}
	return f.posts, nil
}

func (f *fakeMicropostsRepo) Delete(ctx context.Context, id, userID string) error {
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRelationshipsRepo
	p *fakeMicropostsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Relationships(db dbx.DBTX) relationshipsrepo.Repository {
	return m.r
}
func (m *fakeRepoManager) Microposts(db dbx.DBTX) micropostsrepo.Repository { return m.p }
