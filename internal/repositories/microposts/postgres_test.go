package microposts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dkrasnovs/microblog/internal/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func postRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "content", "image_key", "created_at"})
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+microposts\s*\(user_id,\s*content,\s*image_key\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at\s*$`

	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("u-1", "hello", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("p-1", now))

	got, err := repo.Create(context.Background(), &models.Micropost{UserID: "u-1", Content: "hello"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "p-1" || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected post: %+v", got)
	}
}

func TestFeed_SingleQueryWithSubselect(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// one query resolves the followed set via subselect; no per-followee queries
	q := `(?s)^\s*SELECT\s+id,\s*user_id,\s*content,\s*image_key,\s*created_at\s+FROM\s+microposts\s+WHERE\s+user_id\s+IN\s*\(\s*SELECT\s+followed_id\s+FROM\s+relationships\s+WHERE\s+follower_id\s*=\s*\$1\s*\)\s+OR\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+\$2\s*$`

	now := time.Now()
	rows := postRows().
		AddRow("p-2", "followed", "their post", "", now).
		AddRow("p-1", "me", "my post", "", now.Add(-time.Minute))
	mock.ExpectQuery(q).WithArgs("me", 30).WillReturnRows(rows)

	posts, err := repo.Feed(context.Background(), "me", 30)
	if err != nil {
		t.Fatalf("Feed error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("unexpected feed size: %d", len(posts))
	}
	if posts[0].ID != "p-2" || posts[1].ID != "p-1" {
		t.Fatalf("feed must be newest first: %+v", posts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("feed must be exactly one query: %v", err)
	}
}

func TestByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := postRows().AddRow("p-1", "u-1", "hello", "img/key", time.Now())
	mock.ExpectQuery(`(?s)SELECT\s+.*FROM\s+microposts\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs("u-1", 10).WillReturnRows(rows)

	posts, err := repo.ByUser(context.Background(), "u-1", 10)
	if err != nil {
		t.Fatalf("ByUser error: %v", err)
	}
	if len(posts) != 1 || posts[0].ImageKey != "img/key" {
		t.Fatalf("unexpected posts: %+v", posts)
	}
}

func TestDelete_ScopedToOwner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*DELETE\s+FROM\s+microposts\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2\s*$`

	mock.ExpectExec(q).WithArgs("p-1", "u-1").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "p-1", "u-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}

func TestFeed_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("db down"))

	_, err := repo.Feed(context.Background(), "me", 30)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
