package repomanager

import (
	"context"
	"database/sql"

	"github.com/dkrasnovs/microblog/internal/dbx"
	"github.com/dkrasnovs/microblog/internal/repositories/microposts"
	"github.com/dkrasnovs/microblog/internal/repositories/relationships"
	"github.com/dkrasnovs/microblog/internal/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX, so a
// service can use the same repository inside or outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Relationships(db dbx.DBTX) relationships.Repository
	Microposts(db dbx.DBTX) microposts.Repository
}
