// Command seed migrates the database and fills it with sample data: an
// admin user, 99 regular users, a batch of microposts, and a block of
// follow relationships.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/dkrasnovs/microblog/internal/config"
	"github.com/dkrasnovs/microblog/internal/logging"
	"github.com/dkrasnovs/microblog/internal/mailer"
	"github.com/dkrasnovs/microblog/internal/models"
	"github.com/dkrasnovs/microblog/internal/repositories/repomanager"
	"github.com/dkrasnovs/microblog/internal/services"
	"github.com/dkrasnovs/microblog/internal/token"
	"golang.org/x/term"
)

const (
	regularUserCount    = 99
	micropostsPerUser   = 50
	usersWithPosts      = 6
	defaultSeedPassword = "foobar"
)

// seams for terminal interaction
var (
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "seed failed", "error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "seed complete")
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db open error: %w", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	hasher := token.NewHasher(cfg.BcryptCost)
	mail := mailer.NewLogMailer(logger)
	userSvc := services.NewUserService(db, rm, hasher, mail, logger, cfg)
	relSvc := services.NewRelationshipService(db, rm)
	postSvc := services.NewMicropostService(db, rm, cfg)

	adminPw, err := adminPassword()
	if err != nil {
		return err
	}

	admin, err := createActivatedUser(ctx, userSvc, "Example User", "example@example.org", adminPw)
	if err != nil {
		return err
	}
	logger.Info(ctx, "created admin", "user_id", admin.ID, "email", admin.Email)

	ids := make([]string, 0, regularUserCount+1)
	ids = append(ids, admin.ID)
	for n := 1; n <= regularUserCount; n++ {
		u, err := createActivatedUser(ctx, userSvc,
			fmt.Sprintf("Example User %d", n),
			fmt.Sprintf("example-%d@example.org", n),
			"password")
		if err != nil {
			return err
		}
		ids = append(ids, u.ID)
	}

	contents := []string{
		"Just setting up my microblog.",
		"Shipping a little every day.",
		"Coffee first, commits second.",
		"Reading about database indexes again.",
		"The feed query is one round-trip now.",
	}
	for i := 0; i < micropostsPerUser; i++ {
		for j, id := range ids[:usersWithPosts] {
			if _, err := postSvc.Create(ctx, id, contents[(i+j)%len(contents)], ""); err != nil {
				return err
			}
		}
	}

	// the admin follows a block of users and a block follows back
	for _, id := range ids[2:51] {
		if err := relSvc.Follow(ctx, ids[0], id); err != nil {
			return err
		}
	}
	for _, id := range ids[3:41] {
		if err := relSvc.Follow(ctx, id, ids[0]); err != nil {
			return err
		}
	}

	return nil
}

func createActivatedUser(ctx context.Context, svc *services.UserService, name, email, password string) (*models.User, error) {
	user, activationToken, err := svc.Register(ctx, name, email, password)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", email, err)
	}
	if err := svc.Activate(ctx, user, activationToken); err != nil {
		return nil, fmt.Errorf("activate %s: %w", email, err)
	}
	return user, nil
}

// adminPassword reads the admin password from the terminal without echo.
// When stdin is not a terminal (CI, piped input) the seed default is used.
func adminPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return defaultSeedPassword, nil
	}
	fmt.Fprint(os.Stderr, "Admin password (empty for default): ")
	pw, err := readPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if len(pw) == 0 {
		return defaultSeedPassword, nil
	}
	return string(pw), nil
}
