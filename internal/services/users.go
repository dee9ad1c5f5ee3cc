// Package services contains the business logic of the microblog core. This
// file implements UserService: registration with activation tokens, login,
// account activation, and the password reset flow.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dkrasnovs/microblog/internal/common"
	"github.com/dkrasnovs/microblog/internal/config"
	"github.com/dkrasnovs/microblog/internal/dbx"
	"github.com/dkrasnovs/microblog/internal/logging"
	"github.com/dkrasnovs/microblog/internal/mailer"
	"github.com/dkrasnovs/microblog/internal/models"
	"github.com/dkrasnovs/microblog/internal/repositories/repomanager"
	"github.com/dkrasnovs/microblog/internal/token"
)

const (
	nameMaxLen     = 50
	emailMaxLen    = 255
	passwordMinLen = 6
)

var emailRegexp = regexp.MustCompile(`^[\w+\-.]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]+$`)

// UserService provides account-related operations:
// - Register: validate input and create users with an activation digest
// - Authenticate: verify email/password
// - Activate: verify the activation token and flip the activation columns
// - BeginPasswordReset / CompletePasswordReset: the reset-token flow
type UserService struct {
	db                 *sql.DB
	repomanager        repomanager.RepositoryManager
	hasher             *token.Hasher
	mailer             mailer.Mailer
	log                logging.Logger
	resetTokenValidity time.Duration
}

// NewUserService constructs a UserService using repositories and config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *token.Hasher, mail mailer.Mailer, log logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:                 db,
		repomanager:        m,
		hasher:             hasher,
		mailer:             mail,
		log:                log,
		resetTokenValidity: cfg.ResetTokenValidity,
	}
}

// validateRegistration returns field-level errors for the registration
// input, or nil when everything passes.
func validateRegistration(name, email, password string) *common.ValidationError {
	v := &common.ValidationError{}

	if strings.TrimSpace(name) == "" {
		v.Add("name", "can't be blank")
	} else if utf8.RuneCountInString(name) > nameMaxLen {
		v.Add("name", fmt.Sprintf("is too long (maximum is %d characters)", nameMaxLen))
	}

	if strings.TrimSpace(email) == "" {
		v.Add("email", "can't be blank")
	} else if utf8.RuneCountInString(email) > emailMaxLen {
		v.Add("email", fmt.Sprintf("is too long (maximum is %d characters)", emailMaxLen))
	} else if !emailRegexp.MatchString(email) {
		v.Add("email", "is invalid")
	}

	if err := validatePassword(password); err != nil {
		v.Fields = append(v.Fields, err.Fields...)
	}

	if v.HasErrors() {
		return v
	}
	return nil
}

func validatePassword(password string) *common.ValidationError {
	v := &common.ValidationError{}
	if password == "" {
		v.Add("password", "can't be blank")
	} else if utf8.RuneCountInString(password) < passwordMinLen {
		v.Add("password", fmt.Sprintf("is too short (minimum is %d characters)", passwordMinLen))
	}
	if v.HasErrors() {
		return v
	}
	return nil
}

// Register validates the input, normalizes the email to lowercase, and
// creates the user together with the digest of a fresh activation token.
// The raw token is returned to the caller and also handed to the mailer;
// it is never persisted. The uniqueness check and the insert run in one
// transaction, with the unique index on LOWER(email) as the backstop.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	if verr := validateRegistration(name, email, password); verr != nil {
		return nil, "", verr
	}
	email = strings.ToLower(strings.TrimSpace(email))

	passwordDigest, err := s.hasher.Digest(password)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	activationToken, err := token.New()
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	activationDigest, err := s.hasher.Digest(activationToken)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	user := &models.User{
		Name:             name,
		Email:            email,
		PasswordDigest:   passwordDigest,
		ActivationDigest: activationDigest,
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.FindByEmail(ctx, email)
		if err == nil {
			verr := &common.ValidationError{}
			verr.Add("email", "has already been taken")
			return verr
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		user, err = repo.Create(ctx, user)
		return err
	}); err != nil {
		return nil, "", err
	}

	s.deliver(ctx, "activation", user, activationToken, s.mailer.SendActivationEmail)

	return user, activationToken, nil
}

// Authenticate verifies the password for the account registered under the
// given email. Unknown email and wrong password both come back as
// common.ErrorUnauthorized so callers cannot probe which emails exist.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordDigest) {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

// Activate checks the presented activation token against the stored digest
// and, on success, sets activated and activated_at in a single update.
// Activating an already-activated account is a no-op, keeping activated_at
// immutable.
func (s *UserService) Activate(ctx context.Context, user *models.User, tok string) error {
	if user.Activated {
		return nil
	}
	if !s.hasher.Verify(tok, user.ActivationDigest) {
		return common.ErrorUnauthorized
	}
	repo := s.repomanager.Users(s.db)
	return repo.Activate(ctx, user.ID)
}

// BeginPasswordReset issues a fresh reset token for the account registered
// under email, stores its digest and issuance time in one update, and hands
// the raw token to the mailer and the caller.
func (s *UserService) BeginPasswordReset(ctx context.Context, email string) (*models.User, string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}

	resetToken, err := token.New()
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	resetDigest, err := s.hasher.Digest(resetToken)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	if err := repo.SetResetDigest(ctx, user.ID, resetDigest); err != nil {
		return nil, "", err
	}

	s.deliver(ctx, "password reset", user, resetToken, s.mailer.SendPasswordResetEmail)

	return user, resetToken, nil
}

// ResetExpired reports whether the user's pending reset is too old to
// honor at the given moment. A user with no reset in progress counts as
// expired.
func (s *UserService) ResetExpired(user *models.User, now time.Time) bool {
	if !user.ResetSentAt.Valid {
		return true
	}
	return now.Sub(user.ResetSentAt.Time) > s.resetTokenValidity
}

// CompletePasswordReset verifies the reset token, rejects expired resets,
// validates the new password, and then sets the new password digest while
// clearing the reset columns in a single update.
func (s *UserService) CompletePasswordReset(ctx context.Context, user *models.User, tok, newPassword string) error {
	if !s.hasher.Verify(tok, user.ResetDigest) {
		return common.ErrorUnauthorized
	}
	if s.ResetExpired(user, time.Now()) {
		return common.ErrResetExpired
	}
	if verr := validatePassword(newPassword); verr != nil {
		return verr
	}

	passwordDigest, err := s.hasher.Digest(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	repo := s.repomanager.Users(s.db)
	return repo.UpdatePasswordAndClearReset(ctx, user.ID, passwordDigest)
}

// DeleteUser removes the account; microposts and relationships on either
// side follow via FK cascade.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	repo := s.repomanager.Users(s.db)
	return repo.Delete(ctx, id)
}

// deliver sends an account email without blocking the caller. Delivery
// failures are logged, never propagated.
func (s *UserService) deliver(ctx context.Context, kind string, user *models.User, tok string, send func(context.Context, *models.User, string) error) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := send(ctx, user, tok); err != nil {
			s.log.Error(ctx, "email delivery failed", "kind", kind, "user_id", user.ID, "error", err)
		}
	}()
}
