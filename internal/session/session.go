// Package session maps a live connection to an authenticated user identity,
// either through a server-side session slot or through a persistent cookie
// pair: a signed user_id cookie and a plain remember-token cookie whose
// digest is stored on the user record.
package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dkrasnovs/microblog/internal/common"
	"github.com/dkrasnovs/microblog/internal/config"
	"github.com/dkrasnovs/microblog/internal/models"
	"github.com/dkrasnovs/microblog/internal/repositories/repomanager"
	"github.com/dkrasnovs/microblog/internal/token"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionKey is the per-connection session slot holding the user id.
	SessionKey = "user_id"

	// CookieUserID carries the signed user id; CookieRememberToken carries
	// the raw remember token. Both are persistent-class cookies.
	CookieUserID        = "user_id"
	CookieRememberToken = "remember_token"
)

// Store is the per-connection key-value slot the transport layer provides.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// CookieJar is the persistent cookie surface the transport layer provides.
// Set always uses the persistent expiry class.
type CookieJar interface {
	Set(name, value string, validity time.Duration)
	Get(name string) (string, bool)
	Delete(name string)
}

// Source says how an identity was resolved.
type Source int

const (
	// SourceNone means the connection stayed anonymous.
	SourceNone Source = iota
	// SourceSession means the identity came straight from the session slot.
	SourceSession
	// SourceRemembered means the identity came from the cookie pair and was
	// promoted into the session.
	SourceRemembered
)

// Manager implements the per-connection identity state machine. It holds no
// per-connection state itself: the resolved user is returned to the caller
// instead of being memoized on ambient request state.
type Manager struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	hasher         *token.Hasher
	signingKey     []byte
	cookieValidity time.Duration
}

// NewManager constructs a Manager using repositories and config.
func NewManager(db *sql.DB, m repomanager.RepositoryManager, hasher *token.Hasher, cfg *config.Config) *Manager {
	return &Manager{
		db:             db,
		repomanager:    m,
		hasher:         hasher,
		signingKey:     []byte(cfg.SessionSecret),
		cookieValidity: cfg.RememberCookieValidity,
	}
}

// LogIn records the user in the session slot.
func (m *Manager) LogIn(store Store, user *models.User) {
	store.Set(SessionKey, user.ID)
}

// Remember issues a fresh remember token, overwrites the stored digest
// (invalidating any token issued before), and sets the persistent cookie
// pair. Each call produces an independent token; there is no
// rotation-on-every-request.
func (m *Manager) Remember(ctx context.Context, jar CookieJar, user *models.User) error {
	rememberToken, err := token.New()
	if err != nil {
		return common.ErrorInternal
	}
	digest, err := m.hasher.Digest(rememberToken)
	if err != nil {
		return common.ErrorInternal
	}

	repo := m.repomanager.Users(m.db)
	if err := repo.UpdateRememberDigest(ctx, user.ID, digest); err != nil {
		return err
	}

	signed, err := m.signUserID(user.ID)
	if err != nil {
		return common.ErrorInternal
	}

	jar.Set(CookieUserID, signed, m.cookieValidity)
	jar.Set(CookieRememberToken, rememberToken, m.cookieValidity)
	return nil
}

// Resolve determines the identity of the current connection. A user id in
// the session wins; otherwise the cookie pair is verified and, on success,
// the identity is promoted into the session. Every verification failure
// resolves silently to anonymous (nil user, SourceNone); stale cookies are
// left in place for the caller to clear if it wants to. Persistence
// failures propagate.
func (m *Manager) Resolve(ctx context.Context, store Store, jar CookieJar) (*models.User, Source, error) {
	repo := m.repomanager.Users(m.db)

	if id, ok := store.Get(SessionKey); ok {
		user, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, SourceNone, nil
			}
			return nil, SourceNone, err
		}
		return user, SourceSession, nil
	}

	signed, ok := jar.Get(CookieUserID)
	if !ok {
		return nil, SourceNone, nil
	}
	rememberToken, ok := jar.Get(CookieRememberToken)
	if !ok {
		return nil, SourceNone, nil
	}

	id, err := m.verifyUserID(signed)
	if err != nil {
		return nil, SourceNone, nil
	}

	user, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, SourceNone, nil
		}
		return nil, SourceNone, err
	}

	if !m.hasher.Verify(rememberToken, user.RememberDigest) {
		return nil, SourceNone, nil
	}

	m.LogIn(store, user)
	return user, SourceRemembered, nil
}

// Forget clears the stored remember digest and deletes both cookies. Any
// previously issued remember token becomes permanently unverifiable.
func (m *Manager) Forget(ctx context.Context, jar CookieJar, user *models.User) error {
	repo := m.repomanager.Users(m.db)
	if err := repo.UpdateRememberDigest(ctx, user.ID, ""); err != nil {
		return err
	}
	jar.Delete(CookieUserID)
	jar.Delete(CookieRememberToken)
	return nil
}

// LogOut forgets the user and clears the session slot.
func (m *Manager) LogOut(ctx context.Context, store Store, jar CookieJar, user *models.User) error {
	if user != nil {
		if err := m.Forget(ctx, jar, user); err != nil {
			return err
		}
	}
	store.Delete(SessionKey)
	return nil
}

// cookieClaims is the payload of the signed user_id cookie.
type cookieClaims struct {
	jwt.RegisteredClaims
	UserID string
}

// signUserID wraps the user id in an HS256 JWT so the cookie is
// tamper-evident; expiry is the cookie validity, not the session lifetime.
func (m *Manager) signUserID(userID string) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, cookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.cookieValidity)),
		},
		UserID: userID,
	})
	return tok.SignedString(m.signingKey)
}

func (m *Manager) verifyUserID(tokenString string) (string, error) {
	claims := &cookieClaims{}

	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.signingKey, nil
	})
	if err != nil {
		return "", err
	}
	if !tok.Valid {
		return "", common.ErrorUnauthorized
	}
	return claims.UserID, nil
}
