// Package models holds the persistent record types shared by repositories
// and services.
package models

import (
	"database/sql"
	"time"
)

// User is an account record. Digest fields hold one-way bcrypt hashes; the
// secrets they verify are never persisted. An empty digest string means no
// secret of that kind is currently set.
type User struct {
	ID               string
	Name             string
	Email            string
	PasswordDigest   string
	Activated        bool
	ActivatedAt      sql.NullTime
	RememberDigest   string
	ActivationDigest string
	ResetDigest      string
	ResetSentAt      sql.NullTime
	CreatedAt        time.Time
}
