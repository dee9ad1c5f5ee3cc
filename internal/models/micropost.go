package models

import "time"

// Micropost is a short post authored by a user. ImageKey, when non-empty,
// is the object-storage key of an attached image.
type Micropost struct {
	ID        string
	UserID    string
	Content   string
	ImageKey  string
	CreatedAt time.Time
}
