package models

import "time"

// Relationship is a directed follow edge: follower follows followed.
// The pair is unique; deleting either user removes the edge.
type Relationship struct {
	FollowerID string
	FollowedID string
	CreatedAt  time.Time
}
