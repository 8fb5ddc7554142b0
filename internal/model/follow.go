package model

import "time"

// Follow is a directed edge: FollowerID's following feed includes
// AuthorID's posts.
//
// The edge set is a simple directed graph: no self-loops
// (FollowerID != AuthorID) and at most one edge per (FollowerID, AuthorID).
type Follow struct {
	ID         int64     `json:"id"`
	FollowerID string    `json:"followerId"`
	AuthorID   string    `json:"authorId"`
	CreatedAt  time.Time `json:"createdAt"`
}
