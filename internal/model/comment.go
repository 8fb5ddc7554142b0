package model

import "time"

// Comment is a reply to a post. It is removed together with its post.
type Comment struct {
	ID       int64     `json:"id"`
	PostID   int64     `json:"postId"`
	AuthorID string    `json:"authorId"`
	Text     string    `json:"text"`
	Created  time.Time `json:"created"`

	Author *User `json:"author,omitempty"` // populated on reads
}
