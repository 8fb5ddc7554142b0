package model

import "time"

// PostPreviewLength is how many characters of the text String() shows.
const PostPreviewLength = 15

// Post is a single blog entry.
//
// INVARIANTS:
//   - AuthorID is always set: a post has exactly one author.
//   - GroupID is nil or the ID of an existing group. Deleting the group sets
//     it back to nil; the post itself survives.
//   - PubDate is assigned by the store on insert and never changes.
//
// Author and Group are populated by read queries (joined rows) so templates
// can render handles and group links without extra lookups. They are ignored
// on write.
type Post struct {
	ID       int64     `json:"id"`
	Text     string    `json:"text"`
	PubDate  time.Time `json:"pubDate"`
	AuthorID string    `json:"authorId"`
	GroupID  *string   `json:"groupId,omitempty"`
	Image    string    `json:"image,omitempty"` // path relative to the media directory

	Author *User  `json:"author,omitempty"`
	Group  *Group `json:"group,omitempty"`
}

// String returns the first PostPreviewLength characters of the text.
// It counts runes, not bytes, so multi-byte text is never cut mid-character.
func (p *Post) String() string {
	runes := []rune(p.Text)
	if len(runes) <= PostPreviewLength {
		return p.Text
	}
	return string(runes[:PostPreviewLength])
}

// HasGroup reports whether the post is assigned to a group.
func (p *Post) HasGroup() bool {
	return p.GroupID != nil && *p.GroupID != ""
}
