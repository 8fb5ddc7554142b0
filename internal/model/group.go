package model

// Group is a named topic that posts can optionally belong to.
//
// Groups are managed by administrators (see cmd/admin); request handlers
// only ever read them. Listings are ordered by title, descending.
type Group struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"` // unique, used in /group/{slug}/
	Description string `json:"description"`
}

// String returns the group title.
func (g *Group) String() string {
	return g.Title
}
