// Package repository defines the storage contracts of the entity store.
//
// Services depend on these interfaces, never on a concrete database. The
// sqlite sub-package implements all of them on a single *sqlite.DB; tests
// can substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/blogfeed/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// PostFilter narrows a post listing. Zero-valued fields do not filter.
//
// FollowerID keeps the posts of authors that user follows (the following
// feed). The follow set is resolved inside the query, so its size is not
// bounded by the number of bind variables.
type PostFilter struct {
	GroupID    string
	AuthorID   string
	FollowerID string
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	UpsertGitHubUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	// DeleteUser returns the image names of the removed posts so the
	// caller can delete the files once the rows are gone.
	DeleteUser(ctx context.Context, id string) ([]string, error)
}

type GroupRepository interface {
	CreateGroup(ctx context.Context, group *model.Group) error
	GetGroupByID(ctx context.Context, id string) (*model.Group, error)
	GetGroupBySlug(ctx context.Context, slug string) (*model.Group, error)
	ListGroups(ctx context.Context) ([]model.Group, error)
	DeleteGroup(ctx context.Context, id string) error
}

// PostRepository lists posts newest first (highest ID first).
type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, id int64) error
	CountPosts(ctx context.Context, filter PostFilter) (int, error)
	ListPosts(ctx context.Context, filter PostFilter, opts ListOptions) ([]model.Post, error)
}

// CommentRepository lists comments newest first.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	ListComments(ctx context.Context, postID int64) ([]model.Comment, error)
	CountComments(ctx context.Context, postID int64) (int, error)
}

// FollowRepository stores follow edges. CreateFollow is idempotent: an
// existing (follower, author) pair is left as is and no error is returned.
type FollowRepository interface {
	CreateFollow(ctx context.Context, followerID, authorID string) error
	DeleteFollow(ctx context.Context, followerID, authorID string) error
	FollowExists(ctx context.Context, followerID, authorID string) (bool, error)
	ListFollowedIDs(ctx context.Context, followerID string) ([]string, error)
}
