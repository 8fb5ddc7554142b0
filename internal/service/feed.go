package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/blogfeed/internal/apperror"
	"github.com/sakif/blogfeed/internal/feed"
	"github.com/sakif/blogfeed/internal/model"
	"github.com/sakif/blogfeed/internal/repository"
)

// FeedService composes the four post feeds. Every feed is newest-first and
// cut into feed.PageSize windows by the same rule, so the feeds differ only
// in their filter:
//
//	Global     no filter
//	Group      group_id = <group>
//	Author     author_id = <user>
//	Following  author_id IN (SELECT authors the viewer follows)
type FeedService struct {
	posts     repository.PostRepository
	groups    repository.GroupRepository
	users     repository.UserRepository
	relations *RelationshipService
	logger    *slog.Logger
}

func NewFeedService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	relations *RelationshipService,
	logger *slog.Logger,
) *FeedService {
	return &FeedService{
		posts:     posts,
		groups:    groups,
		users:     users,
		relations: relations,
		logger:    logger,
	}
}

// GroupFeed is a group with one page of its posts.
type GroupFeed struct {
	Group *model.Group
	Page  feed.Page
}

// AuthorFeed is a user's profile page. Following reports whether the viewer
// follows the author; it is false for anonymous viewers and on your own
// profile. Follows is the number of authors the author follows.
type AuthorFeed struct {
	Author    *model.User
	Page      feed.Page
	Following bool
	Follows   int
}

// Global returns a page of all posts.
func (s *FeedService) Global(ctx context.Context, rawPage string) (feed.Page, error) {
	return s.page(ctx, repository.PostFilter{}, rawPage)
}

// Group returns a page of the posts in the group with slug.
func (s *FeedService) Group(ctx context.Context, slug, rawPage string) (*GroupFeed, error) {
	group, err := s.groups.GetGroupBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("service/feed: %w", err)
	}
	page, err := s.page(ctx, repository.PostFilter{GroupID: group.ID}, rawPage)
	if err != nil {
		return nil, err
	}
	return &GroupFeed{Group: group, Page: page}, nil
}

// Author returns a page of username's posts as seen by viewer (nil for
// anonymous).
func (s *FeedService) Author(ctx context.Context, viewer *model.User, username, rawPage string) (*AuthorFeed, error) {
	author, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/feed: %w", err)
	}
	page, err := s.page(ctx, repository.PostFilter{AuthorID: author.ID}, rawPage)
	if err != nil {
		return nil, err
	}

	var following bool
	if viewer != nil {
		if following, err = s.relations.IsFollowing(ctx, viewer.ID, author.ID); err != nil {
			return nil, err
		}
	}
	followed, err := s.relations.FeedAuthors(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	return &AuthorFeed{Author: author, Page: page, Following: following, Follows: len(followed)}, nil
}

// Following returns a page of posts by the authors viewer follows. Someone
// who follows nobody gets an empty first page.
func (s *FeedService) Following(ctx context.Context, viewer *model.User, rawPage string) (feed.Page, error) {
	if viewer == nil {
		return feed.Page{}, apperror.Unauthenticated("see followed authors")
	}
	return s.page(ctx, repository.PostFilter{FollowerID: viewer.ID}, rawPage)
}

// page counts the filtered posts, resolves the page number against that
// count and loads the window.
func (s *FeedService) page(ctx context.Context, filter repository.PostFilter, rawPage string) (feed.Page, error) {
	total, err := s.posts.CountPosts(ctx, filter)
	if err != nil {
		return feed.Page{}, fmt.Errorf("service/feed: counting posts: %w", err)
	}

	w := feed.Paginate(total, rawPage)
	if w.Limit == 0 {
		return feed.Page{Window: w, Posts: []model.Post{}}, nil
	}

	posts, err := s.posts.ListPosts(ctx, filter, repository.ListOptions{Limit: w.Limit, Offset: w.Offset})
	if err != nil {
		return feed.Page{}, fmt.Errorf("service/feed: listing page %d: %w", w.Number, err)
	}
	return feed.Page{Window: w, Posts: posts}, nil
}
