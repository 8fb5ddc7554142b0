package service

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/sakif/blogfeed/internal/apperror"
	"github.com/sakif/blogfeed/internal/feed"
)

func TestGlobal_PaginatesNewestFirst(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	posts := s.postsBy(t, s.user(t, "leo"), 15)

	first, err := s.feeds.Global(ctx, "")
	if err != nil {
		t.Fatalf("Global() error: %v", err)
	}
	if len(first.Posts) != feed.PageSize {
		t.Fatalf("page 1 has %d posts, want %d", len(first.Posts), feed.PageSize)
	}
	if first.Posts[0].ID != posts[14].ID {
		t.Errorf("page 1 starts with post %d, want newest %d", first.Posts[0].ID, posts[14].ID)
	}
	if first.NumPages != 2 || first.Total != 15 {
		t.Errorf("NumPages=%d Total=%d, want 2 and 15", first.NumPages, first.Total)
	}

	second, err := s.feeds.Global(ctx, "2")
	if err != nil {
		t.Fatalf("Global(page 2) error: %v", err)
	}
	if len(second.Posts) != 5 {
		t.Errorf("page 2 has %d posts, want 5", len(second.Posts))
	}
	if second.Posts[4].ID != posts[0].ID {
		t.Errorf("last post on page 2 is %d, want oldest %d", second.Posts[4].ID, posts[0].ID)
	}
}

func TestGlobal_ForgivingPageNumbers(t *testing.T) {
	s := newServices(t)
	s.postsBy(t, s.user(t, "leo"), 25)

	tests := []struct {
		raw  string
		want int
	}{
		{"", 1},
		{"abc", 1},
		{"2", 2},
		{"0", 3},
		{"-1", 3},
		{"999", 3},
	}
	for _, tt := range tests {
		page, err := s.feeds.Global(context.Background(), tt.raw)
		if err != nil {
			t.Fatalf("Global(%q) error: %v", tt.raw, err)
		}
		if page.Number != tt.want {
			t.Errorf("Global(%q).Number = %d, want %d", tt.raw, page.Number, tt.want)
		}
	}
}

func TestGlobal_Empty(t *testing.T) {
	s := newServices(t)

	page, err := s.feeds.Global(context.Background(), "5")
	if err != nil {
		t.Fatalf("Global() error: %v", err)
	}
	if page.Number != 1 || page.NumPages != 1 || len(page.Posts) != 0 {
		t.Errorf("empty feed = page %d/%d with %d posts, want 1/1 with 0", page.Number, page.NumPages, len(page.Posts))
	}
}

func TestGroup(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	leo := s.user(t, "leo")
	cats, dogs := s.group(t, "cats"), s.group(t, "dogs")

	catPost := s.post(t, leo, cats, "meow")
	s.post(t, leo, dogs, "woof")
	s.post(t, leo, nil, "no group")

	got, err := s.feeds.Group(ctx, "cats", "")
	if err != nil {
		t.Fatalf("Group() error: %v", err)
	}
	if got.Group.ID != cats.ID {
		t.Errorf("Group = %s, want cats", got.Group.Slug)
	}
	if ids := postIDs(got.Page.Posts); !slices.Equal(ids, []int64{catPost.ID}) {
		t.Errorf("cats feed = %v, want [%d]", ids, catPost.ID)
	}

	if _, err := s.feeds.Group(ctx, "birds", ""); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown group error = %v, want ErrNotFound", err)
	}
}

func TestAuthor_FollowingFlag(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	leo, anna := s.user(t, "leo"), s.user(t, "anna")
	s.postsBy(t, anna, 3)
	s.postsBy(t, leo, 2)

	got, err := s.feeds.Author(ctx, nil, "anna", "")
	if err != nil {
		t.Fatalf("Author() error: %v", err)
	}
	if got.Page.Total != 3 || got.Following {
		t.Errorf("anonymous view: total=%d following=%v, want 3 false", got.Page.Total, got.Following)
	}

	got, _ = s.feeds.Author(ctx, leo, "anna", "")
	if got.Following {
		t.Error("Following = true before following")
	}

	if err := s.relations.Follow(ctx, leo.ID, anna.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = s.feeds.Author(ctx, leo, "anna", "")
	if !got.Following {
		t.Error("Following = false after following")
	}

	own, _ := s.feeds.Author(ctx, leo, "leo", "")
	if own.Following {
		t.Error("Following = true on own profile")
	}
	if own.Follows != 1 {
		t.Errorf("leo Follows = %d, want 1", own.Follows)
	}

	if _, err := s.feeds.Author(ctx, leo, "ghost", ""); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown author error = %v, want ErrNotFound", err)
	}
}

func TestFollowing(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	leo, anna, boris := s.user(t, "leo"), s.user(t, "anna"), s.user(t, "boris")

	annaPosts := s.postsBy(t, anna, 2)
	s.postsBy(t, boris, 2)

	// Follows nobody yet: empty page, not an error.
	page, err := s.feeds.Following(ctx, leo, "")
	if err != nil {
		t.Fatalf("Following() error: %v", err)
	}
	if len(page.Posts) != 0 || page.NumPages != 1 {
		t.Errorf("empty following feed = %d posts / %d pages", len(page.Posts), page.NumPages)
	}

	if err := s.relations.Follow(ctx, leo.ID, anna.ID); err != nil {
		t.Fatal(err)
	}
	page, _ = s.feeds.Following(ctx, leo, "")
	want := []int64{annaPosts[1].ID, annaPosts[0].ID}
	if ids := postIDs(page.Posts); !slices.Equal(ids, want) {
		t.Errorf("following feed = %v, want %v", ids, want)
	}

	// Someone who does not follow anna does not see her new post.
	newPost := s.post(t, anna, nil, "fresh")
	page, _ = s.feeds.Following(ctx, boris, "")
	if slices.Contains(postIDs(page.Posts), newPost.ID) {
		t.Error("non-follower sees the post in their following feed")
	}
	page, _ = s.feeds.Following(ctx, leo, "")
	if len(page.Posts) == 0 || page.Posts[0].ID != newPost.ID {
		t.Error("follower does not see the new post first")
	}

	if _, err := s.feeds.Following(ctx, nil, ""); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("anonymous Following() error = %v, want ErrUnauthenticated", err)
	}
}
