package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/blogfeed/internal/model"
	"github.com/sakif/blogfeed/internal/repository/sqlite"
	"github.com/sakif/blogfeed/internal/storage"
)

// Most service tests run against a real in-memory SQLite store: the rules
// under test (cascades, ordering, IN filters) live partly in SQL, and a fake
// would only test itself. The auth tests use a hand-written fake instead
// (see auth_test.go) to simulate store failures.

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// services bundles every service over one store.
type services struct {
	db        *sqlite.DB
	relations *RelationshipService
	feeds     *FeedService
	posts     *PostService
	admin     *AdminService
	images    *fakeImages
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := newTestStore(t)
	logger := newTestLogger()
	images := &fakeImages{stored: map[string]bool{}}

	relations := NewRelationshipService(db, db, logger)
	return &services{
		db:        db,
		relations: relations,
		feeds:     NewFeedService(db, db, db, relations, logger),
		posts:     NewPostService(db, db, db, images, logger),
		admin:     NewAdminService(db, db, images, logger),
		images:    images,
	}
}

func (s *services) user(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, FirstName: "First", LastName: username}
	if err := s.db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u
}

func (s *services) group(t *testing.T, slug string) *model.Group {
	t.Helper()
	g, err := s.admin.CreateGroup(context.Background(), "Group "+slug, slug, "")
	if err != nil {
		t.Fatalf("CreateGroup(%s): %v", slug, err)
	}
	return g
}

func (s *services) post(t *testing.T, author *model.User, group *model.Group, text string) *model.Post {
	t.Helper()
	in := PostInput{Text: text}
	if group != nil {
		in.GroupID = group.ID
	}
	p, err := s.posts.CreatePost(context.Background(), author, in)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return p
}

func (s *services) postsBy(t *testing.T, author *model.User, n int) []*model.Post {
	t.Helper()
	out := make([]*model.Post, n)
	for i := range out {
		out[i] = s.post(t, author, nil, fmt.Sprintf("%s post %d", author.Username, i))
	}
	return out
}

// fakeImages is an ImageStore that keeps names in memory. Any upload whose
// content is "not an image" is rejected the way storage.Media rejects it.
type fakeImages struct {
	stored map[string]bool
	n      int
}

func (f *fakeImages) SaveImage(r io.Reader) (string, error) {
	data, _ := io.ReadAll(r)
	if string(data) == "not an image" {
		return "", storage.ErrNotImage
	}
	f.n++
	name := fmt.Sprintf("posts/img%d.png", f.n)
	f.stored[name] = true
	return name, nil
}

func (f *fakeImages) Remove(name string) error {
	delete(f.stored, name)
	return nil
}

func postIDs(posts []model.Post) []int64 {
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}
