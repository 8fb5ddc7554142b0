package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/blogfeed/internal/apperror"
	"github.com/sakif/blogfeed/internal/model"
)

func TestGroupLookups(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	created := createTestGroup(t, db, "cats")

	bySlug, err := db.GetGroupBySlug(ctx, "cats")
	if err != nil {
		t.Fatalf("GetGroupBySlug() error = %v", err)
	}
	if bySlug.ID != created.ID {
		t.Errorf("ID = %q, want %q", bySlug.ID, created.ID)
	}

	byID, err := db.GetGroupByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetGroupByID() error = %v", err)
	}
	if byID.Slug != "cats" {
		t.Errorf("Slug = %q, want %q", byID.Slug, "cats")
	}

	if _, err := db.GetGroupBySlug(ctx, "unknown"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetGroupBySlug(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestCreateGroup_DuplicateSlug(t *testing.T) {
	db := newTestDB(t)
	createTestGroup(t, db, "cats")

	err := db.CreateGroup(context.Background(), &model.Group{Title: "Other", Slug: "cats"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateGroup() error = %v, want ErrConflict", err)
	}
}

func TestListGroups_TitleDescending(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, title := range []string{"Beta", "Alpha", "Gamma"} {
		g := &model.Group{Title: title, Slug: title}
		if err := db.CreateGroup(ctx, g); err != nil {
			t.Fatalf("CreateGroup() error = %v", err)
		}
	}

	groups, err := db.ListGroups(ctx)
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	want := []string{"Gamma", "Beta", "Alpha"}
	if len(groups) != len(want) {
		t.Fatalf("ListGroups() returned %d groups, want %d", len(groups), len(want))
	}
	for i, title := range want {
		if groups[i].Title != title {
			t.Errorf("groups[%d].Title = %q, want %q", i, groups[i].Title, title)
		}
	}
}

func TestDeleteGroup_DetachesPosts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := createTestUser(t, db, "author")
	group := createTestGroup(t, db, "cats")
	post := createTestPost(t, db, author, group, "meow")

	if err := db.DeleteGroup(ctx, group.ID); err != nil {
		t.Fatalf("DeleteGroup() error = %v", err)
	}

	found, err := db.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("post should survive its group: %v", err)
	}
	if found.HasGroup() {
		t.Errorf("GroupID = %v, want nil after group deletion", *found.GroupID)
	}

	if err := db.DeleteGroup(ctx, group.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteGroup() error = %v, want ErrNotFound", err)
	}
}
