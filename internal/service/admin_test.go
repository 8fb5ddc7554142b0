package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/blogfeed/internal/apperror"
	"github.com/sakif/blogfeed/internal/repository"
)

func TestCreateGroup_Validation(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	tests := []struct {
		name, title, slug string
		field             string
	}{
		{"missing title", "", "cats", "title"},
		{"bad slug", "Cats", "cats and dogs", "slug"},
		{"empty slug", "Cats", "", "slug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.admin.CreateGroup(ctx, tt.title, tt.slug, "")
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("CreateGroup() error = %v, want ErrValidation", err)
			}
			if _, ok := apperror.FieldErrors(err)[tt.field]; !ok {
				t.Errorf("no error on %q: %v", tt.field, apperror.FieldErrors(err))
			}
		})
	}

	if _, err := s.admin.CreateGroup(ctx, "Cats", "cats", "all about cats"); err != nil {
		t.Fatalf("CreateGroup() error: %v", err)
	}
	if _, err := s.admin.CreateGroup(ctx, "Cats again", "cats", ""); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate slug error = %v, want ErrConflict", err)
	}
}

func TestDeleteGroup_PostsSurvive(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	leo := s.user(t, "leo")
	cats := s.group(t, "cats")
	post := s.post(t, leo, cats, "meow")

	if err := s.admin.DeleteGroup(ctx, "cats"); err != nil {
		t.Fatalf("DeleteGroup() error: %v", err)
	}

	got, err := s.db.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("post gone with its group: %v", err)
	}
	if got.GroupID != nil {
		t.Errorf("GroupID = %v, want nil", *got.GroupID)
	}
	if err := s.admin.DeleteGroup(ctx, "cats"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteGroup() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteUser_Cascades(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	leo, anna := s.user(t, "leo"), s.user(t, "anna")
	leoPost := s.post(t, leo, nil, "leo's")
	annaPost := s.post(t, anna, nil, "anna's")
	s.posts.AddComment(ctx, anna, leoPost.ID, "on leo's post")
	s.posts.AddComment(ctx, leo, annaPost.ID, "leo on anna's post")
	s.relations.Follow(ctx, anna.ID, leo.ID)
	s.relations.Follow(ctx, leo.ID, anna.ID)

	if err := s.admin.DeleteUser(ctx, "leo"); err != nil {
		t.Fatalf("DeleteUser() error: %v", err)
	}

	if n, _ := s.db.CountPosts(ctx, repository.PostFilter{}); n != 1 {
		t.Errorf("%d posts left, want only anna's", n)
	}
	if n, _ := s.db.CountComments(ctx, annaPost.ID); n != 0 {
		t.Errorf("leo's comment on anna's post survived")
	}
	if ids, _ := s.relations.FeedAuthors(ctx, anna.ID); len(ids) != 0 {
		t.Errorf("anna still follows %v", ids)
	}
	if err := s.admin.DeleteUser(ctx, "leo"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteUser() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteUser_RemovesImages(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	leo, anna := s.user(t, "leo"), s.user(t, "anna")

	leoPost, err := s.posts.CreatePost(ctx, leo, PostInput{Text: "leo's picture", Image: strings.NewReader("img")})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	annaPost, err := s.posts.CreatePost(ctx, anna, PostInput{Text: "anna's picture", Image: strings.NewReader("img")})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	s.post(t, leo, nil, "no picture")

	if err := s.admin.DeleteUser(ctx, "leo"); err != nil {
		t.Fatalf("DeleteUser() error: %v", err)
	}

	if s.images.stored[leoPost.Image] {
		t.Errorf("image %q of a deleted post is still stored", leoPost.Image)
	}
	if !s.images.stored[annaPost.Image] {
		t.Errorf("image %q of a surviving post was removed", annaPost.Image)
	}
}
