package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sakif/blogfeed/internal/apperror"
	"github.com/sakif/blogfeed/internal/model"
	"github.com/sakif/blogfeed/internal/repository"
	"github.com/sakif/blogfeed/internal/storage"
)

// ImageStore saves uploaded post images. *storage.Media implements it.
type ImageStore interface {
	SaveImage(r io.Reader) (string, error)
	Remove(name string) error
}

// PostInput is what an author submits for a new or edited post.
//
// GroupID "" means no group. A nil Image means "no upload": a new post has
// no image and an edited post keeps the one it had.
type PostInput struct {
	Text    string
	GroupID string
	Image   io.Reader
}

// PostDetail is a post with everything its page shows.
type PostDetail struct {
	Post        *model.Post
	Comments    []model.Comment
	AuthorPosts int
}

// PostService is the submission pipeline for posts and comments.
//
// The acting user is an explicit argument to every mutating method; the
// service never looks at a request or a context value to find it. A nil
// actor means an anonymous caller and is rejected with
// apperror.ErrUnauthenticated.
type PostService struct {
	posts    repository.PostRepository
	groups   repository.GroupRepository
	comments repository.CommentRepository
	images   ImageStore
	logger   *slog.Logger
}

func NewPostService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	comments repository.CommentRepository,
	images ImageStore,
	logger *slog.Logger,
) *PostService {
	return &PostService{
		posts:    posts,
		groups:   groups,
		comments: comments,
		images:   images,
		logger:   logger,
	}
}

// Groups lists the groups a post can be assigned to.
func (s *PostService) Groups(ctx context.Context) ([]model.Group, error) {
	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/post: listing groups: %w", err)
	}
	return groups, nil
}

// CreatePost publishes a post by actor. The publication date is assigned by
// the store.
func (s *PostService) CreatePost(ctx context.Context, actor *model.User, in PostInput) (*model.Post, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated("create posts")
	}
	groupID, err := s.checkInput(ctx, in)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		Text:     strings.TrimSpace(in.Text),
		AuthorID: actor.ID,
		GroupID:  groupID,
	}
	if post.Image, err = s.saveImage(in.Image); err != nil {
		return nil, err
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.discardImage(post.Image)
		return nil, fmt.Errorf("service/post: creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.Int64("id", post.ID),
		slog.String("author", actor.Username),
	)
	return post, nil
}

// PostForEdit loads a post for its edit form. Anyone but the author gets
// apperror.ErrForbidden.
func (s *PostService) PostForEdit(ctx context.Context, actor *model.User, id int64) (*model.Post, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated("edit posts")
	}
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/post: %w", err)
	}
	if post.AuthorID != actor.ID {
		return nil, apperror.Forbidden("only the author can edit this post")
	}
	return post, nil
}

// EditPost replaces text, group and (when uploaded) image of actor's post.
// Author and publication date never change.
func (s *PostService) EditPost(ctx context.Context, actor *model.User, id int64, in PostInput) (*model.Post, error) {
	post, err := s.PostForEdit(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	groupID, err := s.checkInput(ctx, in)
	if err != nil {
		return nil, err
	}

	oldImage := post.Image
	newImage, err := s.saveImage(in.Image)
	if err != nil {
		return nil, err
	}

	post.Text = strings.TrimSpace(in.Text)
	post.GroupID = groupID
	post.Group = nil
	if newImage != "" {
		post.Image = newImage
	}

	if err := s.posts.UpdatePost(ctx, post); err != nil {
		s.discardImage(newImage)
		return nil, fmt.Errorf("service/post: updating post %d: %w", id, err)
	}
	if newImage != "" {
		s.discardImage(oldImage)
	}

	s.logger.Info("post edited", slog.Int64("id", post.ID), slog.String("author", actor.Username))
	return post, nil
}

// GetPost returns a post with its comments (newest first) and the number of
// posts its author has published.
func (s *PostService) GetPost(ctx context.Context, id int64) (*PostDetail, error) {
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/post: %w", err)
	}
	comments, err := s.comments.ListComments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/post: listing comments of %d: %w", id, err)
	}
	count, err := s.posts.CountPosts(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, fmt.Errorf("service/post: counting author posts: %w", err)
	}
	return &PostDetail{Post: post, Comments: comments, AuthorPosts: count}, nil
}

// AddComment attaches a comment by actor to post postID.
func (s *PostService) AddComment(ctx context.Context, actor *model.User, postID int64, text string) (*model.Comment, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated("comment")
	}
	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return nil, fmt.Errorf("service/post: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("text", "This field is required.")
	}

	comment := &model.Comment{PostID: postID, AuthorID: actor.ID, Text: text}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("service/post: adding comment to %d: %w", postID, err)
	}
	comment.Author = actor
	return comment, nil
}

// DeletePost removes a post and its comments. It is an administrative
// operation; there is no HTTP route for it.
func (s *PostService) DeletePost(ctx context.Context, id int64) error {
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return fmt.Errorf("service/post: %w", err)
	}
	if err := s.posts.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("service/post: deleting post %d: %w", id, err)
	}
	s.discardImage(post.Image)
	s.logger.Info("post deleted", slog.Int64("id", id))
	return nil
}

// checkInput validates text and resolves the optional group id.
func (s *PostService) checkInput(ctx context.Context, in PostInput) (*string, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, apperror.ValidationFailed("text", "This field is required.")
	}
	if in.GroupID == "" {
		return nil, nil
	}
	group, err := s.groups.GetGroupByID(ctx, in.GroupID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.ValidationFailed("group", "Select a valid choice. That choice is not one of the available choices.")
	}
	if err != nil {
		return nil, fmt.Errorf("service/post: loading group %s: %w", in.GroupID, err)
	}
	return &group.ID, nil
}

func (s *PostService) saveImage(r io.Reader) (string, error) {
	if r == nil || s.images == nil {
		return "", nil
	}
	name, err := s.images.SaveImage(r)
	switch {
	case errors.Is(err, storage.ErrNotImage):
		return "", apperror.ValidationFailed("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	case errors.Is(err, storage.ErrTooLarge):
		return "", apperror.ValidationFailed("image", "The uploaded image is too large.")
	case err != nil:
		return "", fmt.Errorf("service/post: saving image: %w", err)
	}
	return name, nil
}

func (s *PostService) discardImage(name string) {
	if name == "" || s.images == nil {
		return
	}
	if err := s.images.Remove(name); err != nil {
		s.logger.Warn("failed to remove image", slog.String("image", name), slog.String("error", err.Error()))
	}
}
