package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/blogfeed/internal/apperror"
	"github.com/sakif/blogfeed/internal/model"
	"github.com/sakif/blogfeed/internal/repository"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// AdminService covers the operations only an operator performs, from the
// admin CLI: managing groups and removing users.
type AdminService struct {
	users  repository.UserRepository
	groups repository.GroupRepository
	images ImageStore
	logger *slog.Logger
}

func NewAdminService(
	users repository.UserRepository,
	groups repository.GroupRepository,
	images ImageStore,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{users: users, groups: groups, images: images, logger: logger}
}

// CreateGroup adds a group. Title and slug are required; the slug must be
// URL-safe and unique.
func (s *AdminService) CreateGroup(ctx context.Context, title, slug, description string) (*model.Group, error) {
	title, slug = strings.TrimSpace(title), strings.TrimSpace(slug)

	fields := map[string][]string{}
	if title == "" {
		fields["title"] = []string{"This field is required."}
	} else if len([]rune(title)) > 200 {
		fields["title"] = []string{"Title must be at most 200 characters."}
	}
	if !slugPattern.MatchString(slug) {
		fields["slug"] = []string{"Enter a valid slug of letters, numbers, underscores or hyphens."}
	}
	if len(fields) > 0 {
		return nil, apperror.Invalid(fields)
	}

	group := &model.Group{Title: title, Slug: slug, Description: strings.TrimSpace(description)}
	if err := s.groups.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("service/admin: %w", err)
	}
	s.logger.Info("group created", slog.String("slug", slug))
	return group, nil
}

// DeleteGroup removes the group with slug. Its posts stay, without a group.
func (s *AdminService) DeleteGroup(ctx context.Context, slug string) error {
	group, err := s.groups.GetGroupBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("service/admin: %w", err)
	}
	if err := s.groups.DeleteGroup(ctx, group.ID); err != nil {
		return fmt.Errorf("service/admin: deleting group %q: %w", slug, err)
	}
	s.logger.Info("group deleted", slog.String("slug", slug))
	return nil
}

func (s *AdminService) ListGroups(ctx context.Context) ([]model.Group, error) {
	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/admin: %w", err)
	}
	return groups, nil
}

// DeleteUser removes a user with their posts, comments and follow edges,
// then the image files of those posts. A file that cannot be removed is
// logged and left behind.
func (s *AdminService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("service/admin: %w", err)
	}
	images, err := s.users.DeleteUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("service/admin: deleting user %q: %w", username, err)
	}
	for _, name := range images {
		if err := s.images.Remove(name); err != nil {
			s.logger.Warn("failed to remove image", slog.String("image", name), slog.String("error", err.Error()))
		}
	}
	s.logger.Info("user deleted", slog.String("username", username), slog.Int("images", len(images)))
	return nil
}
