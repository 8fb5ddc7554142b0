package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/blogfeed/internal/apperror"
	"github.com/sakif/blogfeed/internal/model"
	"github.com/sakif/blogfeed/internal/repository"
)

// RelationshipService owns the follow graph.
//
// RULES:
//   - A user never follows themselves. Asking to is a silent no-op, not an
//     error, so a stray "follow" link on your own profile is harmless.
//   - At most one edge per (follower, author). Following twice is a no-op.
//   - Unfollowing someone you do not follow is a no-op.
//
// The store enforces the same rules (UNIQUE + CHECK), so a race between two
// identical requests cannot produce a duplicate edge either.
type RelationshipService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	logger  *slog.Logger
}

func NewRelationshipService(users repository.UserRepository, follows repository.FollowRepository, logger *slog.Logger) *RelationshipService {
	return &RelationshipService{users: users, follows: follows, logger: logger}
}

// IsFollowing reports whether follower has an edge to author.
func (s *RelationshipService) IsFollowing(ctx context.Context, followerID, authorID string) (bool, error) {
	if followerID == "" || authorID == "" || followerID == authorID {
		return false, nil
	}
	ok, err := s.follows.FollowExists(ctx, followerID, authorID)
	if err != nil {
		return false, fmt.Errorf("service/relationship: checking %s→%s: %w", followerID, authorID, err)
	}
	return ok, nil
}

// Follow adds the edge follower→author unless it would be a self-loop or
// already exists.
func (s *RelationshipService) Follow(ctx context.Context, followerID, authorID string) error {
	if followerID == authorID {
		return nil
	}
	if err := s.follows.CreateFollow(ctx, followerID, authorID); err != nil {
		return fmt.Errorf("service/relationship: following %s→%s: %w", followerID, authorID, err)
	}
	s.logger.Debug("follow", slog.String("follower", followerID), slog.String("author", authorID))
	return nil
}

// Unfollow removes the edge follower→author if present.
func (s *RelationshipService) Unfollow(ctx context.Context, followerID, authorID string) error {
	if followerID == authorID {
		return nil
	}
	if err := s.follows.DeleteFollow(ctx, followerID, authorID); err != nil {
		return fmt.Errorf("service/relationship: unfollowing %s→%s: %w", followerID, authorID, err)
	}
	s.logger.Debug("unfollow", slog.String("follower", followerID), slog.String("author", authorID))
	return nil
}

// FeedAuthors returns the ids of everyone userID follows. The slice is
// never nil.
func (s *RelationshipService) FeedAuthors(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.follows.ListFollowedIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/relationship: listing follows of %s: %w", userID, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// FollowByUsername resolves the author handle, then follows. The actor is
// required; an unknown handle is apperror.ErrNotFound.
func (s *RelationshipService) FollowByUsername(ctx context.Context, actor *model.User, username string) error {
	author, err := s.resolve(ctx, actor, username, "follow authors")
	if err != nil {
		return err
	}
	return s.Follow(ctx, actor.ID, author.ID)
}

// UnfollowByUsername resolves the author handle, then unfollows.
func (s *RelationshipService) UnfollowByUsername(ctx context.Context, actor *model.User, username string) error {
	author, err := s.resolve(ctx, actor, username, "unfollow authors")
	if err != nil {
		return err
	}
	return s.Unfollow(ctx, actor.ID, author.ID)
}

func (s *RelationshipService) resolve(ctx context.Context, actor *model.User, username, action string) (*model.User, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated(action)
	}
	author, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/relationship: %w", err)
	}
	return author, nil
}
