package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"
	"github.com/sakif/blogfeed/internal/apperror"
	"github.com/sakif/blogfeed/internal/model"
	"github.com/sakif/blogfeed/internal/repository"
)

var _ repository.GroupRepository = (*DB)(nil)

func (db *DB) CreateGroup(ctx context.Context, group *model.Group) error {
	group.ID = xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO post_groups (id, title, slug, description) VALUES (?, ?, ?, ?)`,
		group.ID,
		group.Title,
		group.Slug,
		group.Description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("group", group.Slug)
		}
		return fmt.Errorf("sqlite: creating group %q: %w", group.Slug, err)
	}
	return nil
}

func (db *DB) GetGroupByID(ctx context.Context, id string) (*model.Group, error) {
	var g model.Group
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, slug, description FROM post_groups WHERE id = ?`, id,
	).Scan(&g.ID, &g.Title, &g.Slug, &g.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("group", id)
		}
		return nil, fmt.Errorf("sqlite: getting group %s: %w", id, err)
	}
	return &g, nil
}

func (db *DB) GetGroupBySlug(ctx context.Context, slug string) (*model.Group, error) {
	var g model.Group
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, slug, description FROM post_groups WHERE slug = ?`, slug,
	).Scan(&g.ID, &g.Title, &g.Slug, &g.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("group", slug)
		}
		return nil, fmt.Errorf("sqlite: getting group %q: %w", slug, err)
	}
	return &g, nil
}

// ListGroups returns every group ordered by title, descending.
func (db *DB) ListGroups(ctx context.Context) ([]model.Group, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, slug, description FROM post_groups ORDER BY title DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing groups: %w", err)
	}
	defer rows.Close()

	groups := []model.Group{}
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Title, &g.Slug, &g.Description); err != nil {
			return nil, fmt.Errorf("sqlite: scanning group row: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating groups: %w", err)
	}
	return groups, nil
}

// DeleteGroup detaches the group's posts (group_id = NULL) and removes the
// group. Posts are never deleted with their group.
func (db *DB) DeleteGroup(ctx context.Context, id string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE posts SET group_id = NULL WHERE group_id = ?`, id,
		); err != nil {
			return fmt.Errorf("sqlite: detaching posts from group %s: %w", id, err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM post_groups WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting group %s: %w", id, err)
		}
		return requireAffected(result, "group", id)
	})
}
