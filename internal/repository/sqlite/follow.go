package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/blogfeed/internal/repository"
)

var _ repository.FollowRepository = (*DB)(nil)

// CreateFollow adds the edge follower → author.
//
// INSERT OR IGNORE makes a duplicate (or a self-loop rejected by the CHECK
// constraint) a silent no-op. Two concurrent follows of the same pair cannot
// produce two rows: the UNIQUE constraint decides, not a read-then-write.
func (db *DB) CreateFollow(ctx context.Context, followerID, authorID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO follows (follower_id, author_id, created_at) VALUES (?, ?, ?)`,
		followerID,
		authorID,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating follow %s -> %s: %w", followerID, authorID, err)
	}
	return nil
}

// DeleteFollow removes the edge if present. A missing edge is not an error.
func (db *DB) DeleteFollow(ctx context.Context, followerID, authorID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND author_id = ?`,
		followerID,
		authorID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting follow %s -> %s: %w", followerID, authorID, err)
	}
	return nil
}

func (db *DB) FollowExists(ctx context.Context, followerID, authorID string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = ? AND author_id = ?)`,
		followerID,
		authorID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow %s -> %s: %w", followerID, authorID, err)
	}
	return exists, nil
}

// ListFollowedIDs returns the ids of every user followerID follows. The
// result is never nil.
func (db *DB) ListFollowedIDs(ctx context.Context, followerID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT author_id FROM follows WHERE follower_id = ? ORDER BY id DESC`, followerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing follows of %s: %w", followerID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning follow row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating follows: %w", err)
	}
	return ids, nil
}
