package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/blogfeed/internal/apperror"
	"github.com/sakif/blogfeed/internal/model"
	"github.com/sakif/blogfeed/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, first_name, last_name, email, password_hash,
	github_id, avatar_url, created_at, updated_at`

// CreateUser inserts a new account. A taken username (or GitHub id) yields
// apperror.ErrConflict.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		nullableGitHubID(user.GitHubID),
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// UpsertGitHubUser inserts or refreshes a user keyed by GitHub id.
//
// An existing row keeps its internal ID and username; only email and avatar
// are refreshed. New rows take the GitHub login as their username.
func (db *DB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	var existingID, existingUsername string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID, &existingUsername)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID == "" {
		return db.CreateUser(ctx, user)
	}

	user.ID = existingID
	user.Username = existingUsername
	user.UpdatedAt = time.Now()
	_, err = db.conn.ExecContext(ctx,
		`UPDATE users SET email = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		user.Email,
		user.AvatarURL,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	return db.conn.QueryRowContext(ctx,
		`SELECT created_at FROM users WHERE id = ?`, user.ID,
	).Scan(&user.CreatedAt)
}

// GetUserByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by public handle.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}
	return u, nil
}

// DeleteUser removes a user and everything that references them, in one
// transaction:
//
//  1. follow edges in both directions
//  2. comments written by the user
//  3. comments on the user's posts (by anyone)
//  4. the user's posts
//  5. the user row
//
// It returns the image names of the deleted posts. The files themselves are
// not touched.
func (db *DB) DeleteUser(ctx context.Context, id string) ([]string, error) {
	var images []string
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		images, err = postImages(ctx, tx, id)
		if err != nil {
			return err
		}

		steps := []struct {
			what  string
			query string
		}{
			{"follows", `DELETE FROM follows WHERE follower_id = ? OR author_id = ?`},
			{"own comments", `DELETE FROM comments WHERE author_id = ?`},
			{"comments on posts", `DELETE FROM comments WHERE post_id IN (SELECT id FROM posts WHERE author_id = ?)`},
			{"posts", `DELETE FROM posts WHERE author_id = ?`},
		}
		for _, step := range steps {
			args := []any{id}
			if strings.Count(step.query, "?") == 2 {
				args = append(args, id)
			}
			if _, err := tx.ExecContext(ctx, step.query, args...); err != nil {
				return fmt.Errorf("sqlite: deleting %s of user %s: %w", step.what, id, err)
			}
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
		}
		return requireAffected(result, "user", id)
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

func postImages(ctx context.Context, tx *sql.Tx, authorID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT image FROM posts WHERE author_id = ? AND image != ''`, authorID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing images of user %s: %w", authorID, err)
	}
	defer rows.Close()

	var images []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning image name: %w", err)
		}
		images = append(images, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: listing images of user %s: %w", authorID, err)
	}
	return images, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&githubID,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.GitHubID = githubID.Int64
	return &u, nil
}

func nullableGitHubID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// requireAffected turns "zero rows affected" into apperror.ErrNotFound.
func requireAffected(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
