package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/blogfeed/internal/apperror"
	"github.com/sakif/blogfeed/internal/model"
	"github.com/sakif/blogfeed/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

// selectPosts joins each post with its author and (optional) group so a
// listing is one query. The LEFT JOIN leaves the group columns NULL for
// posts without a group.
const selectPosts = `
	SELECT p.id, p.text, p.pub_date, p.author_id, p.group_id, p.image,
	       u.username, u.first_name, u.last_name, u.avatar_url,
	       g.title, g.slug, g.description
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN post_groups g ON g.id = p.group_id`

// CreatePost inserts a post. ID and PubDate are assigned here and written
// back into post; any PubDate set by the caller is overwritten.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	post.PubDate = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (text, pub_date, author_id, group_id, image)
		 VALUES (?, ?, ?, ?, ?)`,
		post.Text,
		post.PubDate,
		post.AuthorID,
		nullableString(post.GroupID),
		post.Image,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading post id: %w", err)
	}
	post.ID = id
	return nil
}

func (db *DB) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	row := db.conn.QueryRowContext(ctx, selectPosts+` WHERE p.id = ?`, id)

	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting post %d: %w", id, err)
	}
	return post, nil
}

// UpdatePost writes text, group and image. Author and pub_date are not
// part of the statement and can never change.
func (db *DB) UpdatePost(ctx context.Context, post *model.Post) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE posts SET text = ?, group_id = ?, image = ? WHERE id = ?`,
		post.Text,
		nullableString(post.GroupID),
		post.Image,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %d: %w", post.ID, err)
	}
	return requireAffected(result, "post", strconv.FormatInt(post.ID, 10))
}

// DeletePost removes a post together with its comments.
func (db *DB) DeletePost(ctx context.Context, id int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting comments of post %d: %w", id, err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting post %d: %w", id, err)
		}
		return requireAffected(result, "post", strconv.FormatInt(id, 10))
	})
}

func (db *DB) CountPosts(ctx context.Context, filter repository.PostFilter) (int, error) {
	where, args := postWhere(filter)

	var n int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts p`+where, args...,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting posts: %w", err)
	}
	return n, nil
}

// ListPosts returns matching posts, newest (highest id) first.
func (db *DB) ListPosts(ctx context.Context, filter repository.PostFilter, opts repository.ListOptions) ([]model.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	offset := max(opts.Offset, 0)

	where, args := postWhere(filter)
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx,
		selectPosts+where+` ORDER BY p.id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return posts, nil
}

// postWhere builds the WHERE clause for a filter. Column references use the
// "p" alias shared by selectPosts and CountPosts.
func postWhere(f repository.PostFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if f.GroupID != "" {
		clauses = append(clauses, "p.group_id = ?")
		args = append(args, f.GroupID)
	}
	if f.AuthorID != "" {
		clauses = append(clauses, "p.author_id = ?")
		args = append(args, f.AuthorID)
	}
	if f.FollowerID != "" {
		clauses = append(clauses, "p.author_id IN (SELECT author_id FROM follows WHERE follower_id = ?)")
		args = append(args, f.FollowerID)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanPost(row rowScanner) (*model.Post, error) {
	var (
		p                            model.Post
		author                       model.User
		groupID                      sql.NullString
		groupTitle, groupSlug, gDesc sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.Text, &p.PubDate, &p.AuthorID, &groupID, &p.Image,
		&author.Username, &author.FirstName, &author.LastName, &author.AvatarURL,
		&groupTitle, &groupSlug, &gDesc,
	)
	if err != nil {
		return nil, err
	}

	author.ID = p.AuthorID
	p.Author = &author

	if groupID.Valid {
		id := groupID.String
		p.GroupID = &id
		p.Group = &model.Group{
			ID:          id,
			Title:       groupTitle.String,
			Slug:        groupSlug.String,
			Description: gDesc.String,
		}
	}
	return &p, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
