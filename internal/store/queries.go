// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries wraps the theme's SQL statements.
type Queries struct {
	db DBTX
}

// New creates Queries over db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Event is a persisted log record.
type Event struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateEventParams holds the fields of a new event.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

// Category is a post category with its usage count.
type Category struct {
	ID        int64  `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	PostCount int64  `json:"post_count"`
}

// Author is a post author.
type Author struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
}

const getOption = `SELECT value FROM options WHERE key = ?`

// GetOption returns the option value, or "" when unset.
func (q *Queries) GetOption(ctx context.Context, key string) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx, getOption, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

const setOption = `INSERT INTO options (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// SetOption creates or replaces an option.
func (q *Queries) SetOption(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, setOption, key, value, time.Now().UTC())
	return err
}

const deleteOption = `DELETE FROM options WHERE key = ?`

// DeleteOption removes an option.
func (q *Queries) DeleteOption(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, deleteOption, key)
	return err
}

const getPostMeta = `SELECT meta_value FROM post_meta WHERE post_id = ? AND meta_key = ?`

// GetPostMeta returns a post meta value, or "" when unset.
func (q *Queries) GetPostMeta(ctx context.Context, postID int64, key string) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx, getPostMeta, postID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

const setPostMeta = `INSERT INTO post_meta (post_id, meta_key, meta_value, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(post_id, meta_key) DO UPDATE SET meta_value = excluded.meta_value, updated_at = excluded.updated_at`

// SetPostMeta creates or replaces a post meta value.
func (q *Queries) SetPostMeta(ctx context.Context, postID int64, key, value string) error {
	_, err := q.db.ExecContext(ctx, setPostMeta, postID, key, value, time.Now().UTC())
	return err
}

const deletePostMeta = `DELETE FROM post_meta WHERE post_id = ? AND meta_key = ?`

// DeletePostMeta removes a post meta value.
func (q *Queries) DeletePostMeta(ctx context.Context, postID int64, key string) error {
	_, err := q.db.ExecContext(ctx, deletePostMeta, postID, key)
	return err
}

const createEvent = `INSERT INTO events (level, category, message, metadata, created_at)
VALUES (?, ?, ?, ?, ?) RETURNING id, level, category, message, metadata, created_at`

// CreateEvent persists an event.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	if arg.CreatedAt.IsZero() {
		arg.CreatedAt = time.Now()
	}
	if arg.Metadata == "" {
		arg.Metadata = "{}"
	}
	var e Event
	err := q.db.QueryRowContext(ctx, createEvent,
		arg.Level, arg.Category, arg.Message, arg.Metadata, arg.CreatedAt.UTC(),
	).Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Metadata, &e.CreatedAt)
	return e, err
}

const listEvents = `SELECT id, level, category, message, metadata, created_at
FROM events ORDER BY id DESC LIMIT ?`

// ListEvents returns the newest events first.
func (q *Queries) ListEvents(ctx context.Context, limit int64) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const deleteEventsBefore = `DELETE FROM events WHERE created_at < ?`

// DeleteEventsBefore removes events created before t and returns how many.
func (q *Queries) DeleteEventsBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEventsBefore, t.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const upsertCategory = `INSERT INTO categories (slug, name, post_count) VALUES (?, ?, ?)
ON CONFLICT(slug) DO UPDATE SET name = excluded.name, post_count = excluded.post_count
RETURNING id, slug, name, post_count`

// UpsertCategory creates or updates a category by slug.
func (q *Queries) UpsertCategory(ctx context.Context, slug, name string, postCount int64) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx, upsertCategory, slug, name, postCount).
		Scan(&c.ID, &c.Slug, &c.Name, &c.PostCount)
	return c, err
}

const deleteCategory = `DELETE FROM categories WHERE slug = ?`

// DeleteCategory removes a category by slug.
func (q *Queries) DeleteCategory(ctx context.Context, slug string) error {
	_, err := q.db.ExecContext(ctx, deleteCategory, slug)
	return err
}

const countCategoriesInUse = `SELECT COUNT(*) FROM categories WHERE post_count > 0`

// CountCategoriesInUse counts categories attached to at least one post.
func (q *Queries) CountCategoriesInUse(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countCategoriesInUse).Scan(&n)
	return n, err
}

const upsertAuthor = `INSERT INTO authors (login, display_name, bio) VALUES (?, ?, ?)
ON CONFLICT(login) DO UPDATE SET display_name = excluded.display_name, bio = excluded.bio
RETURNING id, login, display_name, bio`

// UpsertAuthor creates or updates an author by login.
func (q *Queries) UpsertAuthor(ctx context.Context, login, displayName, bio string) (Author, error) {
	var a Author
	err := q.db.QueryRowContext(ctx, upsertAuthor, login, displayName, bio).
		Scan(&a.ID, &a.Login, &a.DisplayName, &a.Bio)
	return a, err
}

const getAuthor = `SELECT id, login, display_name, bio FROM authors WHERE id = ?`

// GetAuthor returns an author by id. The error is sql.ErrNoRows when absent.
func (q *Queries) GetAuthor(ctx context.Context, id int64) (Author, error) {
	var a Author
	err := q.db.QueryRowContext(ctx, getAuthor, id).Scan(&a.ID, &a.Login, &a.DisplayName, &a.Bio)
	return a, err
}
