package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"roomly/internal/models"
)

func (db *DB) CreatePost(ctx context.Context, post *models.Post) error {
	query := `INSERT INTO posts (title, body, author_id, created_date) VALUES (?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, post.Title, post.Body, post.AuthorID, now)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	post.ID = id
	post.CreatedDate = now
	return nil
}

func (db *DB) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT p.id, p.title, p.body, p.author_id, p.created_date, u.username
              FROM posts p JOIN users u ON p.author_id = u.id
              WHERE p.id = ?`

	var post models.Post
	err := db.QueryRowContext(ctx, query, id).Scan(
		&post.ID, &post.Title, &post.Body, &post.AuthorID, &post.CreatedDate, &post.AuthorName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

func (db *DB) UpdatePost(ctx context.Context, id int64, title, body string) error {
	result, err := db.ExecContext(ctx, `UPDATE posts SET title = ?, body = ? WHERE id = ?`, title, body, id)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeletePost(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) ListPosts(ctx context.Context) ([]*models.Post, error) {
	query := `SELECT p.id, p.title, p.body, p.author_id, p.created_date, u.username
              FROM posts p JOIN users u ON p.author_id = u.id
              ORDER BY p.created_date DESC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p := &models.Post{}
		err := rows.Scan(&p.ID, &p.Title, &p.Body, &p.AuthorID, &p.CreatedDate, &p.AuthorName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
