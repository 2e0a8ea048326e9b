package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"roomly/internal/domain"
	"roomly/internal/models"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

// ErrNotAuthor пост принадлежит другому автору
var ErrNotAuthor = errors.New("post belongs to another author")

// ErrEmptyPost is returned when the title or body is blank after
// sanitization.
var ErrEmptyPost = errors.New("title and content are required")

type PostService struct {
	store     domain.PostStore
	sanitizer *bluemonday.Policy
	logger    *zerolog.Logger
}

func NewPostService(store domain.PostStore, logger *zerolog.Logger) *PostService {
	return &PostService{
		store:     store,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}
}

func (s *PostService) validate(title, body string) (string, string, error) {
	title = strings.TrimSpace(s.sanitizer.Sanitize(title))
	body = strings.TrimSpace(s.sanitizer.Sanitize(body))

	if title == "" {
		return "", "", fmt.Errorf("%w: missing title", ErrEmptyPost)
	}
	if body == "" {
		return "", "", fmt.Errorf("%w: missing content", ErrEmptyPost)
	}
	return title, body, nil
}

func (s *PostService) Create(ctx context.Context, title, body string, authorID int64) (*models.Post, error) {
	title, body, err := s.validate(title, body)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:    title,
		Body:     body,
		AuthorID: authorID,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("post_id", post.ID).Int64("author_id", authorID).Msg("post created")
	return post, nil
}

// Edit is author-only: ownership comes from the post's author_id, never
// from the post id.
func (s *PostService) Edit(ctx context.Context, id int64, title, body string, requesterID int64) error {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != requesterID {
		return ErrNotAuthor
	}

	title, body, err = s.validate(title, body)
	if err != nil {
		return err
	}

	return s.store.UpdatePost(ctx, id, title, body)
}

func (s *PostService) Delete(ctx context.Context, id int64, requesterID int64) error {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != requesterID {
		return ErrNotAuthor
	}

	return s.store.DeletePost(ctx, id)
}

func (s *PostService) Get(ctx context.Context, id int64) (*models.Post, error) {
	return s.store.GetPost(ctx, id)
}

func (s *PostService) List(ctx context.Context) ([]*models.Post, error) {
	return s.store.ListPosts(ctx)
}
