package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"roomly/internal/database"
	"roomly/internal/domain"
	"roomly/internal/events"
	"roomly/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials намеренно не различает неизвестного пользователя
	// и неверный пароль
	ErrInvalidCredentials = errors.New("invalid username / password")

	ErrWeakCredentials = errors.New("username and password are required")
)

type UserService struct {
	store    domain.UserStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewUserService(store domain.UserStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *UserService {
	return &UserService{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Register creates an account with a bcrypt password hash. Username
// uniqueness is enforced by the store.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrWeakCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("username", username).Msg("user registered")

	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventUserRegistered, map[string]any{
			"user_id":  user.ID,
			"username": user.Username,
		})
	}

	return user, nil
}

// Authenticate verifies credentials. Any failure maps to
// ErrInvalidCredentials so the response leaks nothing about which part was
// wrong.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}
