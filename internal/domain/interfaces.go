package domain

import (
	"context"
	"time"

	"roomly/internal/models"
)

// ReservationStore is the persistence contract the scheduling core depends
// on. QueryWindows feeds per-day conflict checks; the write methods must
// serialize their own conflict re-check with the insert/update (see the
// database package).
type ReservationStore interface {
	QueryWindows(ctx context.Context, res models.Resource, date string, excludeID int64) ([]models.Window, error)
	CreateReservation(ctx context.Context, r *models.Reservation) error
	UpdateReservation(ctx context.Context, r *models.Reservation) error
	DeleteReservation(ctx context.Context, id int64) error
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	ListByResource(ctx context.Context, res models.Resource) ([]*models.Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Reservation, error)
	ListByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Reservation, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	UpdatePost(ctx context.Context, id int64, title, body string) error
	DeletePost(ctx context.Context, id int64) error
	ListPosts(ctx context.Context) ([]*models.Post, error)
}

// StateRepository holds per-user dashboard selection and request counters.
// Implementations: redis, in-memory, and a failover wrapper over both.
type StateRepository interface {
	GetSelection(ctx context.Context, userID int64) (*models.Selection, error)
	SetSelection(ctx context.Context, sel *models.Selection) error
	ClearSelection(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Notifier delivers a human-readable notification about a reservation event.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// NotifyQueue accepts notification tasks for asynchronous delivery.
type NotifyQueue interface {
	Enqueue(ctx context.Context, eventType string, text string) error
}
