package repository

import (
	"context"
	"sync/atomic"
	"time"

	"roomly/internal/domain"
	"roomly/internal/models"

	"github.com/rs/zerolog"
)

// FailoverStateRepository serves from the primary (Redis) until it errors,
// then falls back to memory and retries the primary after a cooldown.
type FailoverStateRepository struct {
	primary   domain.StateRepository
	fallback  domain.StateRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos of the last failed attempt
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverStateRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary state repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverStateRepository) GetSelection(ctx context.Context, userID int64) (*models.Selection, error) {
	if !r.isDown.Load() {
		sel, err := r.primary.GetSelection(ctx, userID)
		if err == nil {
			return sel, nil
		}
		r.markDown(err)
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(time.Unix(0, r.lastCheck.Load())) > time.Minute {
		sel, err := r.primary.GetSelection(ctx, userID)
		if err == nil {
			r.isDown.Store(false)
			return sel, nil
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}

	return r.fallback.GetSelection(ctx, userID)
}

func (r *FailoverStateRepository) SetSelection(ctx context.Context, sel *models.Selection) error {
	if !r.isDown.Load() {
		err := r.primary.SetSelection(ctx, sel)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetSelection(ctx, sel)
}

func (r *FailoverStateRepository) ClearSelection(ctx context.Context, userID int64) error {
	if !r.isDown.Load() {
		err := r.primary.ClearSelection(ctx, userID)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.ClearSelection(ctx, userID)
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
