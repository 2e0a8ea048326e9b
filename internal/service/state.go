package service

import (
	"context"
	"time"

	"roomly/internal/domain"
	"roomly/internal/models"

	"github.com/rs/zerolog"
)

// StateService wraps the selection state repository. Selection is per-user,
// request-scoped from the caller's point of view; nothing here is ever
// process-wide.
type StateService struct {
	stateRepo domain.StateRepository
	logger    *zerolog.Logger
}

func NewStateService(stateRepo domain.StateRepository, logger *zerolog.Logger) *StateService {
	return &StateService{
		stateRepo: stateRepo,
		logger:    logger,
	}
}

// GetSelection returns the stored selection or the default room view.
func (s *StateService) GetSelection(ctx context.Context, userID int64) (*models.Selection, error) {
	sel, err := s.stateRepo.GetSelection(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get selection")
		return nil, err
	}
	if sel == nil {
		sel = &models.Selection{
			UserID:   userID,
			Building: models.DefaultBuilding,
			Floor:    models.DefaultFloor,
			Room:     models.DefaultRoom,
		}
	}
	return sel, nil
}

func (s *StateService) SetSelection(ctx context.Context, sel *models.Selection) error {
	return s.stateRepo.SetSelection(ctx, sel)
}

func (s *StateService) ClearSelection(ctx context.Context, userID int64) error {
	return s.stateRepo.ClearSelection(ctx, userID)
}

// CheckRateLimit reports whether the user is within the request budget.
func (s *StateService) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	return s.stateRepo.CheckRateLimit(ctx, userID, limit, window)
}
