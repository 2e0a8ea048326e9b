package repository

import (
	"context"
	"sync"
	"time"

	"roomly/internal/models"
)

// MemoryStateRepository is the in-process fallback for selection state and
// rate limiting. Selections do not expire here; the repository only lives
// while Redis is down.
type MemoryStateRepository struct {
	selections sync.Map
	rateLimits sync.Map
}

func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{}
}

func (r *MemoryStateRepository) GetSelection(ctx context.Context, userID int64) (*models.Selection, error) {
	val, ok := r.selections.Load(userID)
	if !ok {
		return nil, nil
	}
	return val.(*models.Selection), nil
}

func (r *MemoryStateRepository) SetSelection(ctx context.Context, sel *models.Selection) error {
	r.selections.Store(sel.UserID, sel)
	return nil
}

func (r *MemoryStateRepository) ClearSelection(ctx context.Context, userID int64) error {
	r.selections.Delete(userID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(userID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(userID, entry)
	return entry.count <= limit, nil
}
