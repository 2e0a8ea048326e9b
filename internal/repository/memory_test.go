package repository

import (
	"context"
	"testing"
	"time"

	"roomly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySelection(t *testing.T) {
	repo := NewMemoryStateRepository()
	ctx := context.Background()

	sel, err := repo.GetSelection(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, sel)

	want := &models.Selection{UserID: 1, Building: "building1", Floor: "floor2", Room: "room3", Date: "2026-01-15"}
	require.NoError(t, repo.SetSelection(ctx, want))

	sel, err = repo.GetSelection(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, want, sel)

	// Чужое состояние не видно
	sel, err = repo.GetSelection(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, sel)

	require.NoError(t, repo.ClearSelection(ctx, 1))
	sel, err = repo.GetSelection(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, sel)
}

func TestMemoryRateLimit(t *testing.T) {
	repo := NewMemoryStateRepository()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := repo.CheckRateLimit(ctx, 1, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
	}

	allowed, err := repo.CheckRateLimit(ctx, 1, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Другой пользователь считается отдельно
	allowed, err = repo.CheckRateLimit(ctx, 2, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryRateLimit_WindowReset(t *testing.T) {
	repo := NewMemoryStateRepository()
	ctx := context.Background()

	allowed, err := repo.CheckRateLimit(ctx, 1, 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = repo.CheckRateLimit(ctx, 1, 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, allowed)

	time.Sleep(20 * time.Millisecond)

	allowed, err = repo.CheckRateLimit(ctx, 1, 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)
}
