package models

import "time"

const (
	// DefaultBuilding, DefaultFloor and DefaultRoom select the dashboard
	// view when the user has no stored selection.
	DefaultBuilding = "building1"
	DefaultFloor    = "floor1"
	DefaultRoom     = "room1"
)

const (
	// SelectionTTL is how long a stored dashboard selection lives in Redis.
	SelectionTTL = 24 * 60 * 60 * time.Second

	// RateLimitRequests is the per-user write budget within RateLimitWindow.
	RateLimitRequests = 60

	// RateLimitWindow is the sliding window for the per-user write limit.
	RateLimitWindow = time.Minute

	// DefaultExportRangeDays is the export period when none is requested.
	DefaultExportRangeDays = 30
)
