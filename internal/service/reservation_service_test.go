package service

import (
	"context"
	"testing"
	"time"

	"roomly/internal/database"
	"roomly/internal/domain"
	"roomly/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*ReservationService, *database.DB) {
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewReservationService(db, nil, nil, &logger), db
}

func createTestUser(t *testing.T, db *database.DB, username string) int64 {
	user := &models.User{Username: username, PasswordHash: "x"}
	require.NoError(t, db.CreateUser(context.Background(), user))
	return user.ID
}

func validRequest() *models.ReservationRequest {
	return &models.ReservationRequest{
		Building:        "building1",
		Floor:           "floor1",
		Room:            "room1",
		Date:            "2026-01-15",
		StartTime:       "10:00",
		EndTime:         "11:00",
		ReservationName: "Team sync",
		ContactInfo:     "team@example.com",
	}
}

func TestExpandDates_SingleDate(t *testing.T) {
	dates, verr := ExpandDates(&models.ReservationRequest{Date: "2026-01-15"})
	require.Nil(t, verr)
	assert.Equal(t, []string{"2026-01-15"}, dates)
}

func TestExpandDates_Range(t *testing.T) {
	dates, verr := ExpandDates(&models.ReservationRequest{
		StartDate: "2026-01-15",
		EndDate:   "2026-01-18",
	})
	require.Nil(t, verr)
	assert.Equal(t, []string{"2026-01-15", "2026-01-16", "2026-01-17", "2026-01-18"}, dates)
}

func TestExpandDates_RangeAcrossMonthBoundary(t *testing.T) {
	dates, verr := ExpandDates(&models.ReservationRequest{
		StartDate: "2026-01-31",
		EndDate:   "2026-02-02",
	})
	require.Nil(t, verr)
	assert.Equal(t, []string{"2026-01-31", "2026-02-01", "2026-02-02"}, dates)
}

func TestExpandDates_EndEqualsStart(t *testing.T) {
	dates, verr := ExpandDates(&models.ReservationRequest{
		StartDate: "2026-01-15",
		EndDate:   "2026-01-15",
	})
	require.NotNil(t, verr)
	assert.Nil(t, dates)
	assert.Equal(t, models.CodeInvalidRange, verr.Code)
}

func TestExpandDates_EndBeforeStart(t *testing.T) {
	_, verr := ExpandDates(&models.ReservationRequest{
		StartDate: "2026-01-18",
		EndDate:   "2026-01-15",
	})
	require.NotNil(t, verr)
	assert.Equal(t, models.CodeInvalidRange, verr.Code)
}

func TestExpandDates_Missing(t *testing.T) {
	_, verr := ExpandDates(&models.ReservationRequest{})
	require.NotNil(t, verr)
	assert.Equal(t, models.CodeMissingDate, verr.Code)
}

func TestExpandDates_MalformedSingleDate(t *testing.T) {
	_, verr := ExpandDates(&models.ReservationRequest{Date: "15.01.2026"})
	require.NotNil(t, verr)
	assert.Equal(t, models.CodeMissingDate, verr.Code)
}

func TestExpandDates_OnlyStartDate(t *testing.T) {
	_, verr := ExpandDates(&models.ReservationRequest{StartDate: "2026-01-15"})
	require.NotNil(t, verr)
	assert.Equal(t, models.CodeMissingDate, verr.Code)
}

func TestValidateAndCreate_Success(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	id, verrs, err := svc.ValidateAndCreate(context.Background(), validRequest(), userID, testNow)
	require.NoError(t, err)
	require.Empty(t, verrs)
	require.NotZero(t, id)

	stored, err := db.GetReservation(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, userID, stored.UserID)
	assert.Equal(t, "2026-01-15", stored.StartDate)
	assert.Equal(t, "2026-01-15", stored.EndDate)
	assert.Equal(t, "10:00", stored.StartTime)
	assert.Equal(t, "11:00", stored.EndTime)
}

func TestValidateAndCreate_MultiDaySingleRecord(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	req := validRequest()
	req.Date = ""
	req.StartDate = "2026-01-15"
	req.EndDate = "2026-01-17"

	id, verrs, err := svc.ValidateAndCreate(context.Background(), req, userID, testNow)
	require.NoError(t, err)
	require.Empty(t, verrs)

	stored, err := db.GetReservation(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-15", stored.StartDate)
	assert.Equal(t, "2026-01-17", stored.EndDate)

	// Каждая дата диапазона должна быть видна в оконных запросах
	for _, date := range []string{"2026-01-15", "2026-01-16", "2026-01-17"} {
		windows, err := db.QueryWindows(context.Background(), req.Resource(), date, 0)
		require.NoError(t, err)
		require.Len(t, windows, 1, "date %s", date)
		assert.Equal(t, id, windows[0].ID)
	}

	// One row total, not one per day
	mine, err := db.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestValidateAndCreate_CollectsAllErrors(t *testing.T) {
	svc, _ := newTestService(t)

	_, verrs, err := svc.ValidateAndCreate(context.Background(), &models.ReservationRequest{}, 1, testNow)
	require.NoError(t, err)
	require.NotEmpty(t, verrs)

	assert.True(t, verrs.HasCode(models.CodeMissingDate))
	assert.True(t, verrs.HasCode(models.CodeMissingField))

	// All seven required fields reported at once
	var missing int
	for _, ve := range verrs {
		if ve.Code == models.CodeMissingField {
			missing++
		}
	}
	assert.Equal(t, 7, missing)
}

func TestValidateAndCreate_PastDate(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	req := validRequest()
	req.Date = "2026-01-09" // вчера относительно testNow

	_, verrs, err := svc.ValidateAndCreate(context.Background(), req, userID, testNow)
	require.NoError(t, err)
	require.NotEmpty(t, verrs)
	assert.True(t, verrs.HasCode(models.CodePastDate))
}

func TestValidateAndCreate_TodayAllowed(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	req := validRequest()
	req.Date = "2026-01-10"

	_, verrs, err := svc.ValidateAndCreate(context.Background(), req, userID, testNow)
	require.NoError(t, err)
	assert.Empty(t, verrs)
}

func TestValidateAndCreate_InvalidTimeWindow(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	for _, tc := range []struct{ start, end string }{
		{"11:00", "10:00"},
		{"10:00", "10:00"},
		{"25:00", "11:00"},
		{"9:00", "10:00"},
		{"10:00", "9:30"},
	} {
		req := validRequest()
		req.StartTime = tc.start
		req.EndTime = tc.end

		_, verrs, err := svc.ValidateAndCreate(context.Background(), req, userID, testNow)
		require.NoError(t, err)
		assert.True(t, verrs.HasCode(models.CodeInvalidTimeWindow), "start=%s end=%s", tc.start, tc.end)
	}
}

func TestValidateAndCreate_NonPaddedHourRejected(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	first := validRequest()
	first.StartTime = "09:00"
	first.EndTime = "10:00"
	_, verrs, err := svc.ValidateAndCreate(context.Background(), first, userID, testNow)
	require.NoError(t, err)
	require.Empty(t, verrs)

	// "9:00" парсится, но лексикографическое сравнение окон требует
	// нулевого паддинга: без него пересечение с 09:00-10:00 не видно
	req := validRequest()
	req.StartTime = "9:00"
	req.EndTime = "9:30"

	_, verrs, err = svc.ValidateAndCreate(context.Background(), req, userID, testNow)
	require.NoError(t, err)
	require.NotEmpty(t, verrs)
	assert.True(t, verrs.HasCode(models.CodeInvalidTimeWindow))

	list, err := svc.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestValidateAndCreate_TimeConflict(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	_, verrs, err := svc.ValidateAndCreate(context.Background(), validRequest(), userID, testNow)
	require.NoError(t, err)
	require.Empty(t, verrs)

	req := validRequest()
	req.StartTime = "10:30"
	req.EndTime = "11:30"

	_, verrs, err = svc.ValidateAndCreate(context.Background(), req, userID, testNow)
	require.NoError(t, err)
	require.NotEmpty(t, verrs)
	assert.True(t, verrs.HasCode(models.CodeTimeConflict))
	assert.Equal(t, "2026-01-15", verrs[0].Date)
}

func TestValidateAndCreate_AdjacentWindowsAllowed(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	_, verrs, err := svc.ValidateAndCreate(context.Background(), validRequest(), userID, testNow)
	require.NoError(t, err)
	require.Empty(t, verrs)

	// Стык окон 11:00 конфликтом не считается
	req := validRequest()
	req.StartTime = "11:00"
	req.EndTime = "12:00"

	_, verrs, err = svc.ValidateAndCreate(context.Background(), req, userID, testNow)
	require.NoError(t, err)
	assert.Empty(t, verrs)
}

func TestValidateAndCreate_OtherRoomNoConflict(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	_, verrs, err := svc.ValidateAndCreate(context.Background(), validRequest(), userID, testNow)
	require.NoError(t, err)
	require.Empty(t, verrs)

	req := validRequest()
	req.Room = "room2"

	_, verrs, err = svc.ValidateAndCreate(context.Background(), req, userID, testNow)
	require.NoError(t, err)
	assert.Empty(t, verrs)
}

func TestValidateAndCreate_MultiDayConflictMidRange(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	// Existing single-day reservation in the middle of the candidate range
	existing := validRequest()
	existing.Date = "2026-01-16"
	_, verrs, err := svc.ValidateAndCreate(context.Background(), existing, userID, testNow)
	require.NoError(t, err)
	require.Empty(t, verrs)

	req := validRequest()
	req.Date = ""
	req.StartDate = "2026-01-15"
	req.EndDate = "2026-01-17"

	_, verrs, err = svc.ValidateAndCreate(context.Background(), req, userID, testNow)
	require.NoError(t, err)
	require.Len(t, verrs, 1)
	assert.Equal(t, models.CodeTimeConflict, verrs[0].Code)
	assert.Equal(t, "2026-01-16", verrs[0].Date)
}

func TestValidateAndCreate_ConflictAgainstStoredRange(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	existing := validRequest()
	existing.Date = ""
	existing.StartDate = "2026-01-15"
	existing.EndDate = "2026-01-17"
	_, verrs, err := svc.ValidateAndCreate(context.Background(), existing, userID, testNow)
	require.NoError(t, err)
	require.Empty(t, verrs)

	// Single day inside the stored range must see the stored window
	req := validRequest()
	req.Date = "2026-01-16"

	_, verrs, err = svc.ValidateAndCreate(context.Background(), req, userID, testNow)
	require.NoError(t, err)
	require.NotEmpty(t, verrs)
	assert.True(t, verrs.HasCode(models.CodeTimeConflict))
}

func TestValidateAndCreate_ConflictCheckSkippedOnInvalidTimes(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	_, verrs, err := svc.ValidateAndCreate(context.Background(), validRequest(), userID, testNow)
	require.NoError(t, err)
	require.Empty(t, verrs)

	req := validRequest()
	req.StartTime = "11:00"
	req.EndTime = "10:00"

	_, verrs, err = svc.ValidateAndCreate(context.Background(), req, userID, testNow)
	require.NoError(t, err)
	assert.True(t, verrs.HasCode(models.CodeInvalidTimeWindow))
	assert.False(t, verrs.HasCode(models.CodeTimeConflict))
}

func TestValidateAndCreate_SanitizesName(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	req := validRequest()
	req.ReservationName = `<script>alert(1)</script>Demo`

	id, verrs, err := svc.ValidateAndCreate(context.Background(), req, userID, testNow)
	require.NoError(t, err)
	require.Empty(t, verrs)

	stored, err := db.GetReservation(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Demo", stored.ReservationName)
}

// conflictStore forces the transactional write to lose the race.
type conflictStore struct {
	domain.ReservationStore
}

func (conflictStore) CreateReservation(ctx context.Context, r *models.Reservation) error {
	return database.ErrConflict
}

func TestValidateAndCreate_RaceLoserGetsConflict(t *testing.T) {
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewReservationService(conflictStore{db}, nil, nil, &logger)

	_, verrs, err := svc.ValidateAndCreate(context.Background(), validRequest(), 1, testNow)
	require.NoError(t, err)
	require.Len(t, verrs, 1)
	assert.Equal(t, models.CodeTimeConflict, verrs[0].Code)
}

func TestValidateAndEdit_OwnWindowExcluded(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	id, verrs, err := svc.ValidateAndCreate(context.Background(), validRequest(), userID, testNow)
	require.NoError(t, err)
	require.Empty(t, verrs)

	// Keeping the same window must not conflict with itself
	req := validRequest()
	req.ReservationName = "Team sync (moved notes)"

	verrs, err = svc.ValidateAndEdit(context.Background(), id, req, userID, testNow)
	require.NoError(t, err)
	assert.Empty(t, verrs)

	stored, err := db.GetReservation(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Team sync (moved notes)", stored.ReservationName)
}

func TestValidateAndEdit_ConflictWithOtherReservation(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	id, _, err := svc.ValidateAndCreate(context.Background(), validRequest(), userID, testNow)
	require.NoError(t, err)

	other := validRequest()
	other.StartTime = "14:00"
	other.EndTime = "15:00"
	_, verrs, err := svc.ValidateAndCreate(context.Background(), other, userID, testNow)
	require.NoError(t, err)
	require.Empty(t, verrs)

	// Move the first reservation onto the second
	req := validRequest()
	req.StartTime = "14:30"
	req.EndTime = "15:30"

	verrs, err = svc.ValidateAndEdit(context.Background(), id, req, userID, testNow)
	require.NoError(t, err)
	assert.True(t, verrs.HasCode(models.CodeTimeConflict))

	// Fails closed: stored reservation unchanged
	stored, err := db.GetReservation(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "10:00", stored.StartTime)
}

func TestValidateAndEdit_NotOwner(t *testing.T) {
	svc, db := newTestService(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	id, _, err := svc.ValidateAndCreate(context.Background(), validRequest(), alice, testNow)
	require.NoError(t, err)

	_, err = svc.ValidateAndEdit(context.Background(), id, validRequest(), bob, testNow)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestValidateAndEdit_NotFound(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	_, err := svc.ValidateAndEdit(context.Background(), 9999, validRequest(), userID, testNow)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestDelete_Success(t *testing.T) {
	svc, db := newTestService(t)
	userID := createTestUser(t, db, "alice")

	id, _, err := svc.ValidateAndCreate(context.Background(), validRequest(), userID, testNow)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), id, userID))

	_, err = db.GetReservation(context.Background(), id)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestDelete_NotOwner(t *testing.T) {
	svc, db := newTestService(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	id, _, err := svc.ValidateAndCreate(context.Background(), validRequest(), alice, testNow)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), id, bob), ErrNotOwner)

	// Still there
	_, err = db.GetReservation(context.Background(), id)
	assert.NoError(t, err)
}
