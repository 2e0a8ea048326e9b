package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"roomly/internal/database"
	"roomly/internal/domain"
	"roomly/internal/events"
	"roomly/internal/metrics"
	"roomly/internal/models"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

// ErrNotOwner отказ в доступе: бронирование принадлежит другому пользователю
var ErrNotOwner = errors.New("reservation belongs to another user")

// ReservationService validates and persists reservations. Validation
// collects every applicable error; the store serializes the final
// conflict-check-then-write, so a race loser surfaces as a time conflict
// rather than a double booking.
type ReservationService struct {
	store     domain.ReservationStore
	eventBus  domain.EventPublisher
	notify    domain.NotifyQueue
	sanitizer *bluemonday.Policy
	logger    *zerolog.Logger
}

func NewReservationService(store domain.ReservationStore, eventBus domain.EventPublisher, notify domain.NotifyQueue, logger *zerolog.Logger) *ReservationService {
	return &ReservationService{
		store:     store,
		eventBus:  eventBus,
		notify:    notify,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}
}

// ExpandDates turns a request into the ordered list of calendar dates it
// covers: a single date, or every day of [start, end] when end is strictly
// later than start. Pure; no side effects.
func ExpandDates(req *models.ReservationRequest) ([]string, *models.ValidationError) {
	if req.Date != "" {
		if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
			e := models.MissingDateError()
			return nil, &e
		}
		return []string{req.Date}, nil
	}

	if req.StartDate != "" && req.EndDate != "" {
		start, errStart := time.Parse(models.DateLayout, req.StartDate)
		end, errEnd := time.Parse(models.DateLayout, req.EndDate)
		if errStart != nil || errEnd != nil || !end.After(start) {
			e := models.InvalidRangeError()
			return nil, &e
		}

		var dates []string
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			dates = append(dates, d.Format(models.DateLayout))
		}
		return dates, nil
	}

	e := models.MissingDateError()
	return nil, &e
}

// validTime accepts only the canonical zero-padded form: stored windows are
// compared lexicographically, so "9:00" must not slip through as valid.
func validTime(s string) bool {
	parsed, err := time.Parse(models.TimeLayout, s)
	return err == nil && parsed.Format(models.TimeLayout) == s
}

// Validate checks a candidate against business rules and the persisted
// windows for its resource. All failures are collected; conflict checks
// report every offending date.
func (s *ReservationService) Validate(ctx context.Context, req *models.ReservationRequest, dates []string, now time.Time, excludeID int64) (models.ValidationErrors, error) {
	var errs models.ValidationErrors

	required := []struct {
		name  string
		value string
	}{
		{"building", req.Building},
		{"floor", req.Floor},
		{"room", req.Room},
		{"start_time", req.StartTime},
		{"end_time", req.EndTime},
		{"reservation_name", req.ReservationName},
		{"contact_info", req.ContactInfo},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, models.MissingFieldError(f.name))
		}
	}

	// Локальная дата, время суток обнулено
	today := now.Format(models.DateLayout)
	for _, date := range dates {
		if date < today {
			errs = append(errs, models.PastDateError(date))
		}
	}

	timesOK := validTime(req.StartTime) && validTime(req.EndTime)
	if req.StartTime != "" && req.EndTime != "" {
		if !timesOK || req.EndTime <= req.StartTime {
			errs = append(errs, models.InvalidTimeWindowError())
			timesOK = false
		}
	}

	// Conflict checks need a concrete resource and a valid window.
	if req.Building == "" || req.Floor == "" || req.Room == "" || !timesOK {
		return errs, nil
	}

	candidate := models.Window{StartTime: req.StartTime, EndTime: req.EndTime}
	for _, date := range dates {
		windows, err := s.store.QueryWindows(ctx, req.Resource(), date, excludeID)
		if err != nil {
			return nil, fmt.Errorf("query windows for %s: %w", date, err)
		}
		for _, w := range windows {
			if w.Overlaps(candidate) {
				errs = append(errs, models.TimeConflictError(date))
				break
			}
		}
	}

	return errs, nil
}

// ValidateAndCreate runs the full validation and persists one record
// spanning the expanded dates. The store's transactional re-check is the
// backstop against concurrent writers; its conflict error is returned as a
// time_conflict validation error, not a fatal one.
func (s *ReservationService) ValidateAndCreate(ctx context.Context, req *models.ReservationRequest, userID int64, now time.Time) (int64, models.ValidationErrors, error) {
	s.sanitizeRequest(req)

	dates, expandErr := ExpandDates(req)
	var errs models.ValidationErrors
	if expandErr != nil {
		errs = append(errs, *expandErr)
	}

	validationErrs, err := s.Validate(ctx, req, dates, now, 0)
	if err != nil {
		return 0, nil, err
	}
	errs = append(errs, validationErrs...)
	if len(errs) > 0 {
		return 0, errs, nil
	}

	reservation := s.buildReservation(req, dates)
	reservation.UserID = userID

	if err := s.store.CreateReservation(ctx, reservation); err != nil {
		if errors.Is(err, database.ErrConflict) {
			// Race loser: report as conflict, user resubmits.
			metrics.IncReservationOp("create", "conflict")
			return 0, models.ValidationErrors{models.TimeConflictError("")}, nil
		}
		return 0, nil, fmt.Errorf("create reservation: %w", err)
	}
	metrics.IncReservationOp("create", "success")

	s.logger.Info().
		Int64("reservation_id", reservation.ID).
		Int64("user_id", userID).
		Str("room", reservation.Room).
		Str("start_date", reservation.StartDate).
		Str("end_date", reservation.EndDate).
		Msg("reservation created")

	s.publishEvent(events.EventReservationCreated, reservation)
	s.enqueueNotification(ctx, events.EventReservationCreated, reservation)

	return reservation.ID, nil, nil
}

// ValidateAndEdit overwrites every field of an owned reservation after
// re-running validation with the record excluded from its own conflict
// check. Fails closed: on any error the stored reservation is untouched.
func (s *ReservationService) ValidateAndEdit(ctx context.Context, id int64, req *models.ReservationRequest, requesterID int64, now time.Time) (models.ValidationErrors, error) {
	existing, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != requesterID {
		return nil, ErrNotOwner
	}

	s.sanitizeRequest(req)

	dates, expandErr := ExpandDates(req)
	var errs models.ValidationErrors
	if expandErr != nil {
		errs = append(errs, *expandErr)
	}

	validationErrs, err := s.Validate(ctx, req, dates, now, id)
	if err != nil {
		return nil, err
	}
	errs = append(errs, validationErrs...)
	if len(errs) > 0 {
		return errs, nil
	}

	reservation := s.buildReservation(req, dates)
	reservation.ID = id
	reservation.UserID = existing.UserID

	if err := s.store.UpdateReservation(ctx, reservation); err != nil {
		if errors.Is(err, database.ErrConflict) {
			metrics.IncReservationOp("edit", "conflict")
			return models.ValidationErrors{models.TimeConflictError("")}, nil
		}
		return nil, fmt.Errorf("update reservation: %w", err)
	}
	metrics.IncReservationOp("edit", "success")

	s.logger.Info().Int64("reservation_id", id).Int64("user_id", requesterID).Msg("reservation updated")

	s.publishEvent(events.EventReservationUpdated, reservation)
	s.enqueueNotification(ctx, events.EventReservationUpdated, reservation)

	return nil, nil
}

// Delete removes an owned reservation. Hard delete, no soft state.
func (s *ReservationService) Delete(ctx context.Context, id int64, requesterID int64) error {
	existing, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	if existing.UserID != requesterID {
		return ErrNotOwner
	}

	if err := s.store.DeleteReservation(ctx, id); err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	metrics.IncReservationOp("delete", "success")

	s.logger.Info().Int64("reservation_id", id).Int64("user_id", requesterID).Msg("reservation deleted")

	s.publishEvent(events.EventReservationDeleted, existing)
	s.enqueueNotification(ctx, events.EventReservationDeleted, existing)

	return nil
}

func (s *ReservationService) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	return s.store.GetReservation(ctx, id)
}

func (s *ReservationService) ListByResource(ctx context.Context, res models.Resource) ([]*models.Reservation, error) {
	return s.store.ListByResource(ctx, res)
}

func (s *ReservationService) ListByUser(ctx context.Context, userID int64) ([]*models.Reservation, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *ReservationService) ListByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Reservation, error) {
	return s.store.ListByDateRange(ctx, startDate, endDate)
}

func (s *ReservationService) buildReservation(req *models.ReservationRequest, dates []string) *models.Reservation {
	return &models.Reservation{
		Building:        req.Building,
		Floor:           req.Floor,
		Room:            req.Room,
		StartDate:       dates[0],
		EndDate:         dates[len(dates)-1],
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		ReservationName: req.ReservationName,
		ContactInfo:     req.ContactInfo,
	}
}

func (s *ReservationService) sanitizeRequest(req *models.ReservationRequest) {
	req.Building = strings.TrimSpace(req.Building)
	req.Floor = strings.TrimSpace(req.Floor)
	req.Room = strings.TrimSpace(req.Room)
	req.ReservationName = strings.TrimSpace(s.sanitizer.Sanitize(req.ReservationName))
	req.ContactInfo = strings.TrimSpace(s.sanitizer.Sanitize(req.ContactInfo))
}

func (s *ReservationService) publishEvent(eventType string, r *models.Reservation) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID:   r.ID,
		UserID:          r.UserID,
		Username:        r.Username,
		Building:        r.Building,
		Floor:           r.Floor,
		Room:            r.Room,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		ReservationName: r.ReservationName,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("reservation_id", r.ID).Msg("publish event error")
	}
}

func (s *ReservationService) enqueueNotification(ctx context.Context, eventType string, r *models.Reservation) {
	if s.notify == nil {
		return
	}

	var action string
	switch eventType {
	case events.EventReservationCreated:
		action = "New reservation"
	case events.EventReservationUpdated:
		action = "Reservation updated"
	case events.EventReservationDeleted:
		action = "Reservation cancelled"
	default:
		action = "Reservation event"
	}

	text := fmt.Sprintf("%s: %s/%s/%s %s–%s %s–%s (%s)",
		action, r.Building, r.Floor, r.Room,
		r.StartDate, r.EndDate, r.StartTime, r.EndTime, r.ReservationName)

	if err := s.notify.Enqueue(ctx, eventType, text); err != nil {
		s.logger.Error().Err(err).Int64("reservation_id", r.ID).Str("event_type", eventType).Msg("notify enqueue error")
	}
}
