package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"roomly/internal/database"
	"roomly/internal/models"
	"roomly/internal/service"
)

func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": s.cfg.Rooms})
}

func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listReservations(w, r)
	case http.MethodPost:
		requireLogin(s.createReservation)(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) listReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := models.Resource{
		Building: strings.TrimSpace(q.Get("building")),
		Floor:    strings.TrimSpace(q.Get("floor")),
		Room:     strings.TrimSpace(q.Get("room")),
	}
	if res.Building == "" || res.Floor == "" || res.Room == "" {
		writeError(w, http.StatusBadRequest, "building, floor and room are required")
		return
	}

	list, err := s.reservations.ListByResource(r.Context(), res)
	if err != nil {
		s.logger.Error().Err(err).Msg("list reservations")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": list})
}

func (s *HTTPServer) createReservation(w http.ResponseWriter, r *http.Request) {
	var req models.ReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id := CurrentUser(r.Context())
	allowed, err := s.state.CheckRateLimit(r.Context(), id.UserID, models.RateLimitRequests, models.RateLimitWindow)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", id.UserID).Msg("rate limit check failed, allowing request")
	} else if !allowed {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}

	resID, verrs, err := s.reservations.ValidateAndCreate(r.Context(), &req, id.UserID, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("create reservation")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(verrs) > 0 {
		writeValidationErrors(w, verrs)
		return
	}

	created, err := s.reservations.Get(r.Context(), resID)
	if err != nil {
		s.logger.Error().Err(err).Int64("reservation_id", resID).Msg("load created reservation")
		writeJSON(w, http.StatusCreated, map[string]any{"id": resID})
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) handleReservationByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/reservations/"
	rawID := strings.TrimPrefix(r.URL.Path, prefix)
	if rawID == "" || strings.Contains(rawID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	resID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getReservation(w, r, resID)
	case http.MethodPut:
		requireLogin(func(w http.ResponseWriter, r *http.Request) {
			s.editReservation(w, r, resID)
		})(w, r)
	case http.MethodDelete:
		requireLogin(func(w http.ResponseWriter, r *http.Request) {
			s.deleteReservation(w, r, resID)
		})(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) getReservation(w http.ResponseWriter, r *http.Request, resID int64) {
	res, err := s.reservations.Get(r.Context(), resID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "reservation not found")
			return
		}
		s.logger.Error().Err(err).Int64("reservation_id", resID).Msg("get reservation")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) editReservation(w http.ResponseWriter, r *http.Request, resID int64) {
	var req models.ReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id := CurrentUser(r.Context())
	verrs, err := s.reservations.ValidateAndEdit(r.Context(), resID, &req, id.UserID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			writeError(w, http.StatusNotFound, "reservation not found")
		case errors.Is(err, service.ErrNotOwner):
			writeError(w, http.StatusForbidden, "reservation belongs to another user")
		default:
			s.logger.Error().Err(err).Int64("reservation_id", resID).Msg("edit reservation")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	if len(verrs) > 0 {
		writeValidationErrors(w, verrs)
		return
	}

	updated, err := s.reservations.Get(r.Context(), resID)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"id": resID})
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *HTTPServer) deleteReservation(w http.ResponseWriter, r *http.Request, resID int64) {
	id := CurrentUser(r.Context())
	if err := s.reservations.Delete(r.Context(), resID, id.UserID); err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			writeError(w, http.StatusNotFound, "reservation not found")
		case errors.Is(err, service.ErrNotOwner):
			writeError(w, http.StatusForbidden, "reservation belongs to another user")
		default:
			s.logger.Error().Err(err).Int64("reservation_id", resID).Msg("delete reservation")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *HTTPServer) handleMyReservations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := CurrentUser(r.Context())
	list, err := s.reservations.ListByUser(r.Context(), id.UserID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", id.UserID).Msg("list user reservations")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": list})
}

// handleDashboard returns the caller's current selection together with the
// reservations of the selected room, mirroring what the booking screen
// renders.
func (s *HTTPServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := CurrentUser(r.Context())
	sel, err := s.state.GetSelection(r.Context(), id.UserID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", id.UserID).Msg("get selection")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	list, err := s.reservations.ListByResource(r.Context(), models.Resource{
		Building: sel.Building,
		Floor:    sel.Floor,
		Room:     sel.Room,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("list reservations for dashboard")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"selection":    sel,
		"rooms":        s.cfg.Rooms,
		"reservations": list,
	})
}

func (s *HTTPServer) handleSelection(w http.ResponseWriter, r *http.Request) {
	id := CurrentUser(r.Context())

	switch r.Method {
	case http.MethodGet:
		sel, err := s.state.GetSelection(r.Context(), id.UserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, sel)

	case http.MethodPut:
		var sel models.Selection
		if err := decodeJSON(r, &sel); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if !s.cfg.HasRoom(sel.Building, sel.Floor, sel.Room) {
			writeError(w, http.StatusBadRequest, "unknown room")
			return
		}
		sel.UserID = id.UserID
		if err := s.state.SetSelection(r.Context(), &sel); err != nil {
			s.logger.Error().Err(err).Int64("user_id", id.UserID).Msg("set selection")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, sel)

	case http.MethodDelete:
		if err := s.state.ClearSelection(r.Context(), id.UserID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleExport builds an Excel workbook for the requested period and streams
// it back as a download.
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	startDate := strings.TrimSpace(r.URL.Query().Get("start"))
	endDate := strings.TrimSpace(r.URL.Query().Get("end"))
	if startDate == "" && endDate == "" {
		now := time.Now()
		startDate = now.Format(models.DateLayout)
		endDate = now.AddDate(0, 0, models.DefaultExportRangeDays).Format(models.DateLayout)
	} else if startDate == "" || endDate == "" {
		writeError(w, http.StatusBadRequest, "start and end are required")
		return
	}
	if _, err := time.Parse(models.DateLayout, startDate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date; expected YYYY-MM-DD")
		return
	}
	if _, err := time.Parse(models.DateLayout, endDate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date; expected YYYY-MM-DD")
		return
	}
	if endDate < startDate {
		writeError(w, http.StatusBadRequest, "end date is before start date")
		return
	}

	filePath, err := s.exporter.ExportRange(r.Context(), startDate, endDate)
	if err != nil {
		s.logger.Error().Err(err).Msg("export reservations")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(filePath))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, filePath)
}

func writeValidationErrors(w http.ResponseWriter, verrs models.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"errors": verrs})
}
