package models

import "time"

// DateLayout and TimeLayout are the canonical wire/storage formats for
// calendar dates and times of day. Times are zero-padded 24h strings, so
// lexicographic comparison matches chronological order.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Reservation books one room for a time window on one or more consecutive
// days. A multi-day booking is a single record spanning
// [StartDate, EndDate]; conflict checks run per calendar day.
type Reservation struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Username        string    `json:"username,omitempty"`
	Building        string    `json:"building"`
	Floor           string    `json:"floor"`
	Room            string    `json:"room"`
	StartDate       string    `json:"start_date"` // inclusive, DateLayout
	EndDate         string    `json:"end_date"`   // inclusive, DateLayout
	StartTime       string    `json:"start_time"` // TimeLayout
	EndTime         string    `json:"end_time"`   // TimeLayout
	ReservationName string    `json:"reservation_name"`
	ContactInfo     string    `json:"contact_info"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Resource identifies a bookable unit.
type Resource struct {
	Building string `json:"building"`
	Floor    string `json:"floor"`
	Room     string `json:"room"`
}

// Window is a booked time-of-day interval on some date, as returned by
// per-day conflict queries.
type Window struct {
	ID        int64  `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Overlaps reports whether two half-open [start, end) windows intersect.
// Adjacent windows (w.EndTime == other.StartTime) do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.StartTime < other.EndTime && w.EndTime > other.StartTime
}

// Dates returns the ordered calendar dates the reservation covers.
func (r *Reservation) Dates() []string {
	start, err := time.Parse(DateLayout, r.StartDate)
	if err != nil {
		return nil
	}
	end, err := time.Parse(DateLayout, r.EndDate)
	if err != nil {
		return nil
	}

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates
}

// ReservationRequest is the caller-supplied payload for creating or editing
// a reservation. Either Date (single day) or StartDate+EndDate (range) must
// be set.
type ReservationRequest struct {
	Building        string `json:"building"`
	Floor           string `json:"floor"`
	Room            string `json:"room"`
	Date            string `json:"date,omitempty"`
	StartDate       string `json:"start_date,omitempty"`
	EndDate         string `json:"end_date,omitempty"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	ReservationName string `json:"reservation_name"`
	ContactInfo     string `json:"contact_info"`
}

// Resource returns the (building, floor, room) triple of the request.
func (r *ReservationRequest) Resource() Resource {
	return Resource{Building: r.Building, Floor: r.Floor, Room: r.Room}
}
