package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"roomly/internal/models"
)

const reservationColumns = `id, user_id, building, floor, room, start_date, end_date,
                 start_time, end_time, reservation_name, contact_info, created_at, updated_at`

// QueryWindows returns the booked time windows for a resource on one
// calendar date. Multi-day reservations are matched by range overlap on
// their stored start_date/end_date, using the resource+dates index.
// excludeID keeps a reservation out of its own conflict check on edit.
func (db *DB) QueryWindows(ctx context.Context, res models.Resource, date string, excludeID int64) ([]models.Window, error) {
	query := `SELECT id, start_time, end_time FROM reservations
              WHERE building = ? AND floor = ? AND room = ?
                AND start_date <= ? AND end_date >= ?
                AND id != ?`

	rows, err := db.QueryContext(ctx, query, res.Building, res.Floor, res.Room, date, date, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query windows: %w", err)
	}
	defer rows.Close()

	var windows []models.Window
	for rows.Next() {
		var w models.Window
		if err := rows.Scan(&w.ID, &w.StartTime, &w.EndTime); err != nil {
			return nil, fmt.Errorf("failed to scan window: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// conflictExists re-runs the per-day overlap check inside a transaction.
// This is the backstop: two concurrent writers serialize on the immediate
// transaction, so at most one can pass.
func conflictExists(ctx context.Context, tx *sql.Tx, r *models.Reservation, excludeID int64) (bool, error) {
	query := `SELECT COUNT(*) FROM reservations
              WHERE building = ? AND floor = ? AND room = ?
                AND start_date <= ? AND end_date >= ?
                AND id != ?
                AND start_time < ? AND end_time > ?`

	for _, date := range r.Dates() {
		var count int
		err := tx.QueryRowContext(ctx, query,
			r.Building, r.Floor, r.Room,
			date, date,
			excludeID,
			r.EndTime, r.StartTime,
		).Scan(&count)
		if err != nil {
			return false, fmt.Errorf("failed to check conflict in tx: %w", err)
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

// CreateReservation inserts one record spanning [start_date, end_date].
// The conflict re-check and the insert run in a single transaction; losers
// of a race get ErrConflict.
func (db *DB) CreateReservation(ctx context.Context, r *models.Reservation) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	conflict, err := conflictExists(ctx, tx, r, 0)
	if err != nil {
		return err
	}
	if conflict {
		return ErrConflict
	}

	query := `INSERT INTO reservations (
				user_id, building, floor, room, start_date, end_date,
				start_time, end_time, reservation_name, contact_info, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, query,
		r.UserID,
		r.Building,
		r.Floor,
		r.Room,
		r.StartDate,
		r.EndDate,
		r.StartTime,
		r.EndTime,
		r.ReservationName,
		r.ContactInfo,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reservation in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now

	return tx.Commit()
}

// UpdateReservation overwrites every field of an existing reservation. The
// record under edit is excluded from its own conflict check.
func (db *DB) UpdateReservation(ctx context.Context, r *models.Reservation) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	conflict, err := conflictExists(ctx, tx, r, r.ID)
	if err != nil {
		return err
	}
	if conflict {
		return ErrConflict
	}

	query := `UPDATE reservations SET building = ?, floor = ?, room = ?,
				start_date = ?, end_date = ?, start_time = ?, end_time = ?,
				reservation_name = ?, contact_info = ?, updated_at = ?
			  WHERE id = ?`
	now := time.Now()
	result, err := tx.ExecContext(ctx, query,
		r.Building,
		r.Floor,
		r.Room,
		r.StartDate,
		r.EndDate,
		r.StartTime,
		r.EndTime,
		r.ReservationName,
		r.ContactInfo,
		now,
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update reservation in tx: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	r.UpdatedAt = now

	return tx.Commit()
}

func (db *DB) DeleteReservation(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`

	var r models.Reservation
	err := db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.UserID, &r.Building, &r.Floor, &r.Room,
		&r.StartDate, &r.EndDate, &r.StartTime, &r.EndTime,
		&r.ReservationName, &r.ContactInfo, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &r, nil
}

// ListByResource returns reservations for one room joined with the owner's
// username, ordered by date and start time.
func (db *DB) ListByResource(ctx context.Context, res models.Resource) ([]*models.Reservation, error) {
	query := `SELECT r.id, r.user_id, r.building, r.floor, r.room, r.start_date, r.end_date,
                     r.start_time, r.end_time, r.reservation_name, r.contact_info,
                     r.created_at, r.updated_at, u.username
              FROM reservations r JOIN users u ON r.user_id = u.id
              WHERE r.building = ? AND r.floor = ? AND r.room = ?
              ORDER BY r.start_date, r.start_time`

	rows, err := db.QueryContext(ctx, query, res.Building, res.Floor, res.Room)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations by resource: %w", err)
	}
	defer rows.Close()

	return scanReservationsWithOwner(rows)
}

func (db *DB) ListByUser(ctx context.Context, userID int64) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
              WHERE user_id = ? ORDER BY start_date DESC, start_time`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		r := &models.Reservation{}
		err := rows.Scan(
			&r.ID, &r.UserID, &r.Building, &r.Floor, &r.Room,
			&r.StartDate, &r.EndDate, &r.StartTime, &r.EndTime,
			&r.ReservationName, &r.ContactInfo, &r.CreatedAt, &r.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

// ListByDateRange returns reservations whose [start_date, end_date] touches
// the given period. Used by the export.
func (db *DB) ListByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Reservation, error) {
	query := `SELECT r.id, r.user_id, r.building, r.floor, r.room, r.start_date, r.end_date,
                     r.start_time, r.end_time, r.reservation_name, r.contact_info,
                     r.created_at, r.updated_at, u.username
              FROM reservations r JOIN users u ON r.user_id = u.id
              WHERE r.start_date <= ? AND r.end_date >= ?
              ORDER BY r.start_date, r.building, r.floor, r.room, r.start_time`

	rows, err := db.QueryContext(ctx, query, endDate, startDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations by date range: %w", err)
	}
	defer rows.Close()

	return scanReservationsWithOwner(rows)
}

func scanReservationsWithOwner(rows *sql.Rows) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	for rows.Next() {
		r := &models.Reservation{}
		err := rows.Scan(
			&r.ID, &r.UserID, &r.Building, &r.Floor, &r.Room,
			&r.StartDate, &r.EndDate, &r.StartTime, &r.EndTime,
			&r.ReservationName, &r.ContactInfo, &r.CreatedAt, &r.UpdatedAt,
			&r.Username,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}
