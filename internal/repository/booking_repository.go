package repository

import (
	"context"
	"database/sql"

	"github.com/parkplaza/parkplaza-backend/internal/model"
)

// BookingRepo provides access to the `bookings` table.  Bookings progress
// PENDING -> INSPECTED -> INVOICED -> PAID; the INVOICED and PAID
// transitions are performed inside invoice/payment transactions and live in
// those repositories.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingColumns = `id, user_id, showroom_id, car_number, car_model, car_color, service_type,
	duration, estimated_cost, description, notes, status, booking_date, created_at, updated_at`

func scanBooking(row *sql.Row) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.ShowroomID, &b.CarNumber, &b.CarModel, &b.CarColor,
		&b.ServiceType, &b.Duration, &b.EstimatedCost, &b.Description, &b.Notes,
		&b.Status, &b.BookingDate, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return b, ErrNotFound
	}
	return b, err
}

func scanBookingRows(rows *sql.Rows) ([]model.Booking, error) {
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.ShowroomID, &b.CarNumber, &b.CarModel, &b.CarColor,
			&b.ServiceType, &b.Duration, &b.EstimatedCost, &b.Description, &b.Notes,
			&b.Status, &b.BookingDate, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Create inserts a booking and returns its ID.  The caller sets the status:
// customer bookings start at PENDING, walk-in bookings created by the
// direct-invoice flow start at INVOICED.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO bookings (user_id, showroom_id, car_number, car_model, car_color,
			service_type, duration, estimated_cost, description, status)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		b.UserID, b.ShowroomID, b.CarNumber, b.CarModel, b.CarColor,
		b.ServiceType, b.Duration, b.EstimatedCost, b.Description, b.Status)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	b.ID = uint64(id)
	return b.ID, nil
}

// GetByID fetches a booking by id.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	return scanBooking(r.DB.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1", id))
}

// ListByUser returns a customer's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE user_id=? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	return scanBookingRows(rows)
}

// ListWorkQueue returns a showroom's open bookings (PENDING or INSPECTED),
// newest first.  This is the employee's work queue.
func (r *BookingRepo) ListWorkQueue(ctx context.Context, showroomID uint64) ([]model.Booking, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bookingColumns+` FROM bookings
		 WHERE showroom_id=? AND status IN ('PENDING','INSPECTED')
		 ORDER BY booking_date DESC`, showroomID)
	if err != nil {
		return nil, err
	}
	return scanBookingRows(rows)
}

// Inspect moves a PENDING booking to INSPECTED and attaches the employee's
// notes.  ErrInvalidState is returned when the booking is not PENDING.
func (r *BookingRepo) Inspect(ctx context.Context, id uint64, notes string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET status='INSPECTED', notes=? WHERE id=? AND status='PENDING'",
		notes, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInvalidState
	}
	return nil
}

// UpdateStatus applies a guarded status transition.  The row is only
// touched when its current status matches `from`; otherwise the booking is
// re-read to distinguish ErrNotFound from ErrInvalidState.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, from, to string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET status=? WHERE id=? AND status=?", to, id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInvalidState
	}
	return nil
}

// Cancel moves a PENDING booking to CANCELLED.
func (r *BookingRepo) Cancel(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET status='CANCELLED' WHERE id=? AND status='PENDING'", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInvalidState
	}
	return nil
}
