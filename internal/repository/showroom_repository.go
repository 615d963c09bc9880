package repository

import (
	"context"
	"database/sql"

	"github.com/parkplaza/parkplaza-backend/internal/model"
)

// ShowroomRepo provides access to the `showrooms` table.
type ShowroomRepo struct{ DB *sql.DB }

func NewShowroomRepo(db *sql.DB) *ShowroomRepo { return &ShowroomRepo{DB: db} }

const showroomColumns = `id, name, address, city, longitude, latitude, total_parking_slots,
	available_slots, facilities, phone_number, open_time, close_time, is_active, created_at, updated_at`

func scanShowroomRows(rows *sql.Rows) ([]model.Showroom, error) {
	defer rows.Close()
	var out []model.Showroom
	for rows.Next() {
		var s model.Showroom
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.City, &s.Longitude, &s.Latitude,
			&s.TotalParkingSlots, &s.AvailableSlots, &s.Facilities, &s.PhoneNumber,
			&s.OpenTime, &s.CloseTime, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create inserts a showroom and returns its ID.  AvailableSlots starts at
// the full capacity when not set explicitly.
func (r *ShowroomRepo) Create(ctx context.Context, s *model.Showroom) (uint64, error) {
	if s.AvailableSlots == 0 {
		s.AvailableSlots = s.TotalParkingSlots
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO showrooms (name, address, city, longitude, latitude, total_parking_slots,
			available_slots, facilities, phone_number, open_time, close_time, is_active)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.Name, s.Address, s.City, s.Longitude, s.Latitude, s.TotalParkingSlots,
		s.AvailableSlots, s.Facilities, s.PhoneNumber, s.OpenTime, s.CloseTime, s.IsActive)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.ID = uint64(id)
	return s.ID, nil
}

// Update rewrites the mutable showroom fields.
func (r *ShowroomRepo) Update(ctx context.Context, s *model.Showroom) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE showrooms SET name=?, address=?, city=?, longitude=?, latitude=?,
			total_parking_slots=?, available_slots=?, facilities=?, phone_number=?,
			open_time=?, close_time=?, is_active=?
		 WHERE id=?`,
		s.Name, s.Address, s.City, s.Longitude, s.Latitude, s.TotalParkingSlots,
		s.AvailableSlots, s.Facilities, s.PhoneNumber, s.OpenTime, s.CloseTime,
		s.IsActive, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM showrooms WHERE id=?", s.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// GetByID fetches a showroom by id.
func (r *ShowroomRepo) GetByID(ctx context.Context, id uint64) (model.Showroom, error) {
	var s model.Showroom
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+showroomColumns+" FROM showrooms WHERE id=? LIMIT 1", id).
		Scan(&s.ID, &s.Name, &s.Address, &s.City, &s.Longitude, &s.Latitude,
			&s.TotalParkingSlots, &s.AvailableSlots, &s.Facilities, &s.PhoneNumber,
			&s.OpenTime, &s.CloseTime, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

// ListActive returns every active showroom.  The nearby search filters this
// list in memory with the haversine distance; the active set is small
// enough that a geographic index is not worth the operational cost.
func (r *ShowroomRepo) ListActive(ctx context.Context) ([]model.Showroom, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+showroomColumns+" FROM showrooms WHERE is_active=1 ORDER BY id")
	if err != nil {
		return nil, err
	}
	return scanShowroomRows(rows)
}

// ListAll returns every showroom including inactive ones (admin view).
func (r *ShowroomRepo) ListAll(ctx context.Context) ([]model.Showroom, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+showroomColumns+" FROM showrooms ORDER BY id")
	if err != nil {
		return nil, err
	}
	return scanShowroomRows(rows)
}

// ListByCity returns active showrooms whose city matches case-insensitively,
// sorted by name.
func (r *ShowroomRepo) ListByCity(ctx context.Context, city string) ([]model.Showroom, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+showroomColumns+` FROM showrooms
		 WHERE is_active=1 AND LOWER(city) LIKE CONCAT('%', LOWER(?), '%')
		 ORDER BY name`, city)
	if err != nil {
		return nil, err
	}
	return scanShowroomRows(rows)
}
