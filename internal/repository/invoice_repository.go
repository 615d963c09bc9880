package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/parkplaza/parkplaza-backend/internal/model"
)

// InvoiceRepo provides access to the `invoices` and `invoice_items` tables
// and owns invoice-number allocation.  Creation runs inside a transaction
// so the number allocation, the invoice row, its line items and the
// booking's INVOICED transition commit or roll back together.
type InvoiceRepo struct{ DB *sql.DB }

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{DB: db} }

const invoiceColumns = `id, invoice_number, booking_id, user_id, employee_id, showroom_id,
	parts_cost, labor_cost, tax, discount, total_amount, status, generated_at, accepted_at,
	pdf_url, notes, created_at, updated_at`

func scanInvoice(row *sql.Row) (model.Invoice, error) {
	var inv model.Invoice
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.BookingID, &inv.UserID, &inv.EmployeeID,
		&inv.ShowroomID, &inv.PartsCost, &inv.LaborCost, &inv.Tax, &inv.Discount,
		&inv.TotalAmount, &inv.Status, &inv.GeneratedAt, &inv.AcceptedAt,
		&inv.PDFURL, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	if err == sql.ErrNoRows {
		return inv, ErrNotFound
	}
	return inv, err
}

func scanInvoiceRows(rows *sql.Rows) ([]model.Invoice, error) {
	defer rows.Close()
	var out []model.Invoice
	for rows.Next() {
		var inv model.Invoice
		if err := rows.Scan(&inv.ID, &inv.InvoiceNumber, &inv.BookingID, &inv.UserID, &inv.EmployeeID,
			&inv.ShowroomID, &inv.PartsCost, &inv.LaborCost, &inv.Tax, &inv.Discount,
			&inv.TotalAmount, &inv.Status, &inv.GeneratedAt, &inv.AcceptedAt,
			&inv.PDFURL, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// nextInvoiceSeq atomically increments the invoice counter row and returns
// the new ordinal.  The LAST_INSERT_ID trick makes the increment visible to
// this connection only, so two concurrent allocations can never observe the
// same value.
func nextInvoiceSeq(ctx context.Context, tx *sql.Tx) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO counters (name, seq) VALUES ('invoice', LAST_INSERT_ID(1))
		 ON DUPLICATE KEY UPDATE seq = LAST_INSERT_ID(seq + 1)`)
	if err != nil {
		return 0, err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(seq), nil
}

// insertInvoice allocates the invoice number and writes the invoice row and
// its line items within the caller's transaction.
func insertInvoice(ctx context.Context, tx *sql.Tx, inv *model.Invoice, items []model.InvoiceItem) error {
	seq, err := nextInvoiceSeq(ctx, tx)
	if err != nil {
		return err
	}
	inv.InvoiceNumber = model.FormatInvoiceNumber(time.Now().UTC(), seq)

	res, err := tx.ExecContext(ctx,
		`INSERT INTO invoices (invoice_number, booking_id, user_id, employee_id, showroom_id,
			parts_cost, labor_cost, tax, discount, total_amount, status, notes)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		inv.InvoiceNumber, inv.BookingID, inv.UserID, inv.EmployeeID, inv.ShowroomID,
		inv.PartsCost, inv.LaborCost, inv.Tax, inv.Discount, inv.TotalAmount,
		model.InvoiceGenerated, inv.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	inv.Status = model.InvoiceGenerated

	if len(items) > 0 {
		q := "INSERT INTO invoice_items (invoice_id, description, quantity, unit_price, amount) VALUES "
		args := make([]interface{}, 0, len(items)*5)
		for i, it := range items {
			if i > 0 {
				q += ","
			}
			q += "(?,?,?,?,?)"
			args = append(args, inv.ID, it.Description, it.Quantity, it.UnitPrice, it.Amount)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// Create allocates an invoice number, inserts the invoice and its line
// items, and (when the invoice bills a booking) moves that booking to
// INVOICED — all in one transaction.
func (r *InvoiceRepo) Create(ctx context.Context, inv *model.Invoice, items []model.InvoiceItem) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertInvoice(ctx, tx, inv, items); err != nil {
		return err
	}

	if inv.BookingID != nil {
		if _, err := tx.ExecContext(ctx,
			"UPDATE bookings SET status='INVOICED' WHERE id=?", *inv.BookingID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CreateDirect backs the walk-in flow: the synthetic booking, the invoice
// with its line items and the PENDING cash payment commit or roll back
// together, so a mid-flow failure can never leave an invoiced booking with
// no invoice or payment behind it.
func (r *InvoiceRepo) CreateDirect(ctx context.Context, b *model.Booking, inv *model.Invoice,
	items []model.InvoiceItem, p *model.Payment) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (user_id, showroom_id, car_number, car_model, car_color,
			service_type, duration, estimated_cost, description, status)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		b.UserID, b.ShowroomID, b.CarNumber, b.CarModel, b.CarColor,
		b.ServiceType, b.Duration, b.EstimatedCost, b.Description, b.Status)
	if err != nil {
		return err
	}
	bid, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(bid)
	inv.BookingID = &b.ID

	if err := insertInvoice(ctx, tx, inv, items); err != nil {
		return err
	}

	p.BookingID = &b.ID
	p.InvoiceID = inv.ID
	res, err = tx.ExecContext(ctx,
		`INSERT INTO payments (invoice_id, booking_id, user_id, showroom_id, amount,
			payment_method, status)
		 VALUES (?,?,?,?,?,?,'PENDING')`,
		p.InvoiceID, p.BookingID, p.UserID, p.ShowroomID, p.Amount, p.PaymentMethod)
	if err != nil {
		return err
	}
	pid, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(pid)
	p.Status = model.PaymentPending

	return tx.Commit()
}

// GetByID fetches an invoice by id.
func (r *InvoiceRepo) GetByID(ctx context.Context, id uint64) (model.Invoice, error) {
	return scanInvoice(r.DB.QueryRowContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id=? LIMIT 1", id))
}

// GetByBooking fetches the invoice billing a booking, if one exists.
func (r *InvoiceRepo) GetByBooking(ctx context.Context, bookingID uint64) (model.Invoice, error) {
	return scanInvoice(r.DB.QueryRowContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE booking_id=? ORDER BY id DESC LIMIT 1", bookingID))
}

// Items returns the line items of an invoice.
func (r *InvoiceRepo) Items(ctx context.Context, invoiceID uint64) ([]model.InvoiceItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, invoice_id, description, quantity, unit_price, amount FROM invoice_items WHERE invoice_id=?",
		invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.InvoiceItem
	for rows.Next() {
		var it model.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &it.Quantity, &it.UnitPrice, &it.Amount); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListByUser returns a customer's invoices, newest first.
func (r *InvoiceRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Invoice, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE user_id=? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	return scanInvoiceRows(rows)
}

// ListByEmployee returns the invoices generated by one employee.
func (r *InvoiceRepo) ListByEmployee(ctx context.Context, employeeID uint64) ([]model.Invoice, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE employee_id=? ORDER BY created_at DESC", employeeID)
	if err != nil {
		return nil, err
	}
	return scanInvoiceRows(rows)
}

// Update rewrites the cost fields, total and notes of an invoice that is
// still GENERATED, replacing its line items.  ErrInvalidState is returned
// once the invoice has been accepted or paid; the row is left untouched.
func (r *InvoiceRepo) Update(ctx context.Context, inv *model.Invoice, items []model.InvoiceItem) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE invoices SET parts_cost=?, labor_cost=?, tax=?, discount=?, total_amount=?, notes=?
		 WHERE id=? AND status='GENERATED'`,
		inv.PartsCost, inv.LaborCost, inv.Tax, inv.Discount, inv.TotalAmount, inv.Notes, inv.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either absent or frozen; look once to tell the two apart.
		var status string
		err := tx.QueryRowContext(ctx, "SELECT status FROM invoices WHERE id=?", inv.ID).Scan(&status)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if status != model.InvoiceGenerated {
			return ErrInvalidState
		}
		// Identical values; fall through and rewrite items anyway.
	}

	if items != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM invoice_items WHERE invoice_id=?", inv.ID); err != nil {
			return err
		}
		if len(items) > 0 {
			q := "INSERT INTO invoice_items (invoice_id, description, quantity, unit_price, amount) VALUES "
			args := make([]interface{}, 0, len(items)*5)
			for i, it := range items {
				if i > 0 {
					q += ","
				}
				q += "(?,?,?,?,?)"
				args = append(args, inv.ID, it.Description, it.Quantity, it.UnitPrice, it.Amount)
			}
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Accept moves a GENERATED invoice to ACCEPTED and stamps the acceptance
// time.  ErrInvalidState is returned for any other starting status.
func (r *InvoiceRepo) Accept(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE invoices SET status='ACCEPTED', accepted_at=UTC_TIMESTAMP() WHERE id=? AND status='GENERATED'",
		id)
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

// SetPDFURL records the rendered document reference.  Rendering happens
// after the invoice transaction commits and its failure never unwinds the
// invoice, so this is a plain best-effort update.
func (r *InvoiceRepo) SetPDFURL(ctx context.Context, id uint64, url string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE invoices SET pdf_url=? WHERE id=?", url, id)
	return err
}
