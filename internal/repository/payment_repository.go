package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/parkplaza/parkplaza-backend/internal/model"
)

// PaymentRepo provides access to the `payments` and `payment_audits`
// tables.  Every transition to SUCCESS runs inside one transaction that
// also advances the owning invoice and booking to PAID, so no committed
// state can show a successful payment against an unpaid invoice.
type PaymentRepo struct{ DB *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

const paymentColumns = `id, invoice_id, booking_id, user_id, showroom_id, amount, payment_method,
	gateway_order_id, gateway_payment_id, gateway_signature, transaction_id, status,
	payment_date, refunded_date, refund_amount, failure_reason, receipt_url, created_at, updated_at`

func scanPayment(row *sql.Row) (model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.InvoiceID, &p.BookingID, &p.UserID, &p.ShowroomID, &p.Amount,
		&p.PaymentMethod, &p.GatewayOrderID, &p.GatewayPaymentID, &p.GatewaySignature,
		&p.TransactionID, &p.Status, &p.PaymentDate, &p.RefundedDate, &p.RefundAmount,
		&p.FailureReason, &p.ReceiptURL, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

func scanPaymentRows(rows *sql.Rows) ([]model.Payment, error) {
	defer rows.Close()
	var out []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.BookingID, &p.UserID, &p.ShowroomID, &p.Amount,
			&p.PaymentMethod, &p.GatewayOrderID, &p.GatewayPaymentID, &p.GatewaySignature,
			&p.TransactionID, &p.Status, &p.PaymentDate, &p.RefundedDate, &p.RefundAmount,
			&p.FailureReason, &p.ReceiptURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreatePending inserts a PENDING payment row.  Used by the online path
// after the gateway order is created and by the direct-invoice flow.
func (r *PaymentRepo) CreatePending(ctx context.Context, p *model.Payment) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO payments (invoice_id, booking_id, user_id, showroom_id, amount,
			payment_method, gateway_order_id, status)
		 VALUES (?,?,?,?,?,?,?,'PENDING')`,
		p.InvoiceID, p.BookingID, p.UserID, p.ShowroomID, p.Amount,
		p.PaymentMethod, p.GatewayOrderID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	p.ID = uint64(id)
	p.Status = model.PaymentPending
	return p.ID, nil
}

// cascadePaid advances the invoice and (when present) the booking behind a
// settled payment to PAID within the caller's transaction.
func cascadePaid(ctx context.Context, tx *sql.Tx, invoiceID uint64, bookingID *uint64) error {
	if _, err := tx.ExecContext(ctx,
		"UPDATE invoices SET status='PAID' WHERE id=?", invoiceID); err != nil {
		return err
	}
	if bookingID != nil {
		if _, err := tx.ExecContext(ctx,
			"UPDATE bookings SET status='PAID' WHERE id=?", *bookingID); err != nil {
			return err
		}
	}
	return nil
}

// SettleOnline marks a PENDING payment SUCCESS with the verified gateway
// identifiers and cascades invoice and booking to PAID in the same
// transaction.  ErrInvalidState is returned when the payment is not
// PENDING, which also covers a second verification racing the first.
func (r *PaymentRepo) SettleOnline(ctx context.Context, p *model.Payment, gatewayPaymentID, signature string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status='SUCCESS', gateway_payment_id=?, gateway_signature=?,
			transaction_id=?, payment_date=UTC_TIMESTAMP()
		 WHERE id=? AND status='PENDING'`,
		gatewayPaymentID, signature, gatewayPaymentID, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidState
	}
	if err := cascadePaid(ctx, tx, p.InvoiceID, p.BookingID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	p.Status = model.PaymentSuccess
	p.GatewayPaymentID = &gatewayPaymentID
	p.TransactionID = &gatewayPaymentID
	return nil
}

// SettleCash marks a PENDING payment SUCCESS with method CASH, assigns the
// synthetic transaction id, cascades invoice and booking to PAID and writes
// the audit row — one transaction.  ErrInvalidState when not PENDING.
func (r *PaymentRepo) SettleCash(ctx context.Context, p *model.Payment, audit model.PaymentAudit) error {
	txnID := model.CashTransactionID(time.Now().UTC(), p.ID)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status='SUCCESS', payment_method='CASH', transaction_id=?,
			payment_date=UTC_TIMESTAMP()
		 WHERE id=? AND status='PENDING'`,
		txnID, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidState
	}
	if err := cascadePaid(ctx, tx, p.InvoiceID, p.BookingID); err != nil {
		return err
	}
	if err := insertAudit(ctx, tx, audit); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	p.Status = model.PaymentSuccess
	p.PaymentMethod = model.MethodCash
	p.TransactionID = &txnID
	return nil
}

// RecordCash inserts a payment directly in SUCCESS with method CASH (no
// prior PENDING row exists for counter settlements against an invoice),
// cascades invoice and booking to PAID and writes the audit row in the same
// transaction.
func (r *PaymentRepo) RecordCash(ctx context.Context, p *model.Payment, audit model.PaymentAudit) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO payments (invoice_id, booking_id, user_id, showroom_id, amount,
			payment_method, status, payment_date, failure_reason)
		 VALUES (?,?,?,?,?,'CASH','SUCCESS',UTC_TIMESTAMP(),?)`,
		p.InvoiceID, p.BookingID, p.UserID, p.ShowroomID, p.Amount, p.FailureReason)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	txnID := model.CashTransactionID(time.Now().UTC(), p.ID)
	if _, err := tx.ExecContext(ctx,
		"UPDATE payments SET transaction_id=? WHERE id=?", txnID, p.ID); err != nil {
		return err
	}
	if err := cascadePaid(ctx, tx, p.InvoiceID, p.BookingID); err != nil {
		return err
	}
	audit.PaymentID = p.ID
	if err := insertAudit(ctx, tx, audit); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	p.Status = model.PaymentSuccess
	p.PaymentMethod = model.MethodCash
	p.TransactionID = &txnID
	return nil
}

func insertAudit(ctx context.Context, tx *sql.Tx, a model.PaymentAudit) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO payment_audits (payment_id, invoice_id, action, actor_id, actor_role,
			previous_status, new_status, notes)
		 VALUES (?,?,?,?,?,?,?,?)`,
		a.PaymentID, a.InvoiceID, a.Action, a.ActorID, a.ActorRole,
		a.PreviousStatus, a.NewStatus, a.Notes)
	return err
}

// GetByID fetches a payment by id.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (model.Payment, error) {
	return scanPayment(r.DB.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE id=? LIMIT 1", id))
}

// ListByUser returns a customer's payments, optionally restricted to one
// status, newest first.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID uint64, status string) ([]model.Payment, error) {
	q := "SELECT " + paymentColumns + " FROM payments WHERE user_id=?"
	args := []interface{}{userID}
	if status != "" {
		q += " AND status=?"
		args = append(args, status)
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanPaymentRows(rows)
}

// ListPendingByShowroom returns a showroom's PENDING payments, newest
// first.  Pass zero to list across all showrooms (admin oversight).
func (r *PaymentRepo) ListPendingByShowroom(ctx context.Context, showroomID uint64) ([]model.Payment, error) {
	q := "SELECT " + paymentColumns + " FROM payments WHERE status='PENDING'"
	args := []interface{}{}
	if showroomID != 0 {
		q += " AND showroom_id=?"
		args = append(args, showroomID)
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanPaymentRows(rows)
}

// History returns settled payments (SUCCESS or REFUNDED) across showrooms,
// optionally filtered to one, newest first.
func (r *PaymentRepo) History(ctx context.Context, showroomID uint64) ([]model.Payment, error) {
	q := "SELECT " + paymentColumns + " FROM payments WHERE status IN ('SUCCESS','REFUNDED')"
	args := []interface{}{}
	if showroomID != 0 {
		q += " AND showroom_id=?"
		args = append(args, showroomID)
	}
	q += " ORDER BY payment_date DESC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanPaymentRows(rows)
}

// ShowroomStats aggregates payment counts and settled revenue for one
// showroom.  Backs the employee and admin dashboards.
type ShowroomStats struct {
	Total   uint64  `json:"total"`
	Pending uint64  `json:"pending"`
	Settled uint64  `json:"settled"`
	Revenue float64 `json:"revenue"`
}

// StatsByShowroom computes dashboard counters for a showroom; zero id
// aggregates the whole network.
func (r *PaymentRepo) StatsByShowroom(ctx context.Context, showroomID uint64) (ShowroomStats, error) {
	q := `SELECT COUNT(*),
		COALESCE(SUM(status='PENDING'),0),
		COALESCE(SUM(status='SUCCESS'),0),
		COALESCE(SUM(CASE WHEN status='SUCCESS' THEN amount ELSE 0 END),0)
	 FROM payments`
	args := []interface{}{}
	if showroomID != 0 {
		q += " WHERE showroom_id=?"
		args = append(args, showroomID)
	}
	var s ShowroomStats
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(&s.Total, &s.Pending, &s.Settled, &s.Revenue)
	return s, err
}

// SetReceiptURL records the rendered receipt reference, best effort.
func (r *PaymentRepo) SetReceiptURL(ctx context.Context, id uint64, url string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE payments SET receipt_url=? WHERE id=?", url, id)
	return err
}

// AuditsByPayment returns the audit trail of a payment, oldest first.
func (r *PaymentRepo) AuditsByPayment(ctx context.Context, paymentID uint64) ([]model.PaymentAudit, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, payment_id, invoice_id, action, actor_id, actor_role,
			previous_status, new_status, notes, created_at
		 FROM payment_audits WHERE payment_id=? ORDER BY id`, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PaymentAudit
	for rows.Next() {
		var a model.PaymentAudit
		if err := rows.Scan(&a.ID, &a.PaymentID, &a.InvoiceID, &a.Action, &a.ActorID,
			&a.ActorRole, &a.PreviousStatus, &a.NewStatus, &a.Notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
