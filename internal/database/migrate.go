package database

import (
	"context"
	"database/sql"
	"fmt"
)

const createUsersSQL = `
CREATE TABLE IF NOT EXISTS users (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    username VARCHAR(30) NOT NULL UNIQUE,
    name VARCHAR(100) NOT NULL,
    email VARCHAR(190) NOT NULL UNIQUE,
    phone VARCHAR(15) NOT NULL,
    password_hash VARCHAR(100) NOT NULL,
    role ENUM('USER','EMPLOYEE','ADMIN') NOT NULL DEFAULT 'USER',
    showroom_id BIGINT UNSIGNED NULL,
    address VARCHAR(255) NULL,
    is_active TINYINT(1) NOT NULL DEFAULT 1,
    email_verified TINYINT(1) NOT NULL DEFAULT 0,
    email_verification_token CHAR(64) NULL,
    email_verification_expires DATETIME NULL,
    password_reset_token CHAR(64) NULL,
    password_reset_expires DATETIME NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    KEY idx_users_showroom (showroom_id)
);`

const createRefreshTokensSQL = `
CREATE TABLE IF NOT EXISTS refresh_tokens (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    user_id BIGINT UNSIGNED NOT NULL,
    token_hash CHAR(64) NOT NULL UNIQUE,
    expires_at DATETIME NOT NULL,
    revoked_at DATETIME NULL,
    replaced_by_hash CHAR(64) NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_refresh_user (user_id)
);`

const createShowroomsSQL = `
CREATE TABLE IF NOT EXISTS showrooms (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    address VARCHAR(255) NOT NULL,
    city VARCHAR(100) NOT NULL,
    longitude DOUBLE NOT NULL,
    latitude DOUBLE NOT NULL,
    total_parking_slots INT UNSIGNED NOT NULL,
    available_slots INT UNSIGNED NOT NULL,
    facilities VARCHAR(500) NOT NULL DEFAULT '',
    phone_number VARCHAR(15) NULL,
    open_time VARCHAR(10) NULL,
    close_time VARCHAR(10) NULL,
    is_active TINYINT(1) NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
);`

const createBookingsSQL = `
CREATE TABLE IF NOT EXISTS bookings (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    user_id BIGINT UNSIGNED NOT NULL,
    showroom_id BIGINT UNSIGNED NOT NULL,
    car_number VARCHAR(20) NOT NULL,
    car_model VARCHAR(50) NULL,
    car_color VARCHAR(30) NULL,
    service_type ENUM('PARKING','WASH','REPAIR') NOT NULL,
    duration ENUM('HOURLY','DAILY','WEEKLY') NOT NULL DEFAULT 'HOURLY',
    estimated_cost DECIMAL(10,2) NOT NULL DEFAULT 0,
    description VARCHAR(500) NULL,
    notes VARCHAR(500) NULL,
    status ENUM('PENDING','INSPECTED','INVOICED','PAID','CANCELLED') NOT NULL DEFAULT 'PENDING',
    booking_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    KEY idx_bookings_user (user_id),
    KEY idx_bookings_showroom_status (showroom_id, status)
);`

const createInvoicesSQL = `
CREATE TABLE IF NOT EXISTS invoices (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    invoice_number VARCHAR(20) NOT NULL UNIQUE,
    booking_id BIGINT UNSIGNED NULL,
    user_id BIGINT UNSIGNED NOT NULL,
    employee_id BIGINT UNSIGNED NOT NULL,
    showroom_id BIGINT UNSIGNED NOT NULL,
    parts_cost DECIMAL(10,2) NOT NULL DEFAULT 0,
    labor_cost DECIMAL(10,2) NOT NULL DEFAULT 0,
    tax DECIMAL(10,2) NOT NULL DEFAULT 0,
    discount DECIMAL(10,2) NOT NULL DEFAULT 0,
    total_amount DECIMAL(10,2) NOT NULL,
    status ENUM('GENERATED','ACCEPTED','PAID') NOT NULL DEFAULT 'GENERATED',
    generated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    accepted_at DATETIME NULL,
    pdf_url VARCHAR(255) NULL,
    notes VARCHAR(500) NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    KEY idx_invoices_user (user_id),
    KEY idx_invoices_employee (employee_id),
    KEY idx_invoices_booking (booking_id)
);`

const createInvoiceItemsSQL = `
CREATE TABLE IF NOT EXISTS invoice_items (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    invoice_id BIGINT UNSIGNED NOT NULL,
    description VARCHAR(255) NOT NULL,
    quantity INT UNSIGNED NOT NULL DEFAULT 1,
    unit_price DECIMAL(10,2) NOT NULL DEFAULT 0,
    amount DECIMAL(10,2) NOT NULL DEFAULT 0,
    KEY idx_invoice_items_invoice (invoice_id)
);`

const createPaymentsSQL = `
CREATE TABLE IF NOT EXISTS payments (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    invoice_id BIGINT UNSIGNED NOT NULL,
    booking_id BIGINT UNSIGNED NULL,
    user_id BIGINT UNSIGNED NOT NULL,
    showroom_id BIGINT UNSIGNED NOT NULL,
    amount DECIMAL(10,2) NOT NULL,
    payment_method ENUM('RAZORPAY','UPI','CARD','NET_BANKING','CASH') NOT NULL DEFAULT 'RAZORPAY',
    gateway_order_id VARCHAR(64) NULL,
    gateway_payment_id VARCHAR(64) NULL,
    gateway_signature VARCHAR(128) NULL,
    transaction_id VARCHAR(64) NULL,
    status ENUM('PENDING','SUCCESS','FAILED','REFUNDED') NOT NULL DEFAULT 'PENDING',
    payment_date DATETIME NULL,
    refunded_date DATETIME NULL,
    refund_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
    failure_reason VARCHAR(255) NULL,
    receipt_url VARCHAR(255) NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    KEY idx_payments_user (user_id),
    KEY idx_payments_showroom_status (showroom_id, status),
    KEY idx_payments_invoice (invoice_id)
);`

const createPaymentAuditsSQL = `
CREATE TABLE IF NOT EXISTS payment_audits (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    payment_id BIGINT UNSIGNED NOT NULL,
    invoice_id BIGINT UNSIGNED NULL,
    action VARCHAR(50) NOT NULL,
    actor_id BIGINT UNSIGNED NOT NULL,
    actor_role VARCHAR(10) NOT NULL,
    previous_status VARCHAR(10) NOT NULL,
    new_status VARCHAR(10) NOT NULL,
    notes VARCHAR(500) NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_payment_audits_payment (payment_id)
);`

// counters holds one row per named sequence.  Invoice numbering uses the
// LAST_INSERT_ID trick against this table so concurrent allocations never
// hand out the same ordinal.
const createCountersSQL = `
CREATE TABLE IF NOT EXISTS counters (
    name VARCHAR(30) PRIMARY KEY,
    seq BIGINT UNSIGNED NOT NULL DEFAULT 0
);`

// Migrate creates all application tables when they do not exist yet.
// Statements are idempotent so the server can run it on every boot.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		createUsersSQL,
		createRefreshTokensSQL,
		createShowroomsSQL,
		createBookingsSQL,
		createInvoicesSQL,
		createInvoiceItemsSQL,
		createPaymentsSQL,
		createPaymentAuditsSQL,
		createCountersSQL,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
