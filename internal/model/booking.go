package model

import "time"

// Booking status values.  The normal progression is
// PENDING -> INSPECTED -> INVOICED -> PAID; CANCELLED is terminal and
// reachable from PENDING.
const (
	BookingPending   = "PENDING"
	BookingInspected = "INSPECTED"
	BookingInvoiced  = "INVOICED"
	BookingPaid      = "PAID"
	BookingCancelled = "CANCELLED"
)

// Service types offered by a showroom.
const (
	ServiceParking = "PARKING"
	ServiceWash    = "WASH"
	ServiceRepair  = "REPAIR"
)

// Booking durations and the fixed rate table used to estimate cost at
// creation time.  The estimate is informational; the billable amount is set
// by the invoice an employee generates later.
const (
	DurationHourly = "HOURLY"
	DurationDaily  = "DAILY"
	DurationWeekly = "WEEKLY"
)

// RateFor returns the estimated cost for a duration.  Unknown values fall
// back to the hourly rate, matching how walk-in bookings are priced.
func RateFor(duration string) float64 {
	switch duration {
	case DurationDaily:
		return 500
	case DurationWeekly:
		return 3000
	default:
		return 50
	}
}

// Booking records a customer's request for one service at one showroom.
// This struct corresponds to a row in the `bookings` table.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – customer who owns the booking.
//  ShowroomID    – showroom where the service happens.
//  CarNumber     – vehicle plate number (required).
//  CarModel      – vehicle model (optional).
//  CarColor      – vehicle color (optional).
//  ServiceType   – PARKING, WASH or REPAIR.
//  Duration      – HOURLY, DAILY or WEEKLY.
//  EstimatedCost – estimate from the rate table, set at creation.
//  Description   – customer-supplied free text.
//  Notes         – employee inspection notes.
//  Status        – lifecycle state, see constants above.
//  BookingDate   – when the booking was placed.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type Booking struct {
	ID            uint64    // bookings.id
	UserID        uint64    // bookings.user_id
	ShowroomID    uint64    // bookings.showroom_id
	CarNumber     string    // bookings.car_number
	CarModel      *string   // bookings.car_model (nullable)
	CarColor      *string   // bookings.car_color (nullable)
	ServiceType   string    // bookings.service_type
	Duration      string    // bookings.duration
	EstimatedCost float64   // bookings.estimated_cost
	Description   *string   // bookings.description (nullable)
	Notes         *string   // bookings.notes (nullable)
	Status        string    // bookings.status
	BookingDate   time.Time // bookings.booking_date
	CreatedAt     time.Time // bookings.created_at
	UpdatedAt     time.Time // bookings.updated_at
}
