package model

import "time"

// Showroom represents a physical service center offering parking, wash and
// repair services.  This struct corresponds to a row in the `showrooms`
// table.  AvailableSlots is a display-only counter; it is not reserved
// or released transactionally against bookings.
//
// Fields:
//  ID                – primary key identifier.
//  Name              – showroom name.
//  Address           – street address.
//  City              – city name, used by city search.
//  Longitude         – geographic longitude in degrees.
//  Latitude          – geographic latitude in degrees.
//  TotalParkingSlots – total slot capacity.
//  AvailableSlots    – advertised free slots (informational).
//  Facilities        – comma-separated facility tags (WiFi, CCTV, ...).
//  PhoneNumber       – optional contact number.
//  OpenTime          – opening hour, e.g. "08:00".
//  CloseTime         – closing hour, e.g. "22:00".
//  IsActive          – inactive showrooms are hidden from search.
//  CreatedAt         – timestamp of creation.
//  UpdatedAt         – timestamp of last update.
type Showroom struct {
	ID                uint64    // showrooms.id
	Name              string    // showrooms.name
	Address           string    // showrooms.address
	City              string    // showrooms.city
	Longitude         float64   // showrooms.longitude
	Latitude          float64   // showrooms.latitude
	TotalParkingSlots uint32    // showrooms.total_parking_slots
	AvailableSlots    uint32    // showrooms.available_slots
	Facilities        string    // showrooms.facilities
	PhoneNumber       *string   // showrooms.phone_number (nullable)
	OpenTime          *string   // showrooms.open_time (nullable)
	CloseTime         *string   // showrooms.close_time (nullable)
	IsActive          bool      // showrooms.is_active
	CreatedAt         time.Time // showrooms.created_at
	UpdatedAt         time.Time // showrooms.updated_at
}
