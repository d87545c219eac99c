package entities

import (
	"time"
)

// CentreStatus is the moderation state of a listing.
type CentreStatus string

const (
	StatusPending  CentreStatus = "pending"
	StatusApproved CentreStatus = "approved"
	StatusRejected CentreStatus = "rejected"
)

// Centre types as used across the directory.
const (
	CentreTypeHospital   = "hopital"
	CentreTypeClinic     = "clinique"
	CentreTypePharmacy   = "pharmacie"
	CentreTypeHealthPost = "centre_sante"
	CentreTypeLaboratory = "laboratoire"
	CentreTypeDispensary = "dispensaire"
	CentreTypeEmergency  = "service_urgence"
)

// Centre represents a single emergency/health-service listing in the directory.
type Centre struct {
	ID string `json:"id,omitempty" db:"id"`
	// Code is the public, reversibly obfuscated form of ID. Populated at
	// render time, never stored.
	Code        string `json:"code,omitempty" db:"-"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	CentreType  string `json:"center_type" db:"centre_type"`

	Address  string `json:"address" db:"address"`
	City     string `json:"city" db:"city"`
	District string `json:"district,omitempty" db:"district"`

	Phone    string `json:"phone" db:"phone"`
	Phone2   string `json:"phone2,omitempty" db:"phone2"`
	WhatsApp string `json:"whatsapp,omitempty" db:"whatsapp"`
	Email    string `json:"email,omitempty" db:"email"`
	Website  string `json:"website,omitempty" db:"website"`

	Emergency24h         bool `json:"emergency_24h" db:"emergency_24h"`
	WheelchairAccessible bool `json:"wheelchair_accessible" db:"wheelchair_accessible"`
	Parking              bool `json:"parking" db:"parking"`
	PublicTransport      bool `json:"public_transport" db:"public_transport"`

	Services     []string            `json:"services" db:"-"`
	Specialties  []string            `json:"specialties,omitempty" db:"-"`
	OpeningHours map[string]DayHours `json:"opening_hours,omitempty" db:"-"`

	Location *Location `json:"location,omitempty" db:"-"`
	// Geohash of Location, maintained on write, used as a coarse pre-filter
	// for radius search.
	Geohash string `json:"-" db:"geohash"`

	Photos []string `json:"photos,omitempty" db:"-"`

	Status     CentreStatus `json:"status" db:"status"`
	ViewCount  int          `json:"view_count" db:"view_count"`
	AdminNotes string       `json:"admin_notes,omitempty" db:"admin_notes"`

	// DistanceKm is populated on distance-sorted search results.
	DistanceKm *float64 `json:"distance_km,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DayHours describes opening hours for a single weekday.
type DayHours struct {
	Open  bool   `json:"open"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// Pagination describes the paging envelope returned with centre lists.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// IsPubliclyVisible reports whether the listing may appear in public results.
func (c *Centre) IsPubliclyVisible() bool {
	return c.Status == StatusApproved
}
