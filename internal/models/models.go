package models

import (
	"time"
)

// Zone safety classes as stored on zone records.
const (
	ZoneTypeGreen  = "green"
	ZoneTypeYellow = "yellow"
	ZoneTypeRed    = "red"
)

// Alert types.
const (
	AlertTypeSos      = "SOS"
	AlertTypeGeofence = "GEOFENCE"
	AlertTypeAnomaly  = "ANOMALY"
)

// Alert severities.
const (
	SeverityLow    = "LOW"
	SeverityMedium = "MEDIUM"
	SeverityHigh   = "HIGH"
)

// Tourist represents a tracked tourist in the system. Lat/Lng are nil
// until the companion app reports a first position.
type Tourist struct {
	Id               string     `gorm:"primaryKey;not null" json:"id"`
	Name             string     `json:"name"`
	Email            string     `gorm:"index" json:"email"`
	ProofType        string     `json:"proof_type"`
	ProofNumber      string     `json:"-"`
	Lat              *float64   `json:"lat"`
	Lng              *float64   `json:"lng"`
	Sos              bool       `json:"sos"`
	Timestamp        *time.Time `json:"timestamp"`
	GeoFenceBreached bool       `json:"geo_fence_breached"`
	CurrentZoneId    *string    `json:"current_zone_id"`
	CurrentZoneType  *string    `json:"current_zone_type"`
	CurrentZoneName  *string    `json:"current_zone_name"`
	BreachTime       *time.Time `json:"breach_time"`
	ConnectionToken  string     `gorm:"index" json:"-"`
	TokenGeneratedAt *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"-"`
}

// Zone represents an authority-defined polygon with a safety class.
// Coordinates are [lng, lat] pairs (GeoJSON axis order) forming an
// implicitly closed ring. Zones are soft-deleted via IsActive.
type Zone struct {
	Id          string       `gorm:"primaryKey;not null" json:"id"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Description string       `json:"description"`
	Coordinates [][2]float64 `gorm:"serializer:json" json:"coordinates"`
	IsActive    bool         `json:"is_active"`
	CreatedBy   string       `json:"created_by"`
	UpdatedBy   string       `json:"updated_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Alert is an event record opened for a tourist. GEOFENCE alerts are
// opened and resolved by the breach sweep, SOS alerts by the tourist.
type Alert struct {
	Id         string     `gorm:"primaryKey;not null" json:"id"`
	UserId     string     `gorm:"index" json:"user_id"`
	Type       string     `gorm:"index" json:"type"`
	Severity   string     `json:"severity"`
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	Timestamp  time.Time  `json:"timestamp"`
	Resolved   bool       `gorm:"index" json:"resolved"`
	ResolvedBy *string    `json:"resolved_by"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

// LocationHistory keeps the movement trail of a tourist. Lng/Lat follow
// the same GeoJSON axis order as zone coordinates.
type LocationHistory struct {
	Id        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserId    string    `gorm:"index" json:"user_id"`
	Lng       float64   `json:"lng"`
	Lat       float64   `json:"lat"`
	Sos       bool      `json:"sos"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}

// Authority represents a dashboard operator. Referenced by
// Alert.ResolvedBy; account management happens out of band.
type Authority struct {
	Id        string     `gorm:"primaryKey;not null" json:"id"`
	Name      string     `json:"name"`
	Email     string     `gorm:"index" json:"email"`
	Role      string     `json:"role"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
}
