package breach

import (
	"tourist-tracker/internal/geo"
	"tourist-tracker/internal/models"
)

// IsBreaching reports whether a zone class counts as a breach. Green
// zones attribute the tourist's current zone but are not breaches.
func IsBreaching(zoneType string) bool {
	return zoneType == models.ZoneTypeYellow || zoneType == models.ZoneTypeRed
}

// SeverityFor maps a breaching zone class to an alert severity.
func SeverityFor(zoneType string) string {
	if zoneType == models.ZoneTypeRed {
		return models.SeverityHigh
	}
	return models.SeverityMedium
}

// Classify returns the first zone in the snapshot whose ring contains
// the point, or nil when the tourist is in open territory. First match
// wins for overlapping zones; evaluation order is the snapshot order,
// so the result is stable within one sweep pass.
func Classify(p geo.Point, zones []models.Zone) *models.Zone {
	for i := range zones {
		if geo.Contains(p, geo.Ring(zones[i].Coordinates)) {
			return &zones[i]
		}
	}

	return nil
}
