package breach

import (
	"tourist-tracker/internal/models"
)

// Decision is the outcome of one state machine step for one tourist.
type Decision struct {
	// Breached is the next value of the tourist's breach flag.
	Breached bool
	// Zone is the governing zone, nil when ungoverned.
	Zone *models.Zone
	// OpenAlert asks for a GEOFENCE alert, subject to the caller's
	// check that none is already unresolved for this tourist.
	OpenAlert bool
	// Severity accompanies OpenAlert.
	Severity string
	// ResolveAlerts asks for a bulk resolve of all unresolved
	// GEOFENCE alerts for this tourist.
	ResolveAlerts bool
}

// Evaluate runs the breach transition for a tourist given the previous
// breach flag and the zone the classifier matched (nil for no match).
//
//	prev=false, no match        -> stay clear
//	prev=false, green zone      -> stay clear, attribute zone
//	prev=false, yellow/red zone -> breach, open alert
//	prev=true,  no match        -> exit, resolve alerts
//	prev=true,  green zone      -> exit, attribute zone, resolve alerts
//	prev=true,  yellow/red zone -> still breached, alert stays open
func Evaluate(prevBreached bool, zone *models.Zone) Decision {
	d := Decision{Zone: zone}

	if zone != nil && IsBreaching(zone.Type) {
		d.Breached = true
		if !prevBreached {
			d.OpenAlert = true
			d.Severity = SeverityFor(zone.Type)
		}
		return d
	}

	if prevBreached {
		d.ResolveAlerts = true
	}

	return d
}
